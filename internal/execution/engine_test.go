package execution

import (
	"context"
	"sync"
	"testing"

	"github.com/groundctl/groundctl/internal/geofence"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/internal/registry"
	"github.com/groundctl/groundctl/pkg/log"
)

type fakeNotifier struct {
	mu       sync.Mutex
	executes []string
	aborts   []string
}

func (n *fakeNotifier) NotifyExecute(_ context.Context, vehicleID, missionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.executes = append(n.executes, vehicleID+":"+missionID)
	return nil
}

func (n *fakeNotifier) NotifyAbort(_ context.Context, vehicleID, missionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.aborts = append(n.aborts, vehicleID+":"+missionID)
	return nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	kinds []model.EventKind
}

func (r *fakeRecorder) Record(kind model.EventKind, _ string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

type fixture struct {
	repo     *registry.Registry
	engine   *Engine
	notifier *fakeNotifier
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := registry.New()
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	engine := NewEngine(repo, geofence.NewEngine(repo.Geofences()), notifier, recorder, log.NewNopLogger())
	return &fixture{repo: repo, engine: engine, notifier: notifier, recorder: recorder}
}

func (f *fixture) addVehicle(t *testing.T, id string, battery float64) {
	t.Helper()
	err := f.repo.Vehicles().Create(&model.Vehicle{
		ID:           id,
		Type:         model.VehicleTypeMultiRotor,
		Status:       model.VehicleStatusIdle,
		Position:     model.Position{Lat: 37.62, Lon: -122.38},
		Battery:      battery,
		Capabilities: model.DefaultCapabilities(model.VehicleTypeMultiRotor),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) addMission(t *testing.T, id string, waypoints []model.Waypoint) {
	t.Helper()
	err := f.repo.Missions().Create(&model.Mission{
		ID:        id,
		Name:      "test " + id,
		Type:      model.MissionTypeSurvey,
		Status:    model.MissionStatusCreated,
		Waypoints: waypoints,
		Progress:  model.Progress{Total: len(waypoints)},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func shortPath() []model.Waypoint {
	return []model.Waypoint{
		{Position: model.Position{Lat: 37.620, Lon: -122.380, Alt: 50}, Seq: 0},
		{Position: model.Position{Lat: 37.621, Lon: -122.380, Alt: 50}, Seq: 1},
		{Position: model.Position{Lat: 37.621, Lon: -122.379, Alt: 50}, Seq: 2},
		{Position: model.Position{Lat: 37.620, Lon: -122.379, Alt: 50}, Seq: 3},
	}
}

func TestValidateTransitionsToValidated(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())

	verdict, err := f.engine.Validate(context.Background(), "M001", "V001")
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Clear {
		t.Fatalf("verdict = %+v, want clear", verdict)
	}

	m, _ := f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusValidated {
		t.Errorf("status = %v, want validated", m.Status)
	}
}

func TestValidateReportsKeepOutViolation(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())

	err := f.repo.Geofences().Create(&model.Geofence{
		Name: "Zone-A",
		Kind: model.GeofenceKeepOut,
		Polygon: []model.Position{
			{Lat: 37.615, Lon: -122.385},
			{Lat: 37.615, Lon: -122.365},
			{Lat: 37.635, Lon: -122.365},
			{Lat: 37.635, Lon: -122.385},
		},
		Priority:    10,
		MaxAltitude: 10000,
		Active:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	verdict, err := f.engine.Validate(context.Background(), "M001", "V001")
	if !core.IsKind(err, core.ErrorKindValidation) {
		t.Fatalf("error = %v, want validation kind", err)
	}
	if verdict.Clear || verdict.Violation == nil {
		t.Fatal("expected hard violation in verdict")
	}
	if verdict.Violation.Zone != "Zone-A" {
		t.Errorf("violation zone = %q, want Zone-A", verdict.Violation.Zone)
	}

	m, _ := f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusCreated {
		t.Errorf("status = %v, want created after failed validation", m.Status)
	}
}

func TestValidateRejectsBusyVehicle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	flying := model.VehicleStatusFlying
	if _, err := f.repo.Vehicles().Patch("V001", &model.VehiclePatch{Status: &flying}); err != nil {
		t.Fatal(err)
	}
	f.addMission(t, "M001", shortPath())

	_, err := f.engine.Validate(context.Background(), "M001", "V001")
	if !core.IsKind(err, core.ErrorKindInvalidState) {
		t.Fatalf("error = %v, want invalid-state kind", err)
	}
}

func TestValidateRejectsAltitudeAboveCeiling(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	path := shortPath()
	path[2].Alt = 2000 // multi-rotor ceiling is 400m
	f.addMission(t, "M001", path)

	_, err := f.engine.Validate(context.Background(), "M001", "V001")
	if !core.IsKind(err, core.ErrorKindValidation) {
		t.Fatalf("error = %v, want validation kind", err)
	}
}

func TestValidateRejectsInsufficientBattery(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 1)
	f.addMission(t, "M001", shortPath())

	_, err := f.engine.Validate(context.Background(), "M001", "V001")
	if !core.IsKind(err, core.ErrorKindValidation) {
		t.Fatalf("error = %v, want validation kind", err)
	}
}

func TestExecuteFullTransition(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())

	m, err := f.engine.Execute(context.Background(), "M001", "V001")
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != model.MissionStatusActive {
		t.Errorf("mission status = %v, want active", m.Status)
	}
	if m.VehicleID != "V001" {
		t.Errorf("mission vehicle = %q, want V001", m.VehicleID)
	}
	if m.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	v, _ := f.repo.Vehicles().Get("V001")
	if v.Status != model.VehicleStatusFlying {
		t.Errorf("vehicle status = %v, want flying", v.Status)
	}
	if v.MissionID != "M001" {
		t.Errorf("vehicle mission = %q, want M001", v.MissionID)
	}

	if len(f.notifier.executes) != 1 || f.notifier.executes[0] != "V001:M001" {
		t.Errorf("notifier executes = %v, want [V001:M001]", f.notifier.executes)
	}
}

func TestExecuteTwiceRejected(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addVehicle(t, "V002", 95)
	f.addMission(t, "M001", shortPath())

	if _, err := f.engine.Execute(context.Background(), "M001", "V001"); err != nil {
		t.Fatal(err)
	}
	_, err := f.engine.Execute(context.Background(), "M001", "V002")
	if !core.IsKind(err, core.ErrorKindInvalidState) {
		t.Fatalf("second execute error = %v, want invalid-state kind", err)
	}

	v2, _ := f.repo.Vehicles().Get("V002")
	if v2.Status != model.VehicleStatusIdle || v2.MissionID != "" {
		t.Errorf("second vehicle touched by rejected execute: %+v", v2)
	}
}

func TestExecuteRejectsAssignedVehicle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	f.addMission(t, "M002", shortPath())

	if _, err := f.engine.Execute(context.Background(), "M001", "V001"); err != nil {
		t.Fatal(err)
	}
	_, err := f.engine.Execute(context.Background(), "M002", "V001")
	if !core.IsKind(err, core.ErrorKindInvalidState) {
		t.Fatalf("error = %v, want invalid-state for busy vehicle", err)
	}
}

func TestWaypointProgressAndCompletion(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	if _, err := f.engine.Execute(context.Background(), "M001", "V001"); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := f.engine.HandleWaypointReached(ctx, "M001", i); err != nil {
			t.Fatalf("waypoint %d: %v", i, err)
		}
	}

	m, _ := f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusCompleted {
		t.Fatalf("status = %v, want completed", m.Status)
	}
	if m.Progress.Reached != 4 {
		t.Errorf("reached = %d, want 4", m.Progress.Reached)
	}
	if m.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	v, _ := f.repo.Vehicles().Get("V001")
	if v.Status != model.VehicleStatusReturning {
		t.Errorf("vehicle status = %v, want returning after completion", v.Status)
	}
	if v.MissionID != "" {
		t.Errorf("vehicle still assigned: %q", v.MissionID)
	}

	// Redelivery after completion is a no-op.
	if err := f.engine.HandleWaypointReached(ctx, "M001", 2); err != nil {
		t.Fatal(err)
	}
	m, _ = f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusCompleted || m.Progress.Reached != 4 {
		t.Errorf("redelivery changed state: %+v", m)
	}
}

func TestWaypointDuplicateAndRegression(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	if _, err := f.engine.Execute(context.Background(), "M001", "V001"); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, idx := range []int{0, 1, 1, 0, 2} {
		if err := f.engine.HandleWaypointReached(ctx, "M001", idx); err != nil {
			t.Fatal(err)
		}
	}

	m, _ := f.repo.Missions().Get("M001")
	if m.Progress.Reached != 3 {
		t.Errorf("reached = %d, want 3 (duplicates and regressions absorbed)", m.Progress.Reached)
	}
	if m.Status != model.MissionStatusActive {
		t.Errorf("status = %v, want still active", m.Status)
	}
}

func TestAbortActiveMission(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	if _, err := f.engine.Execute(context.Background(), "M001", "V001"); err != nil {
		t.Fatal(err)
	}

	m, err := f.engine.Abort(context.Background(), "M001")
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != model.MissionStatusAborted {
		t.Errorf("status = %v, want aborted", m.Status)
	}

	v, _ := f.repo.Vehicles().Get("V001")
	if v.Status != model.VehicleStatusReturning {
		t.Errorf("vehicle status = %v, want returning for mid-flight abort", v.Status)
	}
	if v.MissionID != "" {
		t.Errorf("assignment not released: %q", v.MissionID)
	}
	// The terminal mission keeps its vehicle as flight history.
	if m.VehicleID != "V001" {
		t.Errorf("mission vehicle = %q, want V001 retained on aborted mission", m.VehicleID)
	}
	if len(f.notifier.aborts) != 1 {
		t.Errorf("notifier aborts = %v, want one", f.notifier.aborts)
	}
}

func TestAbortCreatedMissionRejected(t *testing.T) {
	f := newFixture(t)
	f.addMission(t, "M001", shortPath())

	_, err := f.engine.Abort(context.Background(), "M001")
	if !core.IsKind(err, core.ErrorKindInvalidState) {
		t.Fatalf("error = %v, want invalid-state kind", err)
	}
	m, _ := f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusCreated {
		t.Errorf("status = %v, want created untouched", m.Status)
	}
}

func TestExecuteCompletedMissionRejected(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	ctx := context.Background()
	if _, err := f.engine.Execute(ctx, "M001", "V001"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := f.engine.HandleWaypointReached(ctx, "M001", i); err != nil {
			t.Fatal(err)
		}
	}

	f.addVehicle(t, "V002", 95)
	_, err := f.engine.Execute(ctx, "M001", "V002")
	if !core.IsKind(err, core.ErrorKindInvalidState) {
		t.Fatalf("error = %v, want invalid-state kind", err)
	}
}

func TestVehicleErrorFailsMission(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)
	f.addMission(t, "M001", shortPath())
	ctx := context.Background()
	if _, err := f.engine.Execute(ctx, "M001", "V001"); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.HandleVehicleError(ctx, "V001", "link lost"); err != nil {
		t.Fatal(err)
	}

	m, _ := f.repo.Missions().Get("M001")
	if m.Status != model.MissionStatusFailed {
		t.Errorf("mission status = %v, want failed", m.Status)
	}
	if m.VehicleID != "V001" {
		t.Errorf("mission vehicle = %q, want V001 retained on failed mission", m.VehicleID)
	}
	v, _ := f.repo.Vehicles().Get("V001")
	if v.Status != model.VehicleStatusFailed {
		t.Errorf("vehicle status = %v, want failed", v.Status)
	}
	if v.MissionID != "" {
		t.Errorf("assignment not released: %q", v.MissionID)
	}
}

func TestVehicleErrorWithoutMission(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "V001", 95)

	if err := f.engine.HandleVehicleError(context.Background(), "V001", "compass failure"); err != nil {
		t.Fatal(err)
	}
	v, _ := f.repo.Vehicles().Get("V001")
	if v.Status != model.VehicleStatusFailed {
		t.Errorf("vehicle status = %v, want failed", v.Status)
	}
}
