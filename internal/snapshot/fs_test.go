package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	snap := Snapshot{
		TakenAt: time.Now().UTC().Truncate(time.Second),
		Vehicles: []*model.Vehicle{
			{ID: "V001", Type: model.VehicleTypeMultiRotor, Status: model.VehicleStatusIdle, Battery: 88},
		},
		Missions: []*model.Mission{
			{ID: "M001", Type: model.MissionTypeCorridor, Status: model.MissionStatusCompleted},
		},
		Geofences: []*model.Geofence{
			{Name: "zone-a", Kind: model.GeofenceKeepOut, Polygon: []model.Position{{}, {Lat: 1}, {Lon: 1}}, Active: true},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("load returned nil after save")
	}
	if len(got.Vehicles) != 1 || got.Vehicles[0].ID != "V001" || got.Vehicles[0].Battery != 88 {
		t.Errorf("vehicles = %+v", got.Vehicles)
	}
	if len(got.Missions) != 1 || got.Missions[0].Status != model.MissionStatusCompleted {
		t.Errorf("missions = %+v", got.Missions)
	}
	if len(got.Geofences) != 1 || !got.Geofences[0].Active {
		t.Errorf("geofences = %+v", got.Geofences)
	}
	if !got.TakenAt.Equal(snap.TakenAt) {
		t.Errorf("takenAt = %v, want %v", got.TakenAt, snap.TakenAt)
	}
}

func TestFSStoreLoadEmpty(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("load from empty dir = %+v, want nil", got)
	}
}

func TestFSStoreOverwrite(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, Snapshot{Vehicles: []*model.Vehicle{{ID: "V001"}}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, Snapshot{Vehicles: []*model.Vehicle{{ID: "V002"}}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Vehicles) != 1 || got.Vehicles[0].ID != "V002" {
		t.Errorf("vehicles = %+v, want only V002", got.Vehicles)
	}
}
