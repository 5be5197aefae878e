// Package orchestrator is the mission-control core: it owns the entity
// registry, plans missions, enforces geofences, drives mission execution,
// and absorbs telemetry from the vehicle bridge. External surfaces (HTTP,
// MQTT, CLI) are thin layers over this package.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groundctl/groundctl/internal/execution"
	"github.com/groundctl/groundctl/internal/geo"
	"github.com/groundctl/groundctl/internal/geofence"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/internal/pkg/metrics"
	"github.com/groundctl/groundctl/internal/planner"
	"github.com/groundctl/groundctl/internal/snapshot"
	"github.com/groundctl/groundctl/pkg/log"
)

// Config carries the orchestrator's tunables.
type Config struct {
	// EventLogCapacity bounds the in-memory event log.
	EventLogCapacity int

	// SnapshotInterval is the period of the snapshot loop; zero disables
	// it even when a store is configured.
	SnapshotInterval time.Duration
}

// Orchestrator wires the registry, geofence engine, planner, and execution
// engine together and owns the event log and telemetry dispatch.
type Orchestrator struct {
	repo     core.Repository
	fences   *geofence.Engine
	engine   *execution.Engine
	events   *eventLog
	store    snapshot.Store
	logger   log.Logger
	dispatch *dispatcher

	cfg     Config
	started time.Time
}

// New assembles an orchestrator. notifier and store may be nil (command
// delivery and snapshots are then disabled).
func New(cfg Config, repo core.Repository, notifier core.CommandNotifier, store snapshot.Store, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Std()
	}
	logger = logger.WithName("orchestrator")

	if cfg.EventLogCapacity <= 0 {
		cfg.EventLogCapacity = 1000
	}

	events := newEventLog(cfg.EventLogCapacity)
	fences := geofence.NewEngine(repo.Geofences())
	engine := execution.NewEngine(repo, fences, notifier, events, logger)

	o := &Orchestrator{
		repo:    repo,
		fences:  fences,
		engine:  engine,
		events:  events,
		store:   store,
		logger:  logger,
		cfg:     cfg,
		started: time.Now(),
	}
	o.dispatch = newDispatcher(o, logger)
	return o
}

// Repository exposes the entity store for read paths (snapshot, zone load).
func (o *Orchestrator) Repository() core.Repository { return o.repo }

// Run blocks until ctx is canceled, servicing the telemetry dispatcher and,
// when configured, the periodic snapshot loop. A final snapshot is taken on
// shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.dispatch.close()

	if o.store == nil || o.cfg.SnapshotInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(o.cfg.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := o.Snapshot(saveCtx); err != nil {
				o.logger.Error(err, "final snapshot failed")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := o.Snapshot(ctx); err != nil {
				o.logger.Error(err, "periodic snapshot failed")
			}
		}
	}
}

func newID(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

// RegisterVehicle adds a vehicle to the fleet. Capabilities default from
// the airframe type when zero.
func (o *Orchestrator) RegisterVehicle(v *model.Vehicle) (*model.Vehicle, error) {
	if v.ID == "" {
		return nil, core.NewValidation("vehicle", "", "id is required")
	}
	if !model.ValidVehicleType(v.Type) {
		return nil, core.NewValidation("vehicle", v.ID, fmt.Sprintf("unknown vehicle type %q", v.Type))
	}
	if v.Battery < 0 || v.Battery > 100 {
		return nil, core.NewValidation("vehicle", v.ID, "battery must be in [0,100]")
	}

	if v.Status == "" {
		v.Status = model.VehicleStatusIdle
	}
	if !model.ValidVehicleStatus(v.Status) {
		return nil, core.NewValidation("vehicle", v.ID, fmt.Sprintf("unknown vehicle status %q", v.Status))
	}
	if (v.Capabilities == model.Capabilities{}) {
		v.Capabilities = model.DefaultCapabilities(v.Type)
	}
	v.LastSeen = time.Now()

	if err := o.repo.Vehicles().Create(v); err != nil {
		return nil, err
	}
	o.events.Record(model.EventVehicleRegistered, v.ID, v)
	o.logger.Info("vehicle registered", "vehicle", v.ID, "type", v.Type)
	return o.repo.Vehicles().Get(v.ID)
}

// UpdateVehicle applies a partial update.
func (o *Orchestrator) UpdateVehicle(id string, patch *model.VehiclePatch) (*model.Vehicle, error) {
	if patch.Battery != nil && (*patch.Battery < 0 || *patch.Battery > 100) {
		return nil, core.NewValidation("vehicle", id, "battery must be in [0,100]")
	}
	if patch.Status != nil && !model.ValidVehicleStatus(*patch.Status) {
		return nil, core.NewValidation("vehicle", id, fmt.Sprintf("unknown vehicle status %q", *patch.Status))
	}
	return o.repo.Vehicles().Patch(id, patch)
}

func (o *Orchestrator) GetVehicle(id string) (*model.Vehicle, error) { return o.repo.Vehicles().Get(id) }
func (o *Orchestrator) ListVehicles() []*model.Vehicle               { return o.repo.Vehicles().List() }

// CreateMission plans the mission's waypoints and stores it. The name is
// optional; the ID is generated.
func (o *Orchestrator) CreateMission(name string, missionType model.MissionType, params model.MissionParams) (*model.Mission, error) {
	waypoints, err := planner.Plan(missionType, params)
	if err != nil {
		return nil, err
	}

	distance := geo.PathLength(waypoints)
	m := &model.Mission{
		ID:        newID("M"),
		Name:      name,
		Type:      missionType,
		Status:    model.MissionStatusCreated,
		Params:    params,
		Waypoints: waypoints,
		Progress:  model.Progress{Total: len(waypoints)},
		Stats: model.Stats{
			Distance: distance,
			Duration: estimateDuration(distance),
		},
		CreatedAt: time.Now(),
	}
	if m.Name == "" {
		m.Name = string(missionType) + " " + m.ID
	}

	if err := o.repo.Missions().Create(m); err != nil {
		return nil, err
	}
	o.events.Record(model.EventMissionCreated, m.ID, m)
	o.logger.Info("mission created", "mission", m.ID, "type", missionType,
		"waypoints", len(waypoints), "distance", distance)
	return m, nil
}

// nominalCruiseSpeed is used for flight-time estimates before a vehicle is
// assigned.
const nominalCruiseSpeed = 10.0

func estimateDuration(distance float64) time.Duration {
	return time.Duration(distance / nominalCruiseSpeed * float64(time.Second))
}

func (o *Orchestrator) GetMission(id string) (*model.Mission, error) { return o.repo.Missions().Get(id) }
func (o *Orchestrator) ListMissions() []*model.Mission               { return o.repo.Missions().List() }

// ValidateMission runs pre-flight checks; see execution.Engine.Validate.
func (o *Orchestrator) ValidateMission(ctx context.Context, missionID, vehicleID string) (geofence.Verdict, error) {
	return o.engine.Validate(ctx, missionID, vehicleID)
}

// ExecuteMission starts a mission on a vehicle.
func (o *Orchestrator) ExecuteMission(ctx context.Context, missionID, vehicleID string) (*model.Mission, error) {
	return o.engine.Execute(ctx, missionID, vehicleID)
}

// AbortMission cancels an assigned or active mission.
func (o *Orchestrator) AbortMission(ctx context.Context, missionID string) (*model.Mission, error) {
	return o.engine.Abort(ctx, missionID)
}

// CreateGeofence validates and stores a zone.
func (o *Orchestrator) CreateGeofence(z *model.Geofence) (*model.Geofence, error) {
	if err := validateZone(z); err != nil {
		return nil, err
	}
	if err := o.repo.Geofences().Create(z); err != nil {
		return nil, err
	}
	o.events.Record(model.EventGeofenceCreated, z.Name, z)
	o.logger.Info("geofence created", "zone", z.Name, "kind", z.Kind, "priority", z.Priority)
	return o.repo.Geofences().Get(z.Name)
}

// ReplaceGeofence swaps a zone definition in place, used by the zone file
// reloader.
func (o *Orchestrator) ReplaceGeofence(z *model.Geofence) error {
	if err := validateZone(z); err != nil {
		return err
	}
	return o.repo.Geofences().Replace(z)
}

func (o *Orchestrator) GetGeofence(name string) (*model.Geofence, error) {
	return o.repo.Geofences().Get(name)
}
func (o *Orchestrator) ListGeofences() []*model.Geofence { return o.repo.Geofences().List() }

// SetGeofenceActive toggles a zone's participation in checks.
func (o *Orchestrator) SetGeofenceActive(name string, active bool) (*model.Geofence, error) {
	return o.repo.Geofences().SetActive(name, active)
}

func validateZone(z *model.Geofence) error {
	if z.Name == "" {
		return core.NewValidation("geofence", "", "name is required")
	}
	if !model.ValidGeofenceKind(z.Kind) {
		return core.NewValidation("geofence", z.Name, fmt.Sprintf("unknown zone kind %q", z.Kind))
	}
	if len(z.Polygon) < 3 {
		return core.NewValidation("geofence", z.Name, "polygon needs at least 3 vertices")
	}
	if z.MaxAltitude <= z.MinAltitude {
		return core.NewValidation("geofence", z.Name, "altitude band width must be positive")
	}
	for i, p := range z.Polygon {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return core.NewValidation("geofence", z.Name, fmt.Sprintf("vertex %d outside WGS84 bounds", i))
		}
	}
	return nil
}

// CreateWorkflow groups existing missions under one handle. Every
// referenced mission must exist.
func (o *Orchestrator) CreateWorkflow(name string, missionIDs []string) (*model.Workflow, error) {
	if len(missionIDs) == 0 {
		return nil, core.NewValidation("workflow", "", "at least one mission is required")
	}
	for _, id := range missionIDs {
		if _, err := o.repo.Missions().Get(id); err != nil {
			return nil, err
		}
	}

	w := &model.Workflow{
		ID:         newID("W"),
		Name:       name,
		MissionIDs: missionIDs,
		CreatedAt:  time.Now(),
	}
	if err := o.repo.Workflows().Create(w); err != nil {
		return nil, err
	}
	o.logger.Info("workflow created", "workflow", w.ID, "missions", len(missionIDs))
	return w, nil
}

// GetWorkflow returns the workflow with its status derived from the member
// missions' current states.
func (o *Orchestrator) GetWorkflow(id string) (*model.Workflow, model.WorkflowStatus, error) {
	w, err := o.repo.Workflows().Get(id)
	if err != nil {
		return nil, "", err
	}
	return w, o.workflowStatus(w), nil
}

func (o *Orchestrator) ListWorkflows() []*model.Workflow { return o.repo.Workflows().List() }

func (o *Orchestrator) workflowStatus(w *model.Workflow) model.WorkflowStatus {
	statuses := make([]model.MissionStatus, 0, len(w.MissionIDs))
	for _, id := range w.MissionIDs {
		if m, err := o.repo.Missions().Get(id); err == nil {
			statuses = append(statuses, m.Status)
		}
	}
	return model.DeriveWorkflowStatus(statuses)
}

// Status is a point-in-time summary computed from current state, never
// cached.
type Status struct {
	Uptime          time.Duration               `json:"uptime"`
	Vehicles        map[model.VehicleStatus]int `json:"vehicles"`
	Missions        map[model.MissionStatus]int `json:"missions"`
	Geofences       int                         `json:"geofences"`
	ActiveGeofences int                         `json:"activeGeofences"`
	Workflows       int                         `json:"workflows"`
	EventsProcessed uint64                      `json:"eventsProcessed"`
}

func (o *Orchestrator) Status() Status {
	s := Status{
		Uptime:   time.Since(o.started).Round(time.Second),
		Vehicles: make(map[model.VehicleStatus]int),
		Missions: make(map[model.MissionStatus]int),
	}
	for _, v := range o.repo.Vehicles().List() {
		s.Vehicles[v.Status]++
	}
	for _, m := range o.repo.Missions().List() {
		s.Missions[m.Status]++
	}
	for _, z := range o.repo.Geofences().List() {
		s.Geofences++
		if z.Active {
			s.ActiveGeofences++
		}
	}
	s.Workflows = len(o.repo.Workflows().List())
	s.EventsProcessed = o.events.Appended()
	return s
}

// RecentEvents returns up to limit of the newest log entries, oldest first.
func (o *Orchestrator) RecentEvents(limit int) []model.Event {
	return o.events.Recent(limit)
}

// FleetStats summarizes the registered fleet.
type FleetStats struct {
	Total          int                         `json:"total"`
	ByType         map[model.VehicleType]int   `json:"byType"`
	ByStatus       map[model.VehicleStatus]int `json:"byStatus"`
	AverageBattery float64                     `json:"averageBattery"`
	Available      int                         `json:"available"`
}

// Metrics computes fleet statistics from the registry at call time.
func (o *Orchestrator) Metrics() FleetStats {
	stats := FleetStats{
		ByType:   make(map[model.VehicleType]int),
		ByStatus: make(map[model.VehicleStatus]int),
	}
	var batterySum float64
	for _, v := range o.repo.Vehicles().List() {
		stats.Total++
		stats.ByType[v.Type]++
		stats.ByStatus[v.Status]++
		batterySum += v.Battery
		if v.Status == model.VehicleStatusIdle && v.MissionID == "" {
			stats.Available++
		}
	}
	if stats.Total > 0 {
		stats.AverageBattery = batterySum / float64(stats.Total)
	}

	for status, n := range stats.ByStatus {
		metrics.VehiclesByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
	return stats
}

// Snapshot dumps the entity tables to the configured store.
func (o *Orchestrator) Snapshot(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	snap := snapshot.Snapshot{
		TakenAt:   time.Now(),
		Vehicles:  o.repo.Vehicles().List(),
		Missions:  o.repo.Missions().List(),
		Geofences: o.repo.Geofences().List(),
		Workflows: o.repo.Workflows().List(),
	}
	if err := o.store.Save(ctx, snap); err != nil {
		return err
	}
	o.logger.Debug("snapshot saved", "vehicles", len(snap.Vehicles), "missions", len(snap.Missions))
	return nil
}

// Restore loads the latest snapshot, if any, into an empty registry. Called
// once at startup before any traffic.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	snap, err := o.store.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	for _, v := range snap.Vehicles {
		if err := o.repo.Vehicles().Create(v); err != nil {
			o.logger.Warn("snapshot vehicle skipped", "vehicle", v.ID, "err", err)
		}
	}
	for _, m := range snap.Missions {
		if err := o.repo.Missions().Create(m); err != nil {
			o.logger.Warn("snapshot mission skipped", "mission", m.ID, "err", err)
		}
	}
	for _, z := range snap.Geofences {
		if err := o.repo.Geofences().Create(z); err != nil {
			o.logger.Warn("snapshot geofence skipped", "zone", z.Name, "err", err)
		}
	}
	for _, w := range snap.Workflows {
		if err := o.repo.Workflows().Create(w); err != nil {
			o.logger.Warn("snapshot workflow skipped", "workflow", w.ID, "err", err)
		}
	}
	o.logger.Info("state restored from snapshot", "takenAt", snap.TakenAt,
		"vehicles", len(snap.Vehicles), "missions", len(snap.Missions))
	return nil
}
