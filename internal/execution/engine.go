// Package execution drives the mission lifecycle. All status changes for
// missions and the vehicles flying them go through the Engine, which commits
// each transition atomically through the registry and reports command
// intents to the vehicle bridge.
package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/groundctl/groundctl/internal/geo"
	"github.com/groundctl/groundctl/internal/geofence"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/internal/pkg/metrics"
	"github.com/groundctl/groundctl/pkg/log"
)

// batteryMargin is the safety factor applied to the computed battery
// requirement during validation.
const batteryMargin = 1.2

// Engine executes mission lifecycle operations against the registry.
type Engine struct {
	repo     core.Repository
	fences   *geofence.Engine
	notifier core.CommandNotifier
	recorder core.EventRecorder
	logger   log.Logger

	// assignMu makes the vehicle-assignment check-and-set atomic across
	// missions, so two Execute calls cannot claim the same vehicle.
	assignMu sync.Mutex
}

func NewEngine(repo core.Repository, fences *geofence.Engine, notifier core.CommandNotifier, recorder core.EventRecorder, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.Std()
	}
	return &Engine{
		repo:     repo,
		fences:   fences,
		notifier: notifier,
		recorder: recorder,
		logger:   logger.WithName("execution"),
	}
}

// transitionPayload is the audit record attached to mission-transition
// events.
type transitionPayload struct {
	From      model.MissionStatus `json:"from"`
	To        model.MissionStatus `json:"to"`
	VehicleID string              `json:"vehicleID,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// fire runs one fsm event against the mission's current status and commits
// the destination status onto m. fsm rejections map to invalid-state errors.
func (e *Engine) fire(ctx context.Context, m *model.Mission, event string) error {
	machine := newMissionFSM(m.Status, func(ctx context.Context, ev *fsm.Event) error {
		e.logger.Debug("mission transition", "mission", m.ID, "from", ev.Src, "to", ev.Dst)
		return nil
	})
	if err := machine.Event(ctx, event); err != nil {
		return core.NewInvalidState("mission", m.ID,
			fmt.Sprintf("cannot %s from status %s", strings.TrimPrefix(event, "event_"), m.Status))
	}
	m.Status = machine.Status()
	return nil
}

func (e *Engine) recordTransition(m *model.Mission, from model.MissionStatus, reason string) {
	metrics.MissionTransitions.WithLabelValues(string(m.Status)).Inc()
	if e.recorder != nil {
		e.recorder.Record(model.EventMissionTransition, m.ID, transitionPayload{
			From:      from,
			To:        m.Status,
			VehicleID: m.VehicleID,
			Reason:    reason,
		})
	}
}

// Validate runs the pre-flight checks for flying the mission with the given
// vehicle: the vehicle must exist and be idle, every waypoint must sit
// inside the vehicle's flight envelope, the battery must cover the full
// path with margin, and the path plus the transit segment from the
// vehicle's current position must clear the active geofences.
//
// On success the mission moves to validated. On a hard geofence violation
// the mission stays in its current status and the returned verdict names
// the offending zone.
func (e *Engine) Validate(ctx context.Context, missionID, vehicleID string) (geofence.Verdict, error) {
	mission, err := e.repo.Missions().Get(missionID)
	if err != nil {
		return geofence.Verdict{}, err
	}
	switch mission.Status {
	case model.MissionStatusCreated, model.MissionStatusValidated:
	default:
		return geofence.Verdict{}, core.NewInvalidState("mission", missionID,
			fmt.Sprintf("cannot validate from status %s", mission.Status))
	}

	vehicle, err := e.repo.Vehicles().Get(vehicleID)
	if err != nil {
		return geofence.Verdict{}, err
	}
	if vehicle.Status != model.VehicleStatusIdle {
		return geofence.Verdict{}, core.NewInvalidState("vehicle", vehicleID,
			fmt.Sprintf("vehicle is %s, not idle", vehicle.Status))
	}

	if err := e.checkEnvelope(mission, vehicle); err != nil {
		return geofence.Verdict{}, err
	}

	verdict := e.checkGeofences(vehicle, mission)
	if !verdict.Clear {
		metrics.GeofenceViolations.WithLabelValues(verdict.Violation.Zone).Inc()
		if e.recorder != nil {
			e.recorder.Record(model.EventGeofenceViolation, missionID, verdict.Violation)
		}
		e.logger.Warn("mission validation failed on geofence",
			"mission", missionID, "vehicle", vehicleID, "zone", verdict.Violation.Zone)
		return verdict, core.NewValidation("mission", missionID,
			fmt.Sprintf("geofence violation: %s (%s)", verdict.Violation.Zone, verdict.Violation.Reason))
	}

	if mission.Status == model.MissionStatusCreated {
		updated, err := e.repo.Missions().Mutate(missionID, func(m *model.Mission) error {
			return e.fire(ctx, m, EventValidate)
		})
		if err != nil {
			return verdict, err
		}
		e.recordTransition(updated, model.MissionStatusCreated, "validation passed")
	}

	e.logger.Info("mission validated", "mission", missionID, "vehicle", vehicleID,
		"advisories", len(verdict.Advisories))
	return verdict, nil
}

// checkEnvelope verifies altitude ceiling and battery range margin.
func (e *Engine) checkEnvelope(mission *model.Mission, vehicle *model.Vehicle) error {
	for _, wp := range mission.Waypoints {
		if wp.Alt > vehicle.Capabilities.MaxAltitude {
			return core.NewValidation("mission", mission.ID,
				fmt.Sprintf("waypoint %d altitude %.0fm exceeds vehicle ceiling %.0fm",
					wp.Seq, wp.Alt, vehicle.Capabilities.MaxAltitude))
		}
	}

	if vehicle.Capabilities.MaxRange <= 0 {
		return core.NewValidation("vehicle", vehicle.ID, "vehicle has no usable range")
	}
	distance := geo.PathLength(mission.Waypoints)
	if len(mission.Waypoints) > 0 {
		distance += geo.Distance3D(vehicle.Position, mission.Waypoints[0].Position)
	}
	required := distance / vehicle.Capabilities.MaxRange * 100 * batteryMargin
	if vehicle.Battery < required {
		return core.NewValidation("mission", mission.ID,
			fmt.Sprintf("insufficient battery: %.1f%% available, %.1f%% required", vehicle.Battery, required))
	}
	return nil
}

// checkGeofences clears the transit segment first, then the mission path.
func (e *Engine) checkGeofences(vehicle *model.Vehicle, mission *model.Mission) geofence.Verdict {
	if len(mission.Waypoints) == 0 {
		return geofence.Verdict{Clear: true}
	}

	transit := e.fences.CheckTransit(vehicle.Position, mission.Waypoints[0])
	if !transit.Clear {
		return transit
	}

	path := e.fences.CheckPath(mission.Waypoints)
	path.Advisories = append(transit.Advisories, path.Advisories...)
	return path
}

// Execute assigns the mission to the vehicle and starts it: mission moves
// through assigned to active, the vehicle through armed to flying, and the
// start command is published to the bridge. A created mission is validated
// implicitly first. The whole check-and-assign runs under the assignment
// lock so a vehicle can never be claimed by two missions.
func (e *Engine) Execute(ctx context.Context, missionID, vehicleID string) (*model.Mission, error) {
	e.assignMu.Lock()
	defer e.assignMu.Unlock()

	mission, err := e.repo.Missions().Get(missionID)
	if err != nil {
		return nil, err
	}

	if mission.Status == model.MissionStatusCreated {
		if _, err := e.Validate(ctx, missionID, vehicleID); err != nil {
			return nil, err
		}
		mission, err = e.repo.Missions().Get(missionID)
		if err != nil {
			return nil, err
		}
	}
	if mission.Status != model.MissionStatusValidated {
		return nil, core.NewInvalidState("mission", missionID,
			fmt.Sprintf("cannot execute from status %s", mission.Status))
	}

	// Claim the vehicle.
	_, err = e.repo.Vehicles().Mutate(vehicleID, func(v *model.Vehicle) error {
		if v.Status != model.VehicleStatusIdle {
			return core.NewInvalidState("vehicle", vehicleID,
				fmt.Sprintf("vehicle is %s, not idle", v.Status))
		}
		if v.MissionID != "" && v.MissionID != missionID {
			return core.NewInvalidState("vehicle", vehicleID,
				fmt.Sprintf("vehicle already assigned to mission %s", v.MissionID))
		}
		v.Status = model.VehicleStatusArmed
		v.MissionID = missionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	mission, err = e.repo.Missions().Mutate(missionID, func(m *model.Mission) error {
		if err := e.fire(ctx, m, EventAssign); err != nil {
			return err
		}
		m.VehicleID = vehicleID
		if err := e.fire(ctx, m, EventActivate); err != nil {
			return err
		}
		m.StartedAt = &now
		return nil
	})
	if err != nil {
		// Release the claim taken above; the mission was validated so the
		// transitions only fail on a concurrent status change.
		e.releaseVehicle(vehicleID, model.VehicleStatusIdle)
		return nil, err
	}
	e.recordTransition(mission, model.MissionStatusValidated, "execute")

	_, err = e.repo.Vehicles().Patch(vehicleID, &model.VehiclePatch{Status: statusPtr(model.VehicleStatusFlying)})
	if err != nil {
		return nil, err
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyExecute(ctx, vehicleID, missionID); err != nil {
			// Intent delivery is at-least-once through the bridge; the
			// committed state stands and the operator sees the warning.
			e.logger.Warn("execute command publish failed",
				"mission", missionID, "vehicle", vehicleID, "err", err)
		}
	}

	e.logger.Info("mission executing", "mission", missionID, "vehicle", vehicleID,
		"waypoints", mission.Progress.Total)
	metrics.ActiveMissions.Inc()
	return mission, nil
}

// Abort cancels an assigned or active mission and releases its vehicle. A
// vehicle caught mid-flight is sent home (returning); one that never took
// off goes straight back to idle.
func (e *Engine) Abort(ctx context.Context, missionID string) (*model.Mission, error) {
	var wasActive bool
	mission, err := e.repo.Missions().Mutate(missionID, func(m *model.Mission) error {
		wasActive = m.Status == model.MissionStatusActive
		return e.fire(ctx, m, EventAbort)
	})
	if err != nil {
		return nil, err
	}
	e.recordTransition(mission, statusBefore(wasActive), "abort requested")
	if wasActive {
		metrics.ActiveMissions.Dec()
	}

	if mission.VehicleID != "" {
		next := model.VehicleStatusIdle
		if wasActive {
			next = model.VehicleStatusReturning
		}
		e.releaseVehicle(mission.VehicleID, next)

		if e.notifier != nil {
			if err := e.notifier.NotifyAbort(ctx, mission.VehicleID, missionID); err != nil {
				e.logger.Warn("abort command publish failed",
					"mission", missionID, "vehicle", mission.VehicleID, "err", err)
			}
		}
	}

	e.logger.Info("mission aborted", "mission", missionID, "vehicle", mission.VehicleID)
	return mission, nil
}

// HandleWaypointReached advances mission progress for a waypoint-reached
// telemetry event. Progress is monotonic: duplicate or out-of-order indexes
// are absorbed without error. Processing the final index completes the
// mission and releases the vehicle.
func (e *Engine) HandleWaypointReached(ctx context.Context, missionID string, index int) error {
	var completed bool
	mission, err := e.repo.Missions().Mutate(missionID, func(m *model.Mission) error {
		if m.Status != model.MissionStatusActive {
			// Late delivery after completion or abort is expected from an
			// at-least-once bridge.
			e.logger.Debug("waypoint event for non-active mission ignored",
				"mission", missionID, "status", m.Status, "index", index)
			return nil
		}
		if index < 0 || index >= m.Progress.Total {
			e.logger.Warn("waypoint index out of range ignored",
				"mission", missionID, "index", index, "total", m.Progress.Total)
			return nil
		}
		if index+1 <= m.Progress.Reached {
			e.logger.Debug("duplicate waypoint event ignored",
				"mission", missionID, "index", index, "reached", m.Progress.Reached)
			return nil
		}

		m.Progress.Reached = index + 1
		if m.Progress.Reached == m.Progress.Total {
			if err := e.fire(ctx, m, EventComplete); err != nil {
				return err
			}
			now := time.Now()
			m.CompletedAt = &now
			completed = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if completed {
		e.recordTransition(mission, model.MissionStatusActive, "final waypoint reached")
		metrics.ActiveMissions.Dec()
		if mission.VehicleID != "" {
			e.releaseVehicle(mission.VehicleID, model.VehicleStatusReturning)
		}
		e.logger.Info("mission completed", "mission", missionID, "vehicle", mission.VehicleID)
	}
	return nil
}

// HandleVehicleError reacts to an unrecoverable vehicle-reported error:
// the vehicle is marked failed and its mission, if any, fails with it.
func (e *Engine) HandleVehicleError(ctx context.Context, vehicleID, reason string) error {
	var missionID string
	_, err := e.repo.Vehicles().Mutate(vehicleID, func(v *model.Vehicle) error {
		missionID = v.MissionID
		v.Status = model.VehicleStatusFailed
		v.MissionID = ""
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Warn("vehicle reported error", "vehicle", vehicleID, "reason", reason, "mission", missionID)

	if missionID == "" {
		return nil
	}

	var wasActive, failed bool
	mission, err := e.repo.Missions().Mutate(missionID, func(m *model.Mission) error {
		if m.Status.Terminal() {
			return nil
		}
		wasActive = m.Status == model.MissionStatusActive
		if err := e.fire(ctx, m, EventFail); err != nil {
			return err
		}
		failed = true
		return nil
	})
	if err != nil {
		return err
	}
	if failed {
		e.recordTransition(mission, statusBefore(wasActive), reason)
		if wasActive {
			metrics.ActiveMissions.Dec()
		}
	}
	return nil
}

// releaseVehicle clears the assignment and moves the vehicle to next. Best
// effort: the vehicle may have been removed or already failed.
func (e *Engine) releaseVehicle(vehicleID string, next model.VehicleStatus) {
	_, err := e.repo.Vehicles().Mutate(vehicleID, func(v *model.Vehicle) error {
		v.MissionID = ""
		if v.Status != model.VehicleStatusFailed {
			v.Status = next
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("vehicle release failed", "vehicle", vehicleID, "err", err)
	}
}

func statusPtr(s model.VehicleStatus) *model.VehicleStatus { return &s }

func statusBefore(wasActive bool) model.MissionStatus {
	if wasActive {
		return model.MissionStatusActive
	}
	return model.MissionStatusAssigned
}
