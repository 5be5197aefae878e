package execution

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	fsmutil "github.com/groundctl/groundctl/internal/pkg/util/fsm"
)

const (
	// EventValidate moves a planned mission through its pre-flight checks.
	EventValidate = "event_validate"
	// EventAssign binds a validated mission to a vehicle.
	EventAssign = "event_assign"
	// EventActivate starts an assigned mission.
	EventActivate = "event_activate"
	// EventComplete fires when the final waypoint is reached.
	EventComplete = "event_complete"
	// EventAbort cancels an assigned or active mission.
	EventAbort = "event_abort"
	// EventFail marks a mission failed on an unrecoverable vehicle error.
	EventFail = "event_fail"
)

// missionFSM enforces the mission lifecycle
// created -> validated -> assigned -> active -> completed|aborted|failed.
type missionFSM struct {
	*fsm.FSM
}

// newMissionFSM builds the machine positioned at the mission's current
// status. onEnter runs after every successful transition with the
// destination state committed.
func newMissionFSM(initial model.MissionStatus, onEnter func(ctx context.Context, e *fsm.Event) error) *missionFSM {
	f := &missionFSM{}

	events := fsm.Events{
		{Name: EventValidate, Src: []string{string(model.MissionStatusCreated)}, Dst: string(model.MissionStatusValidated)},
		{Name: EventAssign, Src: []string{string(model.MissionStatusValidated)}, Dst: string(model.MissionStatusAssigned)},
		{Name: EventActivate, Src: []string{string(model.MissionStatusAssigned)}, Dst: string(model.MissionStatusActive)},
		{Name: EventComplete, Src: []string{string(model.MissionStatusActive)}, Dst: string(model.MissionStatusCompleted)},

		{Name: EventAbort, Src: []string{string(model.MissionStatusAssigned), string(model.MissionStatusActive)}, Dst: string(model.MissionStatusAborted)},
		{Name: EventFail, Src: []string{string(model.MissionStatusAssigned), string(model.MissionStatusActive)}, Dst: string(model.MissionStatusFailed)},
	}

	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = fsmutil.WrapEvent(onEnter)
	}

	f.FSM = fsm.NewFSM(string(initial), events, callbacks)
	return f
}

// Status returns the machine's current state as a mission status.
func (f *missionFSM) Status() model.MissionStatus {
	return model.MissionStatus(f.Current())
}
