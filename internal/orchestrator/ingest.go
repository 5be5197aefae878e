package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/internal/pkg/metrics"
	"github.com/groundctl/groundctl/pkg/log"
)

// BridgeEvent is one telemetry notification from the vehicle bridge.
type BridgeEvent struct {
	Kind      model.EventKind `json:"kind"`
	VehicleID string          `json:"vehicleID"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Telemetry payload shapes per event kind.
type (
	heartbeatPayload struct {
		Battery *float64 `json:"battery,omitempty"`
	}

	positionPayload struct {
		Lat     float64  `json:"lat"`
		Lon     float64  `json:"lon"`
		Alt     float64  `json:"alt"`
		Battery *float64 `json:"battery,omitempty"`
	}

	waypointPayload struct {
		MissionID string `json:"missionID"`
		Index     int    `json:"index"`
	}

	errorPayload struct {
		Reason string `json:"reason"`
	}
)

const queueDepth = 64

// dispatcher fans bridge events out to one queue and worker goroutine per
// vehicle: events for the same vehicle are processed in arrival order,
// different vehicles in parallel.
type dispatcher struct {
	o      *Orchestrator
	logger log.Logger

	mu     sync.Mutex
	queues map[string]chan BridgeEvent
	closed bool
	wg     sync.WaitGroup
}

func newDispatcher(o *Orchestrator, logger log.Logger) *dispatcher {
	return &dispatcher{
		o:      o,
		logger: logger.WithName("ingest"),
		queues: make(map[string]chan BridgeEvent),
	}
}

// Ingest enqueues a bridge event for its vehicle's worker. A full queue
// drops the event rather than blocking the bridge; drops are counted.
func (o *Orchestrator) Ingest(ev BridgeEvent) {
	o.dispatch.enqueue(ev)
}

func (d *dispatcher) enqueue(ev BridgeEvent) {
	if ev.VehicleID == "" {
		metrics.EventsDiscarded.WithLabelValues("no_vehicle").Inc()
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		metrics.EventsDiscarded.WithLabelValues("shutdown").Inc()
		return
	}
	q, ok := d.queues[ev.VehicleID]
	if !ok {
		// Workers exist only for registered vehicles; a bridge spraying
		// garbage IDs must not grow the goroutine count.
		if _, err := d.o.repo.Vehicles().Get(ev.VehicleID); err != nil {
			d.mu.Unlock()
			metrics.EventsDiscarded.WithLabelValues("unknown_vehicle").Inc()
			d.logger.Debug("event for unregistered vehicle dropped",
				"vehicle", ev.VehicleID, "kind", ev.Kind)
			return
		}
		q = make(chan BridgeEvent, queueDepth)
		d.queues[ev.VehicleID] = q
		d.wg.Add(1)
		go d.worker(q)
	}

	// The send must stay under the lock: close() closes the queues while
	// holding it, so an unlocked send could hit a closed channel.
	var full bool
	select {
	case q <- ev:
	default:
		full = true
	}
	d.mu.Unlock()

	if full {
		metrics.EventsDiscarded.WithLabelValues("queue_full").Inc()
		d.logger.Warn("telemetry queue full, event dropped",
			"vehicle", ev.VehicleID, "kind", ev.Kind)
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *dispatcher) worker(q <-chan BridgeEvent) {
	defer d.wg.Done()
	for ev := range q {
		d.handle(ev)
	}
}

func (d *dispatcher) handle(ev BridgeEvent) {
	ctx := context.Background()
	metrics.EventsIngested.WithLabelValues(string(ev.Kind)).Inc()
	d.o.events.Record(ev.Kind, ev.VehicleID, ev.Payload)

	var err error
	switch ev.Kind {
	case model.EventHeartbeat:
		err = d.handleHeartbeat(ev)
	case model.EventPositionUpdate:
		err = d.handlePosition(ev)
	case model.EventWaypointReached:
		err = d.handleWaypoint(ctx, ev)
	case model.EventArmed:
		err = d.setStatus(ev.VehicleID, model.VehicleStatusArmed)
	case model.EventDisarmed:
		err = d.setStatus(ev.VehicleID, model.VehicleStatusIdle)
	case model.EventVehicleError:
		err = d.handleError(ctx, ev)
	default:
		metrics.EventsDiscarded.WithLabelValues("unknown_kind").Inc()
		d.logger.Warn("unknown bridge event kind", "kind", ev.Kind, "vehicle", ev.VehicleID)
		return
	}
	if err != nil {
		// Telemetry anomalies are absorbed, never surfaced to the bridge.
		d.logger.Warn("bridge event failed", "kind", ev.Kind, "vehicle", ev.VehicleID, "err", err)
	}
}

func (d *dispatcher) handleHeartbeat(ev BridgeEvent) error {
	var p heartbeatPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
	}
	_, err := d.o.repo.Vehicles().Mutate(ev.VehicleID, func(v *model.Vehicle) error {
		v.LastSeen = ev.Timestamp
		if p.Battery != nil {
			v.Battery = *p.Battery
		}
		if v.Status == model.VehicleStatusOffline {
			v.Status = model.VehicleStatusIdle
		}
		return nil
	})
	return err
}

func (d *dispatcher) handlePosition(ev BridgeEvent) error {
	var p positionPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return err
	}
	_, err := d.o.repo.Vehicles().Mutate(ev.VehicleID, func(v *model.Vehicle) error {
		v.Position = model.Position{Lat: p.Lat, Lon: p.Lon, Alt: p.Alt}
		v.LastSeen = ev.Timestamp
		if p.Battery != nil {
			v.Battery = *p.Battery
		}
		return nil
	})
	return err
}

func (d *dispatcher) handleWaypoint(ctx context.Context, ev BridgeEvent) error {
	var p waypointPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return err
	}
	missionID := p.MissionID
	if missionID == "" {
		// Fall back to the vehicle's current assignment.
		v, err := d.o.repo.Vehicles().Get(ev.VehicleID)
		if err != nil {
			return err
		}
		missionID = v.MissionID
	}
	if missionID == "" {
		metrics.EventsDiscarded.WithLabelValues("no_mission").Inc()
		d.logger.Debug("waypoint event without mission", "vehicle", ev.VehicleID, "index", p.Index)
		return nil
	}
	return d.o.engine.HandleWaypointReached(ctx, missionID, p.Index)
}

func (d *dispatcher) setStatus(vehicleID string, status model.VehicleStatus) error {
	_, err := d.o.repo.Vehicles().Mutate(vehicleID, func(v *model.Vehicle) error {
		v.Status = status
		v.LastSeen = time.Now()
		if status == model.VehicleStatusIdle {
			v.MissionID = ""
		}
		return nil
	})
	return err
}

func (d *dispatcher) handleError(ctx context.Context, ev BridgeEvent) error {
	var p errorPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
	}
	if p.Reason == "" {
		p.Reason = "unspecified"
	}
	return d.o.engine.HandleVehicleError(ctx, ev.VehicleID, p.Reason)
}
