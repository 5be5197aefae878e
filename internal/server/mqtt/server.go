// Package mqtt links the orchestrator to the vehicle-telemetry bridge:
// telemetry flows in over per-kind topics, command intents flow out on the
// per-vehicle command topic.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/groundctl/groundctl/internal/orchestrator"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/pkg/log"
	pkgmqtt "github.com/groundctl/groundctl/pkg/mqtt"
	"github.com/groundctl/groundctl/pkg/mqtt/topic"
)

// groupName is the shared-subscription group; multiple orchestrator
// replicas split the telemetry stream instead of each receiving a copy.
const groupName = "gcs-orchestrator"

const qos = 1

// Server subscribes to the telemetry topics and feeds decoded events into
// the orchestrator's ingestion queues.
type Server struct {
	client pkgmqtt.Client
	topics *topic.Builder
	orch   *orchestrator.Orchestrator
	logger log.Logger
}

func NewServer(client pkgmqtt.Client, builder *topic.Builder, orch *orchestrator.Orchestrator) *Server {
	return &Server{
		client: client,
		topics: builder,
		orch:   orch,
		logger: log.Std().WithName("mqtt"),
	}
}

// Start connects, waits for the broker, subscribes, and then blocks until
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	s.logger.Info("waiting for MQTT connection")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}
	s.logger.Info("MQTT connected")

	if err := s.subscribe(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// segmentKinds maps topic segments to the bridge event kinds they carry.
var segmentKinds = map[string]model.EventKind{
	topic.SegHeartbeat: model.EventHeartbeat,
	topic.SegPosition:  model.EventPositionUpdate,
	topic.SegWaypoint:  model.EventWaypointReached,
	topic.SegArmed:     model.EventArmed,
	topic.SegDisarmed:  model.EventDisarmed,
	topic.SegError:     model.EventVehicleError,
}

func (s *Server) subscribe(ctx context.Context) error {
	for segment, kind := range segmentKinds {
		filter := s.topics.Shared(groupName).BuildWildcard(segment)
		eventKind := kind
		err := s.client.Subscribe(ctx, filter, qos, func(_ context.Context, msgTopic string, payload []byte) {
			s.handleTelemetry(eventKind, msgTopic, payload)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", filter, err)
		}
	}
	return nil
}

// handleTelemetry extracts the vehicle ID from the topic's last level and
// enqueues the event. Decoding of the payload happens on the vehicle's
// worker, not here, to keep the network callback cheap.
func (s *Server) handleTelemetry(kind model.EventKind, msgTopic string, payload []byte) {
	vehicleID := msgTopic[strings.LastIndex(msgTopic, "/")+1:]
	if vehicleID == "" {
		s.logger.Warn("telemetry without vehicle id", "topic", msgTopic)
		return
	}

	s.orch.Ingest(orchestrator.BridgeEvent{
		Kind:      kind,
		VehicleID: vehicleID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
