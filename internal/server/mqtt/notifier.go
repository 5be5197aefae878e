package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/pkg/log"
	pkgmqtt "github.com/groundctl/groundctl/pkg/mqtt"
	"github.com/groundctl/groundctl/pkg/mqtt/topic"
)

// Command names on the downstream topic.
const (
	commandExecute = "execute"
	commandAbort   = "abort"
)

// commandMessage is the downstream payload; the bridge acknowledges by
// emitting telemetry (armed, waypoint, disarmed) rather than a reply topic.
type commandMessage struct {
	Command   string `json:"command"`
	MissionID string `json:"missionID"`
}

// Notifier publishes command intents to the per-vehicle command topic.
// Delivery is cooperative: a nil return means the intent reached the
// broker, not that the vehicle acted on it.
type Notifier struct {
	client pkgmqtt.Client
	topics *topic.Builder
	logger log.Logger
}

var _ core.CommandNotifier = (*Notifier)(nil)

func NewNotifier(client pkgmqtt.Client, builder *topic.Builder) *Notifier {
	return &Notifier{
		client: client,
		topics: builder,
		logger: log.Std().WithName("notifier"),
	}
}

func (n *Notifier) NotifyExecute(ctx context.Context, vehicleID, missionID string) error {
	return n.publish(ctx, vehicleID, commandMessage{Command: commandExecute, MissionID: missionID})
}

func (n *Notifier) NotifyAbort(ctx context.Context, vehicleID, missionID string) error {
	return n.publish(ctx, vehicleID, commandMessage{Command: commandAbort, MissionID: missionID})
}

func (n *Notifier) publish(ctx context.Context, vehicleID string, msg commandMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	cmdTopic := n.topics.Command(vehicleID)
	if err := n.client.Publish(ctx, cmdTopic, qos, false, payload); err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.Command, cmdTopic, err)
	}
	n.logger.Debug("command published", "vehicle", vehicleID, "command", msg.Command, "mission", msg.MissionID)
	return nil
}
