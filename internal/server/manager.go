// Package server hosts the orchestrator's protocol surfaces: the HTTP API
// and the MQTT bridge link. Sub-servers run in parallel; the first fatal
// error or a canceled context brings them all down.
package server

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/groundctl/groundctl/internal/orchestrator"
	httpsrv "github.com/groundctl/groundctl/internal/server/http"
	mqttsrv "github.com/groundctl/groundctl/internal/server/mqtt"
	"github.com/groundctl/groundctl/pkg/log"
	pkgmqtt "github.com/groundctl/groundctl/pkg/mqtt"
	"github.com/groundctl/groundctl/pkg/mqtt/topic"
)

// Server is the common interface for all sub-servers.
type Server interface {
	Start(ctx context.Context) error
}

// Manager owns the lifecycle of all protocol servers.
type Manager struct {
	servers []Server
}

// NewManager initializes the sub-servers. MQTT is optional: with no broker
// configured the orchestrator runs API-only and no commands reach vehicles.
func NewManager(cfg *Config, orch *orchestrator.Orchestrator, mqttClient pkgmqtt.Client) (*Manager, error) {
	var servers []Server

	servers = append(servers, httpsrv.NewServer(cfg.HttpOptions, orch))

	if mqttClient != nil {
		builder := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
		servers = append(servers, mqttsrv.NewServer(mqttClient, builder, orch))
	} else {
		log.Info("no MQTT broker configured, telemetry ingress disabled")
	}

	return &Manager{servers: servers}, nil
}

// Start launches all servers and blocks until the first one fails or ctx is
// canceled.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		srv := s
		g.Go(func() error {
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				return fmt.Errorf("server exited: %w", err)
			}
			return nil
		})
	}

	log.Info("all servers starting")
	return g.Wait()
}
