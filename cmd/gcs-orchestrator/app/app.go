// Package app assembles and runs the orchestrator process.
package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/groundctl/groundctl/cmd/gcs-orchestrator/app/options"
	"github.com/groundctl/groundctl/internal/orchestrator"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/registry"
	"github.com/groundctl/groundctl/internal/server"
	mqttsrv "github.com/groundctl/groundctl/internal/server/mqtt"
	"github.com/groundctl/groundctl/internal/snapshot"
	"github.com/groundctl/groundctl/internal/zoneload"
	"github.com/groundctl/groundctl/pkg/log"
	pkgmqtt "github.com/groundctl/groundctl/pkg/mqtt"
	"github.com/groundctl/groundctl/pkg/mqtt/topic"
)

const commandDesc = `The GCS orchestrator is the mission-control core for a UAV fleet:
it plans survey, corridor, and structure-scan missions, enforces geofences,
tracks vehicle state from bridge telemetry, and drives mission execution.

State lives in memory; optional snapshots (filesystem or S3) let a restart
resume the previous fleet picture.`

// NewCommand builds the root cobra command.
func NewCommand() *cobra.Command {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:          "gcs-orchestrator",
		Short:        "Run the mission-control orchestrator",
		Long:         commandDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func run(opts *options.Options) error {
	log.Init(opts.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildSnapshotStore(ctx, opts)
	if err != nil {
		return err
	}

	var (
		mqttClient pkgmqtt.Client
		notifier   core.CommandNotifier
	)
	if opts.Mqtt.Broker != "" {
		mqttClient, err = pkgmqtt.NewClient(opts.Mqtt.ToClientConfig())
		if err != nil {
			return fmt.Errorf("create mqtt client: %w", err)
		}
		notifier = mqttsrv.NewNotifier(mqttClient, topic.NewBuilder(opts.Mqtt.TopicRoot))
	}

	orch := orchestrator.New(orchestrator.Config{
		EventLogCapacity: opts.Core.EventLogCapacity,
		SnapshotInterval: opts.Core.SnapshotInterval,
	}, registry.New(), notifier, store, log.Std())

	if err := orch.Restore(ctx); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	if opts.Core.ZoneFile != "" {
		if _, err := zoneload.Load(opts.Core.ZoneFile, orch, log.Std()); err != nil {
			return fmt.Errorf("load zone file: %w", err)
		}
	}

	mgr, err := server.NewManager(&server.Config{
		HttpOptions: opts.Http,
		MqttOptions: opts.Mqtt,
	}, orch, mqttClient)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(orch.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(mgr.Start(ctx)) })
	if opts.Core.ZoneFile != "" && opts.Core.WatchZoneFile {
		g.Go(func() error { return ignoreCanceled(zoneload.Watch(ctx, opts.Core.ZoneFile, orch, log.Std())) })
	}

	log.Info("orchestrator started", "http", opts.Http.Addr, "mqtt", opts.Mqtt.Broker)
	return g.Wait()
}

func buildSnapshotStore(ctx context.Context, opts *options.Options) (snapshot.Store, error) {
	switch {
	case opts.S3.Endpoint != "":
		store, err := snapshot.NewS3Store(ctx, opts.S3)
		if err != nil {
			return nil, fmt.Errorf("create s3 snapshot store: %w", err)
		}
		return store, nil
	case opts.Core.SnapshotDir != "":
		store, err := snapshot.NewFSStore(opts.Core.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("create fs snapshot store: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}
