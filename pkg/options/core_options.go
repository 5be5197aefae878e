package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*CoreOptions)(nil)

// CoreOptions contains configuration for the orchestrator core itself.
type CoreOptions struct {
	// EventLogCapacity bounds the in-memory event history. Once exceeded,
	// the oldest entries are evicted.
	EventLogCapacity int `json:"event-log-capacity" mapstructure:"event-log-capacity"`

	// ZoneFile is an optional path to a geofence definitions file loaded at
	// startup and reloaded on change.
	ZoneFile string `json:"zone-file" mapstructure:"zone-file"`

	// WatchZoneFile enables hot reload of the zone file.
	WatchZoneFile bool `json:"watch-zone-file" mapstructure:"watch-zone-file"`

	// SnapshotDir is an optional directory for entity-table snapshots.
	// Empty disables filesystem snapshots.
	SnapshotDir string `json:"snapshot-dir" mapstructure:"snapshot-dir"`

	// SnapshotInterval is how often the entity tables are snapshotted when
	// a snapshot store is configured.
	SnapshotInterval time.Duration `json:"snapshot-interval" mapstructure:"snapshot-interval"`
}

// NewCoreOptions creates a CoreOptions object with default parameters.
func NewCoreOptions() *CoreOptions {
	return &CoreOptions{
		EventLogCapacity: 1000,
		SnapshotInterval: 5 * time.Minute,
	}
}

func (o *CoreOptions) Validate() []error {
	errs := []error{}

	if o.EventLogCapacity <= 0 {
		errs = append(errs, errors.New("core.event-log-capacity must be positive"))
	}
	if o.SnapshotInterval <= 0 {
		errs = append(errs, errors.New("core.snapshot-interval must be positive"))
	}

	return errs
}

func (o *CoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.EventLogCapacity, "core.event-log-capacity", o.EventLogCapacity, "Maximum number of events retained in the in-memory history.")
	fs.StringVar(&o.ZoneFile, "core.zone-file", o.ZoneFile, "Path to a geofence definitions file loaded at startup.")
	fs.BoolVar(&o.WatchZoneFile, "core.watch-zone-file", o.WatchZoneFile, "Reload the zone file when it changes.")
	fs.StringVar(&o.SnapshotDir, "core.snapshot-dir", o.SnapshotDir, "Directory for entity-table snapshots. Empty disables filesystem snapshots.")
	fs.DurationVar(&o.SnapshotInterval, "core.snapshot-interval", o.SnapshotInterval, "Interval between entity-table snapshots.")
}
