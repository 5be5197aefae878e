// Package zoneload seeds and refreshes the geofence set from a JSON
// definitions file. Invalid zones are rejected and logged; valid ones are
// applied, so one bad entry never blocks the rest of the file.
package zoneload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
	"github.com/groundctl/groundctl/pkg/log"
)

// Target is the subset of orchestrator operations the loader needs.
type Target interface {
	CreateGeofence(z *model.Geofence) (*model.Geofence, error)
	ReplaceGeofence(z *model.Geofence) error
}

// zoneFile is the on-disk document shape.
type zoneFile struct {
	Zones []*model.Geofence `json:"zones"`
}

// Load reads the file and applies every zone: new names are created,
// existing names replaced. Returns how many zones were applied.
func Load(path string, target Target, logger log.Logger) (int, error) {
	if logger == nil {
		logger = log.Std()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read zone file: %w", err)
	}
	var doc zoneFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode zone file: %w", err)
	}

	applied := 0
	for _, z := range doc.Zones {
		if _, err := target.CreateGeofence(z); err != nil {
			if core.IsKind(err, core.ErrorKindDuplicate) {
				if err := target.ReplaceGeofence(z); err != nil {
					logger.Warn("zone replace rejected", "zone", z.Name, "err", err)
					continue
				}
			} else {
				logger.Warn("zone rejected", "zone", z.Name, "err", err)
				continue
			}
		}
		applied++
	}
	logger.Info("zone file applied", "path", path, "zones", applied, "total", len(doc.Zones))
	return applied, nil
}

// Watch reloads the file whenever it changes, until ctx is canceled. The
// parent directory is watched so editors that replace the file by rename
// still trigger a reload.
func Watch(ctx context.Context, path string, target Target, logger log.Logger) error {
	if logger == nil {
		logger = log.Std()
	}
	logger = logger.WithName("zonewatch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := Load(path, target, logger); err != nil {
				logger.Error(err, "zone file reload failed", "path", path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "zone watcher error")
		}
	}
}
