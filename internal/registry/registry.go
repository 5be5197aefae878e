// Package registry is the in-memory system of record for vehicles,
// missions, geofences, and workflows. It is the sole owner of entity state:
// every mutation flows through it, serialized per entity key, so no other
// component touches entity fields directly.
package registry

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

const stripeCount = 64

// stripes is a fixed pool of mutexes indexed by key hash. Two different
// keys may share a stripe, which only costs contention, never correctness.
type stripes struct {
	locks [stripeCount]sync.Mutex
}

func (s *stripes) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.locks[h.Sum32()%stripeCount]
}

// table stores one entity type. The map mutex guards map access only; the
// key stripe serializes read-modify-write cycles on a single entity, so
// mutations to different keys proceed independently.
//
// Reads return shallow copies. Nested slices (mission waypoints, geofence
// polygons) are set at creation and treated as immutable thereafter.
type table[T any] struct {
	entity string

	mu      sync.RWMutex
	items   map[string]*T
	stripes stripes
}

func newTable[T any](entity string) *table[T] {
	return &table[T]{entity: entity, items: make(map[string]*T)}
}

func (t *table[T]) create(id string, item *T) error {
	if id == "" {
		return core.NewValidation(t.entity, "", "id must not be empty")
	}
	lock := t.stripes.forKey(id)
	lock.Lock()
	defer lock.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[id]; ok {
		return core.NewDuplicate(t.entity, id)
	}
	cp := *item
	t.items[id] = &cp
	return nil
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	item, ok := t.items[id]
	t.mu.RUnlock()
	if !ok {
		return nil, core.NewNotFound(t.entity, id)
	}
	cp := *item
	return &cp, nil
}

func (t *table[T]) list() []*T {
	t.mu.RLock()
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		cp := *t.items[id]
		out = append(out, &cp)
	}
	t.mu.RUnlock()
	return out
}

// mutate runs fn on a working copy under the key's stripe lock and swaps
// the copy in only when fn succeeds, so a failed mutation leaves the stored
// record untouched.
func (t *table[T]) mutate(id string, fn func(*T) error) (*T, error) {
	lock := t.stripes.forKey(id)
	lock.Lock()
	defer lock.Unlock()

	t.mu.RLock()
	item, ok := t.items[id]
	t.mu.RUnlock()
	if !ok {
		return nil, core.NewNotFound(t.entity, id)
	}

	work := *item
	if err := fn(&work); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.items[id] = &work
	t.mu.Unlock()

	cp := work
	return &cp, nil
}

// Registry aggregates the per-entity tables behind the core repository
// ports.
type Registry struct {
	vehicles  *vehicleTable
	missions  *missionTable
	geofences *geofenceTable
	workflows *workflowTable
}

func New() *Registry {
	return &Registry{
		vehicles:  &vehicleTable{table: newTable[model.Vehicle]("vehicle")},
		missions:  &missionTable{table: newTable[model.Mission]("mission")},
		geofences: &geofenceTable{table: newTable[model.Geofence]("geofence")},
		workflows: &workflowTable{table: newTable[model.Workflow]("workflow")},
	}
}

func (r *Registry) Vehicles() core.VehicleRepository   { return r.vehicles }
func (r *Registry) Missions() core.MissionRepository   { return r.missions }
func (r *Registry) Geofences() core.GeofenceRepository { return r.geofences }
func (r *Registry) Workflows() core.WorkflowRepository { return r.workflows }

type vehicleTable struct {
	*table[model.Vehicle]
}

func (t *vehicleTable) Create(v *model.Vehicle) error { return t.create(v.ID, v) }
func (t *vehicleTable) Get(id string) (*model.Vehicle, error) {
	return t.get(id)
}
func (t *vehicleTable) List() []*model.Vehicle { return t.list() }

func (t *vehicleTable) Patch(id string, patch *model.VehiclePatch) (*model.Vehicle, error) {
	return t.mutate(id, func(v *model.Vehicle) error {
		v.Apply(patch)
		return nil
	})
}

func (t *vehicleTable) Mutate(id string, fn func(*model.Vehicle) error) (*model.Vehicle, error) {
	return t.mutate(id, fn)
}

type missionTable struct {
	*table[model.Mission]
}

func (t *missionTable) Create(m *model.Mission) error { return t.create(m.ID, m) }
func (t *missionTable) Get(id string) (*model.Mission, error) {
	return t.get(id)
}
func (t *missionTable) List() []*model.Mission { return t.list() }
func (t *missionTable) Mutate(id string, fn func(*model.Mission) error) (*model.Mission, error) {
	return t.mutate(id, fn)
}

type geofenceTable struct {
	*table[model.Geofence]
}

func (t *geofenceTable) Create(z *model.Geofence) error { return t.create(z.Name, z) }
func (t *geofenceTable) Get(name string) (*model.Geofence, error) {
	return t.get(name)
}
func (t *geofenceTable) List() []*model.Geofence { return t.list() }

func (t *geofenceTable) Replace(z *model.Geofence) error {
	_, err := t.mutate(z.Name, func(stored *model.Geofence) error {
		*stored = *z
		return nil
	})
	return err
}

func (t *geofenceTable) SetActive(name string, active bool) (*model.Geofence, error) {
	return t.mutate(name, func(z *model.Geofence) error {
		z.Active = active
		return nil
	})
}

type workflowTable struct {
	*table[model.Workflow]
}

func (t *workflowTable) Create(w *model.Workflow) error { return t.create(w.ID, w) }
func (t *workflowTable) Get(id string) (*model.Workflow, error) {
	return t.get(id)
}
func (t *workflowTable) List() []*model.Workflow { return t.list() }
