// Package store holds the shared profile collection, its concurrency rules,
// and the persistence backends that durably back it.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/provdeck-ai/provdeck/internal/eventbus"
	"github.com/provdeck-ai/provdeck/internal/provider"
)

// SnapshotVersion is the current serialization version.
const SnapshotVersion = 1

// Snapshot is the serialized form of the whole store, the unit the backends
// load and save.
type Snapshot struct {
	Version int                    `json:"version"`
	Apps    map[string]AppSnapshot `json:"apps"`
}

// AppSnapshot is one family's partition: providers in insertion order plus
// the active id, if any.
type AppSnapshot struct {
	Providers []*provider.Provider `json:"providers"`
	Current   string               `json:"current,omitempty"`
}

// NewSnapshot returns an empty snapshot with all partitions present.
func NewSnapshot() *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion, Apps: make(map[string]AppSnapshot, 3)}
	for _, at := range provider.AppTypes() {
		snap.Apps[string(at)] = AppSnapshot{}
	}
	return snap
}

// partition is one family's in-memory state.
type partition struct {
	providers []*provider.Provider
	active    string
}

// find returns the index of id, or -1.
func (pt *partition) find(id string) int {
	for i, p := range pt.providers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Store is the process-wide profile collection. One RWMutex guards all
// partitions: reads share, mutations are exclusive, and every mutation is
// persisted synchronously before it is visible. If the backend rejects a
// write, the in-memory change is rolled back.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	bus     *eventbus.Bus
	logger  *slog.Logger
	apps    map[provider.AppType]*partition
}

// Options carry the store's optional collaborators.
type Options struct {
	Bus    *eventbus.Bus
	Logger *slog.Logger
}

// Open loads the snapshot from the backend and returns a ready store.
func Open(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend: backend,
		bus:     opts.Bus,
		logger:  logger.With("component", "store"),
	}
	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	s.apps = s.appsFromSnapshot(snap)
	return s, nil
}

// Add inserts a freshly-created profile into its family's partition.
func (s *Store) Add(ctx context.Context, p *provider.Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.part(p.AppType)
	if part.find(p.ID) >= 0 {
		return fmt.Errorf("%w: %q", provider.ErrConflict, p.ID)
	}

	prev := s.cloneApps()
	part.providers = append(part.providers, p.Clone())
	if err := s.persistLocked(ctx); err != nil {
		s.apps = prev
		return err
	}
	s.logger.Info("provider added", "app", p.AppType, "id", p.ID)
	s.publish(eventbus.ProviderAdded, p)
	return nil
}

// Update replaces the profile with the mutator's result. The mutator runs
// under the write lock against the latest stored copy, so concurrent edits
// of the same id serialize cleanly; it must not block. Changing the id or
// app type inside a mutator is a programming error and panics.
func (s *Store) Update(ctx context.Context, id string, mutate func(*provider.Provider) (*provider.Provider, error)) (*provider.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, part, i := s.findLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", provider.ErrNotFound, id)
	}

	next, err := mutate(part.providers[i].Clone())
	if err != nil {
		return nil, err
	}
	if next == nil || next.ID != id {
		panic("store: update must not change the provider id")
	}
	if next.AppType != at {
		panic("store: update must not change the provider app type")
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	prev := s.cloneApps()
	part.providers[i] = next.Clone()
	if err := s.persistLocked(ctx); err != nil {
		s.apps = prev
		return nil, err
	}
	s.logger.Info("provider updated", "app", at, "id", id)
	s.publish(eventbus.ProviderUpdated, next)
	return next.Clone(), nil
}

// Remove deletes a profile, clearing the partition's active pointer if it
// referenced the removed id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, part, i := s.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", provider.ErrNotFound, id)
	}

	prev := s.cloneApps()
	removed := part.providers[i]
	part.providers = append(part.providers[:i], part.providers[i+1:]...)
	if part.active == id {
		part.active = ""
	}
	if err := s.persistLocked(ctx); err != nil {
		s.apps = prev
		return err
	}
	s.logger.Info("provider removed", "app", at, "id", id)
	s.publish(eventbus.ProviderRemoved, removed)
	return nil
}

// SetActive marks a profile as the one in use for its family. Activating an
// id that exists only in a different family is rejected; activating an id
// that exists nowhere is not found. Either way the pointer is unchanged.
func (s *Store) SetActive(ctx context.Context, at provider.AppType, id string) error {
	if !at.Valid() {
		return fmt.Errorf("%w: unknown app type %q", provider.ErrInvalidInput, at)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.part(at)
	i := part.find(id)
	if i < 0 {
		if otherAt, _, j := s.findLocked(id); j >= 0 {
			return fmt.Errorf("%w: %q belongs to %s, not %s", provider.ErrInvalidInput, id, otherAt, at)
		}
		return fmt.Errorf("%w: %q", provider.ErrNotFound, id)
	}
	if part.active == id {
		return nil
	}

	prev := s.cloneApps()
	part.active = id
	if err := s.persistLocked(ctx); err != nil {
		s.apps = prev
		return err
	}
	s.logger.Info("provider activated", "app", at, "id", id)
	s.publish(eventbus.ProviderActivated, part.providers[i])
	return nil
}

// Get returns a copy of the profile with the given id, searching families in
// canonical order.
func (s *Store) Get(id string) (*provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, part, i := s.findLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", provider.ErrNotFound, id)
	}
	return part.providers[i].Clone(), nil
}

// List returns copies of one family's profiles in display order: explicit
// sort indexes ascending first, then the rest in insertion order.
func (s *Store) List(at provider.AppType) []*provider.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.apps[at]
	if !ok {
		return nil
	}
	out := make([]*provider.Provider, 0, len(part.providers))
	for _, p := range part.providers {
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SortIndex, out[j].SortIndex
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})
	return out
}

// Active returns a copy of the family's active profile, or nil when none is
// set.
func (s *Store) Active(at provider.AppType) *provider.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.apps[at]
	if !ok || part.active == "" {
		return nil
	}
	if i := part.find(part.active); i >= 0 {
		return part.providers[i].Clone()
	}
	return nil
}

// Summaries projects one family's profiles for display, flagging the active
// one.
func (s *Store) Summaries(at provider.AppType) []provider.Summary {
	s.mu.RLock()
	active := ""
	if part, ok := s.apps[at]; ok {
		active = part.active
	}
	s.mu.RUnlock()

	list := s.List(at)
	out := make([]provider.Summary, 0, len(list))
	for _, p := range list {
		sum := p.Summary()
		sum.Active = p.ID == active
		out = append(out, sum)
	}
	return out
}

// IDs returns the ids taken in one family's partition, for identifier
// generation.
func (s *Store) IDs(at provider.AppType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.apps[at]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(part.providers))
	for _, p := range part.providers {
		ids = append(ids, p.ID)
	}
	return ids
}

// Reload replaces the in-memory state with the backend's current contents.
// Used when another process rewrote the backing file. Reloads that change
// nothing (our own saves echoed back by the watcher) are silent.
func (s *Store) Reload(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload providers: %w", err)
	}
	next := s.appsFromSnapshot(snap)

	s.mu.Lock()
	changed := !appsEqual(s.apps, next)
	if changed {
		s.apps = next
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	s.logger.Info("store reloaded from backend")
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.StoreReloaded})
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion, Apps: make(map[string]AppSnapshot, len(s.apps))}
	for at, part := range s.apps {
		app := AppSnapshot{Current: part.active}
		for _, p := range part.providers {
			app.Providers = append(app.Providers, p.Clone())
		}
		snap.Apps[string(at)] = app
	}
	return snap
}

// persistLocked saves the current state. Callers hold the write lock; the
// backend call is synchronous so the lock is never held across anything
// unbounded.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Error("persist providers", "error", err)
		return fmt.Errorf("%w: %v", provider.ErrPersistence, err)
	}
	return nil
}

// part returns the family's partition, creating it if absent.
func (s *Store) part(at provider.AppType) *partition {
	if pt, ok := s.apps[at]; ok {
		return pt
	}
	pt := &partition{}
	s.apps[at] = pt
	return pt
}

// findLocked locates an id across partitions in canonical family order.
func (s *Store) findLocked(id string) (provider.AppType, *partition, int) {
	for _, at := range provider.AppTypes() {
		if part, ok := s.apps[at]; ok {
			if i := part.find(id); i >= 0 {
				return at, part, i
			}
		}
	}
	return "", nil, -1
}

// cloneApps copies the partition map and slice storage so a failed persist
// can restore the prior state. Stored providers are never mutated in place,
// only replaced, so sharing their pointers is safe.
func (s *Store) cloneApps() map[provider.AppType]*partition {
	out := make(map[provider.AppType]*partition, len(s.apps))
	for at, part := range s.apps {
		cp := &partition{
			providers: make([]*provider.Provider, len(part.providers)),
			active:    part.active,
		}
		copy(cp.providers, part.providers)
		out[at] = cp
	}
	return out
}

// appsFromSnapshot builds in-memory partitions, dropping entries that break
// the structural invariants rather than letting one bad row poison the load.
func (s *Store) appsFromSnapshot(snap *Snapshot) map[provider.AppType]*partition {
	apps := make(map[provider.AppType]*partition, 3)
	for _, at := range provider.AppTypes() {
		apps[at] = &partition{}
	}
	if snap == nil {
		return apps
	}
	for name, app := range snap.Apps {
		at := provider.AppType(name)
		if !at.Valid() {
			s.logger.Warn("skipping unknown app partition", "app", name)
			continue
		}
		part := apps[at]
		for _, p := range app.Providers {
			if p == nil || p.ID == "" {
				continue
			}
			if p.AppType != at {
				s.logger.Warn("skipping provider filed under the wrong app", "app", name, "id", p.ID)
				continue
			}
			if part.find(p.ID) >= 0 {
				s.logger.Warn("skipping duplicate provider id", "app", name, "id", p.ID)
				continue
			}
			part.providers = append(part.providers, p.Clone())
		}
		if app.Current != "" && part.find(app.Current) >= 0 {
			part.active = app.Current
		}
	}
	return apps
}

// appsEqual reports whether two states hold the same providers in the same
// order with the same active pointers. Encode and decode are deterministic,
// so round-tripped state compares equal.
func appsEqual(a, b map[provider.AppType]*partition) bool {
	if len(a) != len(b) {
		return false
	}
	for at, pa := range a {
		pb, ok := b[at]
		if !ok || pa.active != pb.active || len(pa.providers) != len(pb.providers) {
			return false
		}
		for i := range pa.providers {
			if !reflect.DeepEqual(pa.providers[i], pb.providers[i]) {
				return false
			}
		}
	}
	return true
}

// publish emits a change event when a bus is attached.
func (s *Store) publish(typ string, p *provider.Provider) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{
		Type:     typ,
		AppType:  string(p.AppType),
		Provider: p.ID,
		Name:     p.Name,
	})
}
