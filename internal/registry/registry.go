// Package registry is the single source of truth for master schema
// definitions. It keeps a process-wide in-memory cache in front of a
// persistent store and is the only writer to that store.
//
// Write operations persist first and touch the cache only after
// persistence succeeds, so on the success path the cache never diverges
// from the durable store. The two steps are not atomic together:
// concurrent writers in different processes can leave a reader with a
// briefly stale cache. That is an accepted eventual-consistency window,
// not a linearizable store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mastergate/internal/schema"
)

// ErrAlreadyExists is returned when registering a master name that is
// already defined.
var ErrAlreadyExists = errors.New("master already exists")

// ErrNotFound is returned when updating or deleting an unknown master.
var ErrNotFound = errors.New("master not found")

// Store is the persistence contract behind the registry. Upsert must be
// idempotent (insert-or-update keyed by master name).
type Store interface {
	LoadAll(ctx context.Context) (map[string]schema.Definition, error)
	Upsert(ctx context.Context, name string, def schema.Definition) error
	Delete(ctx context.Context, name string) error
}

// Registry caches schema definitions loaded from a Store.
type Registry struct {
	store Store

	mu          sync.RWMutex
	cache       map[string]schema.Definition
	initialized bool
}

// New creates a Registry over the given store. Call Initialize before
// serving reads.
func New(store Store) *Registry {
	return &Registry{
		store: store,
		cache: make(map[string]schema.Definition),
	}
}

// Initialize loads all persisted definitions into the cache. It runs at
// most once per process; repeat calls are no-ops. A load failure is
// logged and the registry proceeds with an empty cache so the read path
// stays available. Writes still go through the store, so they remain
// correct.
func (r *Registry) Initialize(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return
	}
	r.initialized = true

	defs, err := r.store.LoadAll(ctx)
	if err != nil {
		slog.Error("schema registry load failed, starting with empty cache", "error", err)
		return
	}
	r.cache = defs
	if r.cache == nil {
		r.cache = make(map[string]schema.Definition)
	}
	slog.Info("schema registry initialized", "masters", len(r.cache))
}

// Masters returns all registered master names, sorted. Cache only, no I/O.
func (r *Registry) Masters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cache))
	for name := range r.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the definition for a master. Cache only, no I/O.
func (r *Registry) Get(name string) (schema.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.cache[name]
	return def, ok
}

// Register validates and persists a new definition, then caches it.
// Fails with ErrAlreadyExists if the name is already registered.
func (r *Registry) Register(ctx context.Context, name string, columns []schema.Column) (schema.Definition, error) {
	def := schema.Definition{MasterName: name, Columns: columns}
	if err := def.Validate(); err != nil {
		return schema.Definition{}, fmt.Errorf("register %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache[name]; exists {
		return schema.Definition{}, fmt.Errorf("register %q: %w", name, ErrAlreadyExists)
	}
	if err := r.store.Upsert(ctx, name, def); err != nil {
		return schema.Definition{}, fmt.Errorf("persist %q: %w", name, err)
	}
	r.cache[name] = def

	slog.Info("master registered", "master", name, "columns", len(columns))
	return def, nil
}

// Update replaces the definition of an existing master. Metadata only:
// an already-created data table is never restructured by this call.
// Fails with ErrNotFound if the master is not registered.
func (r *Registry) Update(ctx context.Context, name string, columns []schema.Column) (schema.Definition, error) {
	def := schema.Definition{MasterName: name, Columns: columns}
	if err := def.Validate(); err != nil {
		return schema.Definition{}, fmt.Errorf("update %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache[name]; !exists {
		return schema.Definition{}, fmt.Errorf("update %q: %w", name, ErrNotFound)
	}
	if err := r.store.Upsert(ctx, name, def); err != nil {
		return schema.Definition{}, fmt.Errorf("persist %q: %w", name, err)
	}
	r.cache[name] = def

	slog.Info("master schema updated", "master", name, "columns", len(columns))
	return def, nil
}

// Delete removes the definition of a master from the store, then evicts
// it from the cache. Fails with ErrNotFound if absent.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache[name]; !exists {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	if err := r.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	delete(r.cache, name)

	slog.Info("master definition deleted", "master", name)
	return nil
}
