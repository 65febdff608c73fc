// Package entity provides the generic state container shared by the buyer,
// seller, match and deal stores: a collection, a current selection held by id,
// filter and search state, a loading flag and a single error slot.
package entity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase"
)

// Identifiable is implemented by every stored entity.
type Identifiable interface {
	EntityID() string
}

// Patch merges a partial update into an entity.
type Patch[T any] interface {
	Apply(*T)
}

// PatchFunc adapts a plain function to Patch.
type PatchFunc[T any] func(*T)

func (f PatchFunc[T]) Apply(item *T) { f(item) }

// Repository is the durable side of a store.
type Repository[T any] interface {
	LoadAll(ctx context.Context) ([]T, error)
	Save(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// Encoder is implemented by repositories whose writes can be buffered offline.
type Encoder[T any] interface {
	Encode(item T) (*domain.Document, error)
}

// Options configure a Store.
type Options[T any, F any] struct {
	// Name labels logs and metrics.
	Name string
	// Prepare fills defaults on Add. id is a fresh time-ordered identifier.
	Prepare func(item *T, id string, now time.Time)
	// Refresh recomputes derived fields after Update.
	Refresh func(item *T, now time.Time)
	// Match decides whether an item passes the current filters and search term.
	Match func(item T, filters F, search string) bool
	// Clone deep-copies an entity before it is mutated. Needed when T holds slices
	// that mutations edit in place.
	Clone func(item T) T

	Buffer  usecase.OperationBuffer
	Metrics usecase.StoreMetrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// Store owns one collection. Concurrent writers are serialized; the last write wins.
type Store[T Identifiable, F any] struct {
	repo Repository[T]
	opts Options[T, F]

	// addMu serializes creates so a uniqueness check and its insert cannot
	// interleave with another create.
	addMu sync.Mutex

	mu        sync.RWMutex
	items     []T
	currentID string
	filters   F
	search    string
	loading   bool
	lastErr   string
}

// New constructs a store. repo may be nil for purely in-memory state.
func New[T Identifiable, F any](repo Repository[T], opts Options[T, F]) *Store[T, F] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = usecase.NopMetrics
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "entity"
	}
	opts.Logger = opts.Logger.With(zap.String("store", opts.Name))
	return &Store[T, F]{repo: repo, opts: opts}
}

func (s *Store[T, F]) Name() string { return s.opts.Name }

// Load replaces the collection from the repository. On failure the previous
// collection is kept and the error slot is set.
func (s *Store[T, F]) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.repo.LoadAll(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.items = items
		s.lastErr = ""
	}
	size := len(s.items)
	s.mu.Unlock()

	if err != nil {
		return s.fail("load", err)
	}
	s.opts.Metrics.Observe(s.opts.Name, "load", nil)
	s.opts.Metrics.SetSize(s.opts.Name, size)
	s.opts.Logger.Debug("collection loaded", zap.Int("count", size))
	return nil
}

// Add assigns an id when missing, applies defaults and appends the entity.
func (s *Store[T, F]) Add(ctx context.Context, item T) (T, error) {
	s.addMu.Lock()
	defer s.addMu.Unlock()
	return s.add(ctx, item)
}

// AddUnique adds item unless an existing entity satisfies conflict. On a
// conflict nothing is written and the existing entity is returned with ok false.
func (s *Store[T, F]) AddUnique(ctx context.Context, item T, conflict func(T) bool) (T, bool, error) {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	s.mu.RLock()
	for _, existing := range s.items {
		if conflict(existing) {
			s.mu.RUnlock()
			return existing, false, nil
		}
	}
	s.mu.RUnlock()

	added, err := s.add(ctx, item)
	return added, err == nil, err
}

func (s *Store[T, F]) add(ctx context.Context, item T) (T, error) {
	now := s.opts.Now()
	if s.opts.Prepare != nil {
		s.opts.Prepare(&item, NewID(), now)
	}
	if item.EntityID() == "" {
		var zero T
		return zero, s.fail("add", domain.ErrInvalidPayload)
	}

	if err := s.persist(ctx, usecase.OperationCreate, item); err != nil {
		var zero T
		return zero, s.fail("add", err)
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	size := len(s.items)
	s.mu.Unlock()

	s.opts.Metrics.Observe(s.opts.Name, "add", nil)
	s.opts.Metrics.SetSize(s.opts.Name, size)
	s.opts.Logger.Debug("entity added", zap.String("id", item.EntityID()))
	return item, nil
}

// Update merges patch into the entity with the given id. An unknown id is a
// silent no-op and returns nil.
func (s *Store[T, F]) Update(ctx context.Context, id string, patch Patch[T]) (*T, error) {
	updated, found, err := s.commit(ctx, "update", id, func(item *T) error {
		patch.Apply(item)
		return nil
	})
	if !found {
		return nil, nil
	}
	return updated, err
}

// Mutate applies fn to a copy of the entity and commits the copy when fn
// succeeds. A missing entity is reported as notFound.
func (s *Store[T, F]) Mutate(ctx context.Context, operation, id string, notFound error, fn func(*T) error) (*T, error) {
	updated, found, err := s.commit(ctx, operation, id, fn)
	if !found {
		return nil, s.fail(operation, notFound)
	}
	return updated, err
}

func (s *Store[T, F]) commit(ctx context.Context, operation, id string, fn func(*T) error) (*T, bool, error) {
	s.mu.RLock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.RUnlock()
		return nil, false, nil
	}
	updated := s.items[idx]
	s.mu.RUnlock()

	if s.opts.Clone != nil {
		updated = s.opts.Clone(updated)
	}
	if err := fn(&updated); err != nil {
		return nil, true, s.fail(operation, err)
	}
	if s.opts.Refresh != nil {
		s.opts.Refresh(&updated, s.opts.Now())
	}

	if err := s.persist(ctx, usecase.OperationUpdate, updated); err != nil {
		return nil, true, s.fail(operation, err)
	}

	s.mu.Lock()
	if idx = s.indexOf(id); idx >= 0 {
		s.items[idx] = updated
	}
	s.mu.Unlock()

	s.opts.Metrics.Observe(s.opts.Name, operation, nil)
	return &updated, true, nil
}

// Remove deletes the entity and clears the current selection when it pointed at it.
func (s *Store[T, F]) Remove(ctx context.Context, id string) error {
	s.mu.RLock()
	idx := s.indexOf(id)
	var item T
	if idx >= 0 {
		item = s.items[idx]
	}
	s.mu.RUnlock()
	if idx < 0 {
		return nil
	}

	if err := s.persist(ctx, usecase.OperationDelete, item); err != nil {
		return s.fail("remove", err)
	}

	s.mu.Lock()
	if idx = s.indexOf(id); idx >= 0 {
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	}
	if s.currentID == id {
		s.currentID = ""
	}
	size := len(s.items)
	s.mu.Unlock()

	s.opts.Metrics.Observe(s.opts.Name, "remove", nil)
	s.opts.Metrics.SetSize(s.opts.Name, size)
	return nil
}

// GetByID returns the entity with the given id.
func (s *Store[T, F]) GetByID(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	var zero T
	return zero, false
}

// All returns a copy of the collection in store order.
func (s *Store[T, F]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.items...)
}

// Len returns the collection size.
func (s *Store[T, F]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Filtered is recomputed from the collection, filters and search term on every call.
func (s *Store[T, F]) Filtered() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if s.opts.Match == nil || s.opts.Match(item, s.filters, s.search) {
			out = append(out, item)
		}
	}
	return out
}

// Where returns the items accepted by keep, in store order.
func (s *Store[T, F]) Where(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store[T, F]) SetFilters(filters F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
}

func (s *Store[T, F]) Filters() F {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Store[T, F]) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero F
	s.filters = zero
	s.search = ""
}

func (s *Store[T, F]) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
}

func (s *Store[T, F]) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetCurrent selects an entity by id. An empty id clears the selection.
func (s *Store[T, F]) SetCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexOf(id) < 0 {
		return false
	}
	s.currentID = id
	return true
}

// Current resolves the selection against the canonical collection.
func (s *Store[T, F]) Current() (T, bool) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()
	if id == "" {
		var zero T
		return zero, false
	}
	return s.GetByID(id)
}

func (s *Store[T, F]) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last recorded failure, or "" when none is outstanding.
func (s *Store[T, F]) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store[T, F]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// RecordError overwrites the error slot. Wrapping stores use it for their own operations.
func (s *Store[T, F]) RecordError(operation string, err error) error {
	return s.fail(operation, err)
}

// Replace swaps the collection without touching the repository. Used for seeding.
func (s *Store[T, F]) Replace(items []T) {
	s.mu.Lock()
	s.items = append([]T(nil), items...)
	if s.currentID != "" && s.indexOf(s.currentID) < 0 {
		s.currentID = ""
	}
	size := len(s.items)
	s.mu.Unlock()
	s.opts.Metrics.SetSize(s.opts.Name, size)
}

// Reset drops all in-memory state.
func (s *Store[T, F]) Reset() {
	s.mu.Lock()
	var zero F
	s.items = nil
	s.currentID = ""
	s.filters = zero
	s.search = ""
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()
	s.opts.Metrics.SetSize(s.opts.Name, 0)
}

func (s *Store[T, F]) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].EntityID() == id {
			return i
		}
	}
	return -1
}

// persist writes through to the repository. When the write fails and a buffer
// is configured the operation is queued and the local mutation stands.
func (s *Store[T, F]) persist(ctx context.Context, operation string, item T) error {
	if s.repo == nil {
		return nil
	}
	var err error
	if operation == usecase.OperationDelete {
		err = s.repo.Delete(ctx, item.EntityID())
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			err = nil
		}
	} else {
		err = s.repo.Save(ctx, item)
	}
	if err == nil {
		return nil
	}
	if s.bufferWrite(ctx, operation, item) {
		return nil
	}
	return err
}

func (s *Store[T, F]) bufferWrite(ctx context.Context, operation string, item T) bool {
	if s.opts.Buffer == nil {
		return false
	}
	enc, ok := s.repo.(Encoder[T])
	if !ok {
		return false
	}
	doc, err := enc.Encode(item)
	if err != nil {
		return false
	}
	if err := s.opts.Buffer.BufferDocument(ctx, operation, doc); err != nil {
		s.opts.Logger.Error("failed to buffer store operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	s.opts.Logger.Warn("store operation buffered", zap.String("operation", operation), zap.String("id", item.EntityID()))
	return true
}

func (s *Store[T, F]) fail(operation string, err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.opts.Metrics.Observe(s.opts.Name, operation, err)
	if errors.Is(err, context.Canceled) {
		s.opts.Logger.Debug("store operation cancelled", zap.String("operation", operation))
	} else {
		s.opts.Logger.Warn("store operation failed", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

// NewID returns a time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
