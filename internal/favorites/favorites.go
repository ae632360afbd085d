// Package favorites owns the persisted list of favorited products.
//
// The list holds full product snapshots, newest first, deduplicated by id.
// Every mutation updates memory, writes the whole list back to the key-value
// store under StorageKey, and then notifies subscribers, so a reader always
// sees the new state as soon as the mutating call returns. Notifications are
// delivered in commit order; a mutation waits until every subscriber has seen
// the previous one.
package favorites

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/event"
	"github.com/HerbHall/shopfront/internal/store"
	"github.com/HerbHall/shopfront/pkg/models"
)

// StorageKey is the key-value key holding the JSON array of favorites.
const StorageKey = "favorites"

// TopicChanged is published on the event bus after every committed mutation.
const TopicChanged = "favorites.changed"

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeCleared ChangeKind = "cleared"
)

// Change describes a committed mutation and the resulting list. Version
// increases by one with every commit.
type Change struct {
	Version   uint64           `json:"version"`
	Kind      ChangeKind       `json:"kind"`
	ProductID int              `json:"product_id,omitempty"`
	Favorites []models.Product `json:"favorites"`
}

// Metrics receives mutation counts. internal/metrics provides the Prometheus
// implementation.
type Metrics interface {
	FavoriteMutation(kind string)
	FavoritesCount(n int)
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher publishes a TopicChanged event for every mutation.
func WithPublisher(p event.Publisher) Option {
	return func(s *Store) { s.bus = p }
}

// WithMetrics records mutations.
func WithMetrics(m Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Store is the single owner of the favorites list.
type Store struct {
	// notifyMu serializes commit+notify so subscribers never see an older
	// list after a newer one. Acquire before mu.
	notifyMu sync.Mutex

	mu      sync.Mutex
	kv      store.KV
	logger  *zap.Logger
	bus     event.Publisher
	metrics Metrics
	items   []models.Product
	version uint64

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New hydrates a Store from kv. A missing, unreadable, or malformed stored
// value yields an empty list; it is never an error.
func New(ctx context.Context, kv store.KV, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:     kv,
		logger: logger.Named("favorites"),
		subs:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = s.load(ctx)
	if s.metrics != nil {
		s.metrics.FavoritesCount(len(s.items))
	}
	return s
}

func (s *Store) load(ctx context.Context) []models.Product {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("failed to read favorites, starting empty", zap.Error(err))
		return []models.Product{}
	}
	if !ok {
		return []models.Product{}
	}
	items, err := decode(raw)
	if err != nil {
		s.logger.Warn("stored favorites are malformed, starting empty", zap.Error(err))
		return []models.Product{}
	}
	s.logger.Debug("favorites loaded", zap.Int("count", len(items)))
	return items
}

// decode parses the stored JSON array and drops duplicate ids (first wins).
func decode(raw string) ([]models.Product, error) {
	var items []models.Product
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(items))
	out := make([]models.Product, 0, len(items))
	for i := range items {
		if _, dup := seen[items[i].ID]; dup {
			continue
		}
		seen[items[i].ID] = struct{}{}
		out = append(out, items[i])
	}
	return out, nil
}

// Favorites returns a copy of the list, newest first.
func (s *Store) Favorites() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Current returns the list as a Change with an empty kind, stamped with the
// version of the last commit.
func (s *Store) Current() Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.items))
	copy(out, s.items)
	return Change{Version: s.version, Favorites: out}
}

// Count returns the number of favorites.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsFavorite reports whether a product with id is in the list.
func (s *Store) IsFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, id) >= 0
}

// IDs returns the set of favorited ids.
func (s *Store) IDs() map[int]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[int]struct{}, len(s.items))
	for i := range s.items {
		ids[s.items[i].ID] = struct{}{}
	}
	return ids
}

// AddToFavorites inserts p at the front unless its id is already present.
// It reports whether p was added; a duplicate is a logged no-op.
func (s *Store) AddToFavorites(ctx context.Context, p models.Product) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if indexOf(s.items, p.ID) >= 0 {
		s.mu.Unlock()
		s.logger.Debug("product already in favorites", zap.Int("product_id", p.ID))
		return false
	}
	change := s.commit(ctx, ChangeAdded, p.ID, prepend(s.items, p))
	s.mu.Unlock()

	s.notify(ctx, change)
	return true
}

// RemoveFromFavorites removes the product with id. It is a no-op if absent.
func (s *Store) RemoveFromFavorites(ctx context.Context, id int) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	i := indexOf(s.items, id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	change := s.commit(ctx, ChangeRemoved, id, without(s.items, i))
	s.mu.Unlock()

	s.notify(ctx, change)
}

// ToggleFavorite removes p if present, otherwise adds it. It returns whether
// p is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, p models.Product) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	var change Change
	var now bool
	if i := indexOf(s.items, p.ID); i >= 0 {
		change = s.commit(ctx, ChangeRemoved, p.ID, without(s.items, i))
	} else {
		change = s.commit(ctx, ChangeAdded, p.ID, prepend(s.items, p))
		now = true
	}
	s.mu.Unlock()

	s.notify(ctx, change)
	return now
}

// ClearFavorites empties the list.
func (s *Store) ClearFavorites(ctx context.Context) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	change := s.commit(ctx, ChangeCleared, 0, []models.Product{})
	s.mu.Unlock()

	s.notify(ctx, change)
}

// Subscribe registers fn to be called after every committed mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// commit swaps in next and persists it. Callers hold s.notifyMu and s.mu.
// A failed write is logged and the in-memory state is kept.
func (s *Store) commit(ctx context.Context, kind ChangeKind, id int, next []models.Product) Change {
	s.items = next
	s.version++

	data, err := json.Marshal(next)
	if err == nil {
		err = s.kv.Set(ctx, StorageKey, string(data))
	}
	if err != nil {
		s.logger.Error("failed to persist favorites",
			zap.String("change", string(kind)),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.FavoriteMutation(string(kind))
		s.metrics.FavoritesCount(len(next))
	}

	snapshot := make([]models.Product, len(next))
	copy(snapshot, next)
	return Change{Version: s.version, Kind: kind, ProductID: id, Favorites: snapshot}
}

// notify runs with s.notifyMu held and s.mu released, so subscribers may read
// the store but must not mutate it.
func (s *Store) notify(ctx context.Context, c Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
	if s.bus != nil {
		_ = s.bus.Publish(ctx, event.Event{
			Topic:   TopicChanged,
			Source:  "favorites",
			Payload: c,
		})
	}
}

func indexOf(items []models.Product, id int) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend(items []models.Product, p models.Product) []models.Product {
	out := make([]models.Product, 0, len(items)+1)
	out = append(out, p)
	return append(out, items...)
}

func without(items []models.Product, i int) []models.Product {
	out := make([]models.Product, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
