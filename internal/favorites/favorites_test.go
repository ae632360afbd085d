package favorites_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/shopfront/internal/favorites"
	"github.com/HerbHall/shopfront/internal/store"
	"github.com/HerbHall/shopfront/internal/testutil"
	"github.com/HerbHall/shopfront/pkg/models"
)

func newStore(t *testing.T, kv store.KV, opts ...favorites.Option) *favorites.Store {
	t.Helper()
	return favorites.New(context.Background(), kv, testutil.Logger(), opts...)
}

func storedIDs(t *testing.T, kv store.KV) []int {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), favorites.StorageKey)
	require.NoError(t, err)
	require.True(t, ok, "favorites key not written")
	var items []models.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return testutil.IDs(items)
}

func TestNew_EmptyWhenAbsent(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	assert.Equal(t, 0, s.Count())
	assert.NotNil(t, s.Favorites())
	assert.Empty(t, s.Favorites())
}

func TestNew_MalformedStorageStartsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"object", `{"id":1}`},
		{"string", `"favorites"`},
		{"array of numbers", `[1,2,3]`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemoryKV()
			require.NoError(t, kv.Set(context.Background(), favorites.StorageKey, tt.raw))
			s := newStore(t, kv)
			assert.Equal(t, 0, s.Count())
		})
	}
}

func TestNew_HydratesAndDedupes(t *testing.T) {
	kv := store.NewMemoryKV()
	raw, _ := json.Marshal([]models.Product{
		testutil.NewProduct(3, testutil.WithTitle("first")),
		testutil.NewProduct(1),
		testutil.NewProduct(3, testutil.WithTitle("second")),
	})
	require.NoError(t, kv.Set(context.Background(), favorites.StorageKey, string(raw)))

	s := newStore(t, kv)
	got := s.Favorites()
	assert.Equal(t, []int{3, 1}, testutil.IDs(got))
	assert.Equal(t, "first", got[0].Title)
}

func TestAddToFavorites_PrependsAndPersists(t *testing.T) {
	kv := store.NewMemoryKV()
	s := newStore(t, kv)
	ctx := context.Background()

	assert.True(t, s.AddToFavorites(ctx, testutil.NewProduct(1)))
	assert.True(t, s.AddToFavorites(ctx, testutil.NewProduct(2)))

	assert.Equal(t, []int{2, 1}, testutil.IDs(s.Favorites()))
	assert.Equal(t, []int{2, 1}, storedIDs(t, kv))
	assert.Equal(t, 2, s.Count())
}

func TestAddToFavorites_DuplicateIsNoop(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()
	p := testutil.NewProduct(7, testutil.WithTitle("original"))

	before := s.Count()
	assert.True(t, s.AddToFavorites(ctx, p))
	assert.False(t, s.AddToFavorites(ctx, testutil.NewProduct(7, testutil.WithTitle("changed"))))

	assert.Equal(t, before+1, s.Count())
	assert.Equal(t, "original", s.Favorites()[0].Title, "first write wins on content")
}

func TestRemoveFromFavorites(t *testing.T) {
	kv := store.NewMemoryKV()
	s := newStore(t, kv)
	ctx := context.Background()
	for _, p := range testutil.Products(3) {
		s.AddToFavorites(ctx, p)
	}

	s.RemoveFromFavorites(ctx, 2)
	assert.Equal(t, []int{3, 1}, testutil.IDs(s.Favorites()))
	assert.False(t, s.IsFavorite(2))
	assert.Equal(t, []int{3, 1}, storedIDs(t, kv))

	s.RemoveFromFavorites(ctx, 42)
	assert.Equal(t, 2, s.Count())
}

func TestToggleFavorite_IsInvolution(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()
	for _, p := range testutil.Products(4) {
		s.AddToFavorites(ctx, p)
	}
	before := testutil.IDs(s.Favorites())

	// Untouched entries keep their order when an existing one toggles twice.
	assert.False(t, s.ToggleFavorite(ctx, testutil.NewProduct(4)))
	assert.True(t, s.ToggleFavorite(ctx, testutil.NewProduct(4)))
	assert.ElementsMatch(t, before, testutil.IDs(s.Favorites()))

	// A new product toggled twice restores the exact list.
	before = testutil.IDs(s.Favorites())
	assert.True(t, s.ToggleFavorite(ctx, testutil.NewProduct(9)))
	assert.True(t, s.IsFavorite(9))
	assert.False(t, s.ToggleFavorite(ctx, testutil.NewProduct(9)))
	assert.Equal(t, before, testutil.IDs(s.Favorites()))
}

func TestClearFavorites(t *testing.T) {
	kv := store.NewMemoryKV()
	s := newStore(t, kv)
	ctx := context.Background()
	s.AddToFavorites(ctx, testutil.NewProduct(1))

	s.ClearFavorites(ctx)
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, storedIDs(t, kv))
}

func TestFavorites_ReturnsCopy(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()
	s.AddToFavorites(ctx, testutil.NewProduct(1))

	got := s.Favorites()
	got[0].Title = "mutated"
	ids := s.IDs()
	delete(ids, 1)

	assert.Equal(t, "Test Product 1", s.Favorites()[0].Title)
	assert.True(t, s.IsFavorite(1))
}

func TestSubscribe_SeesCommittedState(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()

	var changes []favorites.Change
	var countAtNotify int
	unsub := s.Subscribe(func(c favorites.Change) {
		changes = append(changes, c)
		countAtNotify = s.Count()
	})

	s.ToggleFavorite(ctx, testutil.NewProduct(5))
	require.Len(t, changes, 1)
	assert.Equal(t, favorites.ChangeAdded, changes[0].Kind)
	assert.Equal(t, 5, changes[0].ProductID)
	assert.Equal(t, 1, countAtNotify)

	s.AddToFavorites(ctx, testutil.NewProduct(5))
	assert.Len(t, changes, 1, "duplicate add must not notify")

	unsub()
	s.ClearFavorites(ctx)
	assert.Len(t, changes, 1)
}

func TestSubscribe_ConcurrentMutationsDeliveredInCommitOrder(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		delivered []favorites.Change
		first     = true
	)
	s.Subscribe(func(c favorites.Change) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		delivered = append(delivered, c)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.ToggleFavorite(ctx, testutil.NewProduct(1))
	}()
	<-entered
	go func() {
		defer wg.Done()
		s.ToggleFavorite(ctx, testutil.NewProduct(2))
	}()

	// The second mutation must not commit while the first is still being
	// delivered.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, s.Count())
	mu.Lock()
	assert.Empty(t, delivered)
	mu.Unlock()

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 2)
	assert.Equal(t, []int{1}, testutil.IDs(delivered[0].Favorites))
	assert.Equal(t, []int{2, 1}, testutil.IDs(delivered[1].Favorites))
	assert.Less(t, delivered[0].Version, delivered[1].Version)
	assert.Equal(t, testutil.IDs(s.Favorites()), testutil.IDs(delivered[len(delivered)-1].Favorites))
}

func TestSubscribe_VersionIncreasesPerCommit(t *testing.T) {
	s := newStore(t, store.NewMemoryKV())
	ctx := context.Background()

	var versions []uint64
	s.Subscribe(func(c favorites.Change) { versions = append(versions, c.Version) })

	s.AddToFavorites(ctx, testutil.NewProduct(1))
	s.AddToFavorites(ctx, testutil.NewProduct(1))
	s.RemoveFromFavorites(ctx, 1)
	s.ClearFavorites(ctx)

	assert.Equal(t, []uint64{1, 2, 3}, versions)
}

func TestPublisher_ReceivesChanges(t *testing.T) {
	bus := testutil.NewMockBus()
	s := newStore(t, store.NewMemoryKV(), favorites.WithPublisher(bus))
	ctx := context.Background()

	s.AddToFavorites(ctx, testutil.NewProduct(1))
	s.RemoveFromFavorites(ctx, 1)
	s.RemoveFromFavorites(ctx, 1)

	assert.Equal(t, []string{favorites.TopicChanged, favorites.TopicChanged}, bus.Topics())
	c, ok := bus.Events()[1].Payload.(favorites.Change)
	require.True(t, ok)
	assert.Equal(t, favorites.ChangeRemoved, c.Kind)
	assert.Empty(t, c.Favorites)
}

type failingKV struct{ *store.MemoryKV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	kv := failingKV{store.NewMemoryKV()}
	s := newStore(t, kv)

	assert.True(t, s.AddToFavorites(context.Background(), testutil.NewProduct(1)))
	assert.True(t, s.IsFavorite(1))
}

type recordingMetrics struct {
	kinds []string
	count int
}

func (m *recordingMetrics) FavoriteMutation(kind string) { m.kinds = append(m.kinds, kind) }
func (m *recordingMetrics) FavoritesCount(n int)         { m.count = n }

func TestMetrics_Recorded(t *testing.T) {
	m := &recordingMetrics{}
	s := newStore(t, store.NewMemoryKV(), favorites.WithMetrics(m))
	ctx := context.Background()

	s.ToggleFavorite(ctx, testutil.NewProduct(1))
	s.ToggleFavorite(ctx, testutil.NewProduct(2))
	s.ToggleFavorite(ctx, testutil.NewProduct(1))

	assert.Equal(t, []string{"added", "added", "removed"}, m.kinds)
	assert.Equal(t, 1, m.count)
}

func TestSQLiteBackedStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewStore(t)
	kv, err := store.NewSQLiteKV(ctx, db)
	require.NoError(t, err)

	first := newStore(t, kv)
	first.AddToFavorites(ctx, testutil.NewProduct(1))
	first.AddToFavorites(ctx, testutil.NewProduct(2))

	second := newStore(t, kv)
	assert.Equal(t, []int{2, 1}, testutil.IDs(second.Favorites()))
}
