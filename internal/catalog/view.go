package catalog

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/debounce"
	"github.com/HerbHall/shopfront/internal/favorites"
	"github.com/HerbHall/shopfront/pkg/models"
)

// DefaultSearchDelay is the settle time applied to raw search input.
const DefaultSearchDelay = 300 * time.Millisecond

// FavoritesSource is the part of the favorites store a View depends on.
type FavoritesSource interface {
	IDs() map[int]struct{}
	Subscribe(fn func(favorites.Change)) func()
}

var _ FavoritesSource = (*favorites.Store)(nil)

// Snapshot is a consistent read of everything a list renderer needs.
type Snapshot struct {
	Criteria   Criteria         `json:"criteria"`
	RawSearch  string           `json:"raw_search"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
	Items      []models.Product `json:"items"`
	CountText  string           `json:"count_text"`
	Controls   *Controls        `json:"controls,omitempty"`
}

// ViewOption configures a View.
type ViewOption func(*viewOptions)

type viewOptions struct {
	delay     time.Duration
	scheduler debounce.Scheduler
	logger    *zap.Logger
}

// WithSearchDelay overrides DefaultSearchDelay.
func WithSearchDelay(d time.Duration) ViewOption {
	return func(o *viewOptions) { o.delay = d }
}

// WithScheduler sets the timer source for the search debouncer.
func WithScheduler(s debounce.Scheduler) ViewOption {
	return func(o *viewOptions) { o.scheduler = s }
}

// WithLogger sets the view logger.
func WithLogger(l *zap.Logger) ViewOption {
	return func(o *viewOptions) { o.logger = l }
}

// View is the page-change controller for one product list. It owns the
// source catalog, the criteria, and the current page, and recomputes the
// derived list whenever any of them or the favorites set changes.
//
// A change to category, settled search, favorites-only, or sort resets the
// page to 1. Changes to the source catalog or to the favorites set do not;
// the page is only pulled back to the last page if it fell off the end.
// That clamp departs from GoToPage, where an out-of-range page is kept and
// renders as an empty page: a page that shrank away underneath the reader
// moves to the last page instead.
//
// Favorites changes are applied by re-reading the store, never from the
// change payload, so the view always converges on the store's current set.
type View struct {
	mu        sync.Mutex
	logger    *zap.Logger
	source    []models.Product
	criteria  Criteria
	favs      FavoritesSource
	favIDs    IDSet
	page      int
	derived   []models.Product
	search    *debounce.Debouncer[string]
	unsubs    []func()
	subs      map[int]func(Snapshot)
	nextSubID int
	closed    bool
}

// NewView returns a View over source with default criteria on page 1.
// favs may be nil, in which case the favorites set is always empty.
func NewView(source []models.Product, favs FavoritesSource, opts ...ViewOption) *View {
	o := viewOptions{delay: DefaultSearchDelay, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	v := &View{
		logger:   o.logger.Named("catalog"),
		source:   clone(source),
		criteria: DefaultCriteria(),
		favIDs:   IDSet{},
		page:     1,
		subs:     make(map[int]func(Snapshot)),
	}

	dopts := []debounce.Option{debounce.WithLogger(o.logger)}
	if o.scheduler != nil {
		dopts = append(dopts, debounce.WithScheduler(o.scheduler))
	}
	v.search = debounce.New("", o.delay, dopts...)
	v.unsubs = append(v.unsubs, v.search.Subscribe(v.applySearch))

	if favs != nil {
		v.favs = favs
		v.favIDs = favs.IDs()
		v.unsubs = append(v.unsubs, favs.Subscribe(v.applyFavorites))
	}

	v.derived = Apply(v.source, v.criteria, v.favIDs)
	return v
}

// SetSource replaces the source catalog.
func (v *View) SetSource(products []models.Product) {
	v.update(func() bool {
		v.source = clone(products)
		return false
	})
}

// SetCategory selects a category.
func (v *View) SetCategory(c models.Category) {
	v.update(func() bool {
		if v.criteria.Category == c {
			return false
		}
		v.criteria.Category = c
		return true
	})
}

// SetSearch records raw search input. The criteria only change once the
// input has been stable for the search delay.
func (v *View) SetSearch(raw string) {
	v.search.Set(raw)
}

// SetFavoritesOnly restricts the list to favorited products.
func (v *View) SetFavoritesOnly(on bool) {
	v.update(func() bool {
		if v.criteria.FavoritesOnly == on {
			return false
		}
		v.criteria.FavoritesOnly = on
		return true
	})
}

// SetSort selects the sort order.
func (v *View) SetSort(s models.SortOption) {
	v.update(func() bool {
		if v.criteria.Sort == s {
			return false
		}
		v.criteria.Sort = s
		return true
	})
}

func (v *View) applySearch(settled string) {
	v.update(func() bool {
		if v.criteria.Search == settled {
			return false
		}
		v.criteria.Search = settled
		return true
	})
}

func (v *View) applyFavorites(favorites.Change) {
	ids := IDSet(v.favs.IDs())
	v.update(func() bool {
		v.favIDs = ids
		return false
	})
}

// update runs mutate under the lock, recomputes, and notifies subscribers.
// mutate reports whether the criteria changed.
func (v *View) update(mutate func() bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if mutate() {
		v.page = 1
		v.logger.Debug("criteria changed",
			zap.String("category", string(v.criteria.Category)),
			zap.String("search", v.criteria.Search),
			zap.Bool("favorites_only", v.criteria.FavoritesOnly),
			zap.String("sort", string(v.criteria.Sort)),
		)
	}
	v.derived = Apply(v.source, v.criteria, v.favIDs)
	if total := TotalPages(len(v.derived), PageSize); v.page > total {
		v.page = max(total, 1)
	}
	snap := v.snapshotLocked()
	subs := v.subscribersLocked()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// GoToPage sets the current page. Callers are expected to pass a page in
// [1, TotalPages]; an out-of-range page renders as empty.
func (v *View) GoToPage(page int) {
	v.mu.Lock()
	if v.closed || v.page == page {
		v.mu.Unlock()
		return
	}
	v.page = page
	snap := v.snapshotLocked()
	subs := v.subscribersLocked()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// NextPage advances one page. It reports false and does nothing on the last page.
func (v *View) NextPage() bool {
	v.mu.Lock()
	page := v.page
	total := TotalPages(len(v.derived), PageSize)
	v.mu.Unlock()
	if page >= total {
		return false
	}
	v.GoToPage(page + 1)
	return true
}

// PrevPage goes back one page. It reports false and does nothing on page 1.
func (v *View) PrevPage() bool {
	v.mu.Lock()
	page := v.page
	v.mu.Unlock()
	if page <= 1 {
		return false
	}
	v.GoToPage(page - 1)
	return true
}

// Criteria returns the active criteria.
func (v *View) Criteria() Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

// CurrentPage returns the 1-based current page.
func (v *View) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// TotalPages returns the page count of the derived list.
func (v *View) TotalPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return TotalPages(len(v.derived), PageSize)
}

// Derived returns a copy of the full filtered and sorted list.
func (v *View) Derived() []models.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return clone(v.derived)
}

// Page returns the products on the current page.
func (v *View) Page() []models.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return PageSlice(v.derived, v.page, PageSize)
}

// CountText returns the result summary for the current page.
func (v *View) CountText() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CountText(len(v.derived), v.page, PageSize, v.criteria.FavoritesOnly)
}

// Controls returns the pagination bar, or nil when there is at most one page.
func (v *View) Controls() *Controls {
	v.mu.Lock()
	defer v.mu.Unlock()
	return NewControls(v.page, TotalPages(len(v.derived), PageSize))
}

// Snapshot returns the full render state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe registers fn to receive a Snapshot after every state change.
// The returned func unsubscribes.
func (v *View) Subscribe(fn func(Snapshot)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSubID
	v.nextSubID++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// Close stops the search debouncer and detaches from the favorites store.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	v.search.Stop()
	for _, u := range unsubs {
		u()
	}
}

func (v *View) snapshotLocked() Snapshot {
	total := TotalPages(len(v.derived), PageSize)
	return Snapshot{
		Criteria:   v.criteria,
		RawSearch:  v.search.Pending(),
		Page:       v.page,
		TotalPages: total,
		Total:      len(v.derived),
		Items:      PageSlice(v.derived, v.page, PageSize),
		CountText:  CountText(len(v.derived), v.page, PageSize, v.criteria.FavoritesOnly),
		Controls:   NewControls(v.page, total),
	}
}

func (v *View) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(v.subs))
	for _, fn := range v.subs {
		out = append(out, fn)
	}
	return out
}
