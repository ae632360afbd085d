// Package catalog derives the visible product list from a source catalog and
// the user's browsing criteria, and paginates the result.
//
// The pipeline stages always run in the same order: category, search,
// favorites, sort. Each stage returns a new slice and never modifies its
// input, so the source catalog and the favorites set are never aliased.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/HerbHall/shopfront/pkg/models"
)

// IDSet is a product-id membership set.
type IDSet map[int]struct{}

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Criteria is the filter and sort input to Apply. Search is the settled
// (debounced) search text, never the raw keystrokes.
type Criteria struct {
	Category      models.Category   `json:"category"`
	Search        string            `json:"search"`
	FavoritesOnly bool              `json:"favorites_only"`
	Sort          models.SortOption `json:"sort"`
}

// DefaultCriteria returns the criteria a freshly mounted list starts with.
func DefaultCriteria() Criteria {
	return Criteria{
		Category: models.CategoryAll,
		Sort:     models.SortDefault,
	}
}

// Stage is one named step of the list pipeline.
type Stage struct {
	Name string
	Run  func([]models.Product) []models.Product
}

// Stages returns the pipeline for c in execution order.
func Stages(c Criteria, favorites IDSet) []Stage {
	return []Stage{
		{Name: "category", Run: func(p []models.Product) []models.Product { return FilterCategory(p, c.Category) }},
		{Name: "search", Run: func(p []models.Product) []models.Product { return FilterSearch(p, c.Search) }},
		{Name: "favorites", Run: func(p []models.Product) []models.Product {
			if !c.FavoritesOnly {
				return clone(p)
			}
			return FilterFavorites(p, favorites)
		}},
		{Name: "sort", Run: func(p []models.Product) []models.Product { return SortByPrice(p, c.Sort) }},
	}
}

// Apply runs the full pipeline over source. The result is always a new,
// non-nil slice.
func Apply(source []models.Product, c Criteria, favorites IDSet) []models.Product {
	out := source
	for _, st := range Stages(c, favorites) {
		out = st.Run(out)
	}
	if out == nil {
		out = []models.Product{}
	}
	return out
}

// FilterCategory keeps products whose category equals cat exactly.
// CategoryAll (or empty) keeps everything.
func FilterCategory(products []models.Product, cat models.Category) []models.Product {
	if cat == models.CategoryAll || cat == "" {
		return clone(products)
	}
	return filter(products, func(p *models.Product) bool {
		return p.Category == string(cat)
	})
}

// FilterSearch keeps products whose title contains the trimmed query,
// ignoring case. Only the title is matched. A blank query keeps everything.
func FilterSearch(products []models.Product, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(products)
	}
	return filter(products, func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Title), q)
	})
}

// FilterFavorites keeps products whose id is in favorites.
func FilterFavorites(products []models.Product, favorites IDSet) []models.Product {
	return filter(products, func(p *models.Product) bool {
		return favorites.Has(p.ID)
	})
}

// SortByPrice orders products by price with a stable sort, so equal prices
// keep their incoming order. SortDefault keeps the incoming order.
func SortByPrice(products []models.Product, opt models.SortOption) []models.Product {
	out := clone(products)
	switch opt {
	case models.SortPriceAsc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case models.SortPriceDesc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	}
	return out
}

func filter(products []models.Product, keep func(*models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if keep(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

func clone(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
