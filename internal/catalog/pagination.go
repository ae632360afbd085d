package catalog

import (
	"fmt"

	"github.com/HerbHall/shopfront/pkg/models"
)

// PageSize is the number of products shown per page.
const PageSize = 10

// TotalPages returns ceil(total/size), 0 for an empty list.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageSlice returns the products on page (1-based). An out-of-range page
// yields an empty slice.
func PageSlice(products []models.Product, page, size int) []models.Product {
	if page < 1 || size <= 0 {
		return []models.Product{}
	}
	start := (page - 1) * size
	if start >= len(products) {
		return []models.Product{}
	}
	end := min(start+size, len(products))
	return clone(products[start:end])
}

// CountText renders the result summary shown above the grid.
func CountText(total, page, size int, favoritesOnly bool) string {
	if total == 0 {
		return "No products found"
	}
	start := (page-1)*size + 1
	end := min(page*size, total)
	noun := "products"
	if total == 1 {
		noun = "product"
	}
	suffix := ""
	if favoritesOnly {
		suffix = " from favorites"
	}
	return fmt.Sprintf("Showing %d-%d of %d %s%s", start, end, total, noun, suffix)
}

// PageItem is one entry in a page-number bar: a page button or an ellipsis.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageNumbers lays out page buttons: first and last page always, the current
// page and its neighbours, and a single ellipsis for each gap that hides more
// than the neighbour slot (current-2 > 1 on the left, current+2 < total on
// the right).
func PageNumbers(current, total int) []PageItem {
	items := make([]PageItem, 0, 7)
	for page := 1; page <= total; page++ {
		leftGap := page == current-2 && current-2 > 1
		rightGap := page == current+2 && current+2 < total
		if leftGap || rightGap {
			items = append(items, PageItem{Ellipsis: true})
			continue
		}
		if page == 1 || page == total || (page >= current-1 && page <= current+1) {
			items = append(items, PageItem{Page: page, Current: page == current})
		}
	}
	return items
}

// Controls is the state of the pagination bar.
type Controls struct {
	Current int        `json:"current"`
	Total   int        `json:"total"`
	HasPrev bool       `json:"has_prev"`
	HasNext bool       `json:"has_next"`
	Pages   []PageItem `json:"pages"`
}

// NewControls returns the pagination bar for current/total, or nil when there
// is at most one page and nothing should be rendered.
func NewControls(current, total int) *Controls {
	if total <= 1 {
		return nil
	}
	return &Controls{
		Current: current,
		Total:   total,
		HasPrev: current > 1,
		HasNext: current < total,
		Pages:   PageNumbers(current, total),
	}
}
