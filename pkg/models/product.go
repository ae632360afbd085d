package models

// Rating is the aggregate customer rating shown on a product card.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a catalog item as served by the upstream store API.
// ID is the only equality key; every other field is passed through.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// SortOption selects the ordering applied at the end of the list pipeline.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
)

// SortLabel maps a SortOption to the label shown in the sort selector.
var SortLabel = map[SortOption]string{
	SortDefault:   "Default",
	SortPriceAsc:  "Price: Low to High",
	SortPriceDesc: "Price: High to Low",
}

// ParseSortOption converts a raw string into a SortOption.
// The empty string maps to SortDefault.
func ParseSortOption(s string) (SortOption, bool) {
	switch SortOption(s) {
	case "", SortDefault:
		return SortDefault, true
	case SortPriceAsc:
		return SortPriceAsc, true
	case SortPriceDesc:
		return SortPriceDesc, true
	}
	return SortDefault, false
}

// Label returns the selector label, or the raw value for unknown options.
func (o SortOption) Label() string {
	if l, ok := SortLabel[o]; ok {
		return l
	}
	return string(o)
}
