package models

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is a product category. CategoryAll is a filter sentinel and never
// appears on a real product.
type Category string

const (
	CategoryAll            Category = "all"
	CategoryMensClothing   Category = "men's clothing"
	CategoryWomensClothing Category = "women's clothing"
	CategoryJewelery       Category = "jewelery"
	CategoryElectronics    Category = "electronics"
)

//go:embed categories.yaml
var categoriesRawData []byte

// CategoryEntry pairs a category value with its display label.
type CategoryEntry struct {
	Value Category `yaml:"value" json:"value"`
	Label string   `yaml:"label" json:"label"`
}

type categoriesFile struct {
	Categories []CategoryEntry `yaml:"categories"`
}

var (
	categoriesOnce    sync.Once
	categoriesEntries []CategoryEntry
	categoriesErr     error
)

func loadCategories() {
	var f categoriesFile
	if err := yaml.Unmarshal(categoriesRawData, &f); err != nil {
		categoriesErr = fmt.Errorf("categories: parse yaml: %w", err)
		return
	}
	categoriesEntries = f.Categories
}

// CategoryEntries returns a copy of the embedded category table, without the
// "all" sentinel.
func CategoryEntries() ([]CategoryEntry, error) {
	categoriesOnce.Do(loadCategories)
	if categoriesErr != nil {
		return nil, categoriesErr
	}
	cp := make([]CategoryEntry, len(categoriesEntries))
	copy(cp, categoriesEntries)
	return cp, nil
}

// DefaultCategories returns the fixed category names used when the upstream
// categories endpoint fails.
func DefaultCategories() []string {
	entries, err := CategoryEntries()
	if err != nil {
		return []string{
			string(CategoryMensClothing),
			string(CategoryWomensClothing),
			string(CategoryJewelery),
			string(CategoryElectronics),
		}
	}
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = string(entries[i].Value)
	}
	return out
}

// Label returns the selector label for a category.
func (c Category) Label() string {
	if c == CategoryAll {
		return "All Products"
	}
	entries, _ := CategoryEntries()
	for i := range entries {
		if entries[i].Value == c {
			return entries[i].Label
		}
	}
	return string(c)
}

// ParseCategory converts a raw string into a Category. The empty string maps
// to CategoryAll. Only the closed set of known categories is accepted.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case "", CategoryAll:
		return CategoryAll, true
	case CategoryMensClothing, CategoryWomensClothing, CategoryJewelery, CategoryElectronics:
		return c, true
	}
	return CategoryAll, false
}
