package testutil

import (
	"fmt"

	"github.com/HerbHall/shopfront/pkg/models"
)

// NewProduct returns a Product with sensible defaults, suitable for test
// fixtures. Override individual fields with options.
func NewProduct(id int, opts ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:          id,
		Title:       fmt.Sprintf("Test Product %d", id),
		Price:       10,
		Description: "test description",
		Category:    string(models.CategoryElectronics),
		Image:       fmt.Sprintf("https://img.example.test/%d.jpg", id),
		Rating:      models.Rating{Rate: 4.1, Count: 120},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithTitle sets the product title.
func WithTitle(title string) func(*models.Product) {
	return func(p *models.Product) { p.Title = title }
}

// WithPrice sets the product price.
func WithPrice(price float64) func(*models.Product) {
	return func(p *models.Product) { p.Price = price }
}

// WithCategory sets the product category.
func WithCategory(c models.Category) func(*models.Product) {
	return func(p *models.Product) { p.Category = string(c) }
}

// Products returns n default products with ids 1..n.
func Products(n int) []models.Product {
	out := make([]models.Product, n)
	for i := range out {
		out[i] = NewProduct(i + 1)
	}
	return out
}

// IDs returns the ids of products in order.
func IDs(products []models.Product) []int {
	out := make([]int, len(products))
	for i := range products {
		out[i] = products[i].ID
	}
	return out
}

// Catalog returns a small mixed catalog resembling the store API's data.
func Catalog() []models.Product {
	return []models.Product{
		NewProduct(1, WithTitle("Fjallraven Backpack"), WithPrice(109.95), WithCategory(models.CategoryMensClothing)),
		NewProduct(2, WithTitle("Mens Casual Premium Slim Fit T-Shirts"), WithPrice(22.3), WithCategory(models.CategoryMensClothing)),
		NewProduct(3, WithTitle("Mens Cotton Jacket"), WithPrice(55.99), WithCategory(models.CategoryMensClothing)),
		NewProduct(5, WithTitle("Legends Naga Gold & Silver Dragon Station Chain Bracelet"), WithPrice(695), WithCategory(models.CategoryJewelery)),
		NewProduct(6, WithTitle("Solid Gold Petite Micropave"), WithPrice(168), WithCategory(models.CategoryJewelery)),
		NewProduct(9, WithTitle("WD 2TB Elements Portable External Hard Drive"), WithPrice(64), WithCategory(models.CategoryElectronics)),
		NewProduct(10, WithTitle("SanDisk SSD PLUS 1TB Internal SSD"), WithPrice(109), WithCategory(models.CategoryElectronics)),
		NewProduct(15, WithTitle("BIYLACLESEN Women's 3-in-1 Snowboard Jacket"), WithPrice(56.99), WithCategory(models.CategoryWomensClothing)),
		NewProduct(18, WithTitle("MBJ Women's Solid Short Sleeve Boat Neck V"), WithPrice(9.85), WithCategory(models.CategoryWomensClothing)),
	}
}
