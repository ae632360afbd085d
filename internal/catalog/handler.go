package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/server"
	"github.com/HerbHall/shopfront/pkg/models"
)

// ProductSource is the upstream catalog the handler reads from.
type ProductSource interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int) (*models.Product, error)
	GetCategories(ctx context.Context) ([]string, error)
}

// FavoriteIDs supplies the current favorites membership set.
type FavoriteIDs interface {
	IDs() map[int]struct{}
}

// ListResponse is the response for GET /api/v1/products.
type ListResponse struct {
	Items      []models.Product `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	CountText  string           `json:"count_text"`
	Criteria   Criteria         `json:"criteria"`
	Pages      *Controls        `json:"pages,omitempty"`
}

// CategoryResponse is one entry of GET /api/v1/categories.
type CategoryResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Handler serves the product browsing API.
type Handler struct {
	source    ProductSource
	favorites FavoriteIDs
	logger    *zap.Logger
}

// NewHandler creates a new product API handler.
func NewHandler(source ProductSource, favs FavoriteIDs, logger *zap.Logger) *Handler {
	return &Handler{source: source, favorites: favs, logger: logger}
}

// RegisterRoutes mounts the product routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.handleList)
	mux.HandleFunc("GET /api/v1/products/{id}", h.handleGet)
	mux.HandleFunc("GET /api/v1/categories", h.handleCategories)
}

// handleList returns one page of the filtered and sorted catalog.
//
//	@Summary		List products
//	@Description	Applies category, search, favorites and sort criteria to the catalog and returns one page of 10.
//	@Tags			products
//	@Produce		json
//	@Param			category query string false "Category value, or all" default(all)
//	@Param			q query string false "Case-insensitive title search"
//	@Param			favorites query bool false "Only favorited products"
//	@Param			sort query string false "default, price-asc or price-desc" default(default)
//	@Param			page query int false "1-based page" default(1)
//	@Success		200 {object} ListResponse
//	@Failure		400 {object} map[string]any
//	@Failure		502 {object} map[string]any
//	@Router			/products [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := DefaultCriteria()

	cat, ok := models.ParseCategory(q.Get("category"))
	if !ok {
		server.BadRequest(w, "unknown category "+strconv.Quote(q.Get("category")), r.URL.Path)
		return
	}
	criteria.Category = cat

	sortOpt, ok := models.ParseSortOption(q.Get("sort"))
	if !ok {
		server.BadRequest(w, "sort must be one of default, price-asc, price-desc", r.URL.Path)
		return
	}
	criteria.Sort = sortOpt
	criteria.Search = q.Get("q")

	if raw := q.Get("favorites"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			server.BadRequest(w, "favorites must be a boolean", r.URL.Path)
			return
		}
		criteria.FavoritesOnly = on
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			server.BadRequest(w, "page must be a positive integer", r.URL.Path)
			return
		}
		page = parsed
	}

	products, err := h.source.GetAllProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to load products", zap.Error(err))
		server.BadGateway(w, err.Error(), r.URL.Path)
		return
	}

	var favs IDSet
	if h.favorites != nil {
		favs = h.favorites.IDs()
	}
	derived := Apply(products, criteria, favs)
	total := TotalPages(len(derived), PageSize)

	writeJSON(w, http.StatusOK, ListResponse{
		Items:      PageSlice(derived, page, PageSize),
		Total:      len(derived),
		Page:       page,
		TotalPages: total,
		CountText:  CountText(len(derived), page, PageSize, criteria.FavoritesOnly),
		Criteria:   criteria,
		Pages:      NewControls(page, total),
	})
}

// handleGet returns a single product.
//
//	@Summary		Get product
//	@Tags			products
//	@Produce		json
//	@Param			id path int true "Product ID"
//	@Success		200 {object} models.Product
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Failure		502 {object} map[string]any
//	@Router			/products/{id} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		server.BadRequest(w, "id must be a positive integer", r.URL.Path)
		return
	}

	p, err := h.source.GetProductByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load product", zap.Int("product_id", id), zap.Error(err))
		server.BadGateway(w, err.Error(), r.URL.Path)
		return
	}
	if p == nil {
		server.NotFound(w, "product "+strconv.Itoa(id)+" not found", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleCategories returns the category filter options, "all" first.
//
//	@Summary		List categories
//	@Tags			products
//	@Produce		json
//	@Success		200 {array} CategoryResponse
//	@Router			/categories [get]
func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	values, err := h.source.GetCategories(r.Context())
	if err != nil {
		h.logger.Warn("category lookup failed, using defaults", zap.Error(err))
		values = models.DefaultCategories()
	}

	out := make([]CategoryResponse, 0, len(values)+1)
	out = append(out, CategoryResponse{Value: string(models.CategoryAll), Label: models.CategoryAll.Label()})
	for _, v := range values {
		out = append(out, CategoryResponse{Value: v, Label: models.Category(v).Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
