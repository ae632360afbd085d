package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/server"
	"github.com/HerbHall/shopfront/pkg/models"
)

// feedBuffer is the number of undelivered changes a websocket client may
// lag behind before it is disconnected.
const feedBuffer = 16

// SavedText renders the favorites page summary.
func SavedText(n int) string {
	if n == 1 {
		return "1 product saved"
	}
	return fmt.Sprintf("%d products saved", n)
}

// ListResponse is the response for GET /api/v1/favorites.
type ListResponse struct {
	Items     []models.Product `json:"items"`
	Count     int              `json:"count"`
	SavedText string           `json:"saved_text"`
}

// MembershipResponse reports whether one product is a favorite.
type MembershipResponse struct {
	ProductID int  `json:"product_id"`
	Favorite  bool `json:"favorite"`
}

// Handler serves the favorites API and the live change feed.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a favorites API handler over s.
func NewHandler(s *Store, logger *zap.Logger) *Handler {
	return &Handler{store: s, logger: logger.Named("favorites.api")}
}

// RegisterRoutes mounts the favorites routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/favorites", h.handleList)
	mux.HandleFunc("POST /api/v1/favorites", h.handleAdd)
	mux.HandleFunc("DELETE /api/v1/favorites", h.handleClear)
	mux.HandleFunc("GET /api/v1/favorites/ws", h.handleFeed)
	mux.HandleFunc("POST /api/v1/favorites/toggle", h.handleToggle)
	mux.HandleFunc("GET /api/v1/favorites/{id}", h.handleGet)
	mux.HandleFunc("DELETE /api/v1/favorites/{id}", h.handleRemove)
}

// handleList returns all favorites, newest first.
//
//	@Summary		List favorites
//	@Tags			favorites
//	@Produce		json
//	@Success		200 {object} ListResponse
//	@Router			/favorites [get]
func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	items := h.store.Favorites()
	writeJSON(w, http.StatusOK, ListResponse{
		Items:     items,
		Count:     len(items),
		SavedText: SavedText(len(items)),
	})
}

// handleAdd adds the product in the request body.
//
//	@Summary		Add favorite
//	@Description	Adds a product snapshot to favorites. Adding a product that is already a favorite is a no-op.
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			product body models.Product true "Product snapshot"
//	@Success		200 {object} MembershipResponse "already a favorite"
//	@Success		201 {object} MembershipResponse "added"
//	@Failure		400 {object} map[string]any
//	@Router			/favorites [post]
func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if h.store.AddToFavorites(r.Context(), p) {
		status = http.StatusCreated
	}
	writeJSON(w, status, MembershipResponse{ProductID: p.ID, Favorite: true})
}

// handleToggle flips membership of the product in the request body.
//
//	@Summary		Toggle favorite
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			product body models.Product true "Product snapshot"
//	@Success		200 {object} MembershipResponse
//	@Failure		400 {object} map[string]any
//	@Router			/favorites/toggle [post]
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	now := h.store.ToggleFavorite(r.Context(), p)
	writeJSON(w, http.StatusOK, MembershipResponse{ProductID: p.ID, Favorite: now})
}

// handleGet reports whether a product is a favorite.
//
//	@Summary		Favorite membership
//	@Tags			favorites
//	@Produce		json
//	@Param			id path int true "Product ID"
//	@Success		200 {object} MembershipResponse
//	@Failure		400 {object} map[string]any
//	@Router			/favorites/{id} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, MembershipResponse{ProductID: id, Favorite: h.store.IsFavorite(id)})
}

// handleRemove removes a product from favorites. Removing an absent id
// succeeds.
//
//	@Summary		Remove favorite
//	@Tags			favorites
//	@Param			id path int true "Product ID"
//	@Success		204
//	@Failure		400 {object} map[string]any
//	@Router			/favorites/{id} [delete]
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.store.RemoveFromFavorites(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// handleClear removes every favorite.
//
//	@Summary		Clear favorites
//	@Tags			favorites
//	@Success		204
//	@Router			/favorites [delete]
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearFavorites(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleFeed upgrades to a websocket and pushes a Change for every
// committed mutation. The first message is the current list with an empty
// kind; changes already contained in it are not sent again.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	changes := make(chan Change, feedBuffer)
	lagged := make(chan struct{})
	var once sync.Once
	unsub := h.store.Subscribe(func(c Change) {
		select {
		case changes <- c:
		default:
			once.Do(func() { close(lagged) })
		}
	})
	defer unsub()

	current := h.store.Current()
	if err := writeFeed(ctx, conn, current); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-lagged:
			h.logger.Warn("favorites feed client lagging, dropping connection")
			conn.Close(websocket.StatusPolicyViolation, "client too slow")
			return
		case c := <-changes:
			if c.Version <= current.Version {
				continue
			}
			if err := writeFeed(ctx, conn, c); err != nil {
				h.logger.Debug("favorites feed write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeFeed(ctx context.Context, conn *websocket.Conn, c Change) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if c.Favorites == nil {
		c.Favorites = []models.Product{}
	}
	return wsjson.Write(ctx, conn, c)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (models.Product, bool) {
	var p models.Product
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		server.BadRequest(w, "invalid product body: "+err.Error(), r.URL.Path)
		return p, false
	}
	if p.ID < 1 {
		server.BadRequest(w, "product id must be a positive integer", r.URL.Path)
		return p, false
	}
	return p, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		server.BadRequest(w, "id must be a positive integer", r.URL.Path)
		return 0, false
	}
	return id, true
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
