package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"shop-api/internal/auth"
	"shop-api/internal/models"
	"shop-api/internal/ratelimit"
	"shop-api/internal/store"
)

const basePath = "/api/v1"

// orders carry the creation time in the same layout as JavaScript's toISOString.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

type Store interface {
	List(c store.Collection) ([]models.Record, error)
	FindByID(c store.Collection, id string) (models.Record, error)
	Insert(ctx context.Context, c store.Collection, fields models.Record) (models.Record, error)
	Update(ctx context.Context, c store.Collection, id string, partial models.Record) (models.Record, error)
	Delete(ctx context.Context, c store.Collection, id string) (models.Record, error)
	ToggleWishlist(ctx context.Context, userID, productID string) (string, []any, error)
	Stats() models.StatsResponse
}

type Authenticator interface {
	Login(email any) (*models.LoginResponse, error)
}

type Handler struct {
	store        Store
	auth         Authenticator
	loginLimiter ratelimit.Limiter
	now          func() time.Time
}

func NewHandler(st Store, login Authenticator, loginLimiter ratelimit.Limiter) *Handler {
	if loginLimiter == nil {
		loginLimiter = ratelimit.Nop{}
	}
	return &Handler{
		store:        st,
		auth:         login,
		loginLimiter: loginLimiter,
		now:          time.Now,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	users := resource{store: h.store, collection: store.Users, name: "User", notFound: msgUserNotFound}
	products := resource{store: h.store, collection: store.Products, name: "Product", notFound: msgProductNotFound}
	for prefix, res := range map[string]resource{"/users": users, "/products": products} {
		mux.HandleFunc("GET "+basePath+prefix, res.List)
		mux.HandleFunc("GET "+basePath+prefix+"/{id}", res.Get)
		mux.HandleFunc("POST "+basePath+prefix, res.Create)
		mux.HandleFunc("PUT "+basePath+prefix+"/{id}", res.Update)
		mux.HandleFunc("DELETE "+basePath+prefix+"/{id}", res.Delete)
	}

	mux.HandleFunc("POST "+basePath+"/auth/login", RateLimit(h.loginLimiter, "login", h.Login))

	mux.HandleFunc("GET "+basePath+"/orders", h.ListOrders)
	mux.HandleFunc("POST "+basePath+"/orders", h.CreateOrder)

	mux.HandleFunc("GET "+basePath+"/stats", h.Stats)

	mux.HandleFunc("POST "+basePath+"/wishlist/{productId}/toggle", h.ToggleWishlist)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgRouteNotFound)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	resp, err := h.auth.Login(body["email"])
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	if err != nil {
		slog.Error("Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	slog.Info("User logged in", "id", resp.User.ID())
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(store.Orders)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	body["createdAt"] = h.now().UTC().Format(createdAtLayout)

	order, err := h.store.Insert(r.Context(), store.Orders, body)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}

	slog.Info("Order created", "id", order.ID())
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	userID, _ := body["userId"].(string)
	if userID == "" {
		writeError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	productID := r.PathValue("productId")
	action, wishlist, err := h.store.ToggleWishlist(r.Context(), userID, productID)
	if err != nil {
		writeStoreError(w, err, msgUserNotFound)
		return
	}

	slog.Info("Wishlist toggled", "user_id", userID, "product_id", productID, "action", action)
	writeJSON(w, http.StatusOK, models.WishlistToggleResponse{Action: action, Wishlist: wishlist})
}

// resource serves list/get/create/update/delete for one collection.
type resource struct {
	store      Store
	collection store.Collection
	name       string
	notFound   string
}

func (res resource) List(w http.ResponseWriter, r *http.Request) {
	records, err := res.store.List(res.collection)
	if err != nil {
		writeStoreError(w, err, res.notFound)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (res resource) Get(w http.ResponseWriter, r *http.Request) {
	record, err := res.store.FindByID(res.collection, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, res.notFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (res resource) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	record, err := res.store.Insert(r.Context(), res.collection, body)
	if err != nil {
		writeStoreError(w, err, res.notFound)
		return
	}

	slog.Info(res.name+" created", "collection", res.collection, "id", record.ID())
	writeJSON(w, http.StatusCreated, record)
}

func (res resource) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	record, err := res.store.Update(r.Context(), res.collection, r.PathValue("id"), body)
	if err != nil {
		writeStoreError(w, err, res.notFound)
		return
	}

	slog.Info(res.name+" updated", "collection", res.collection, "id", record.ID())
	writeJSON(w, http.StatusOK, record)
}

func (res resource) Delete(w http.ResponseWriter, r *http.Request) {
	removed, err := res.store.Delete(r.Context(), res.collection, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, res.notFound)
		return
	}

	slog.Info(res.name+" deleted", "collection", res.collection, "id", removed.ID())
	writeJSON(w, http.StatusOK, models.DeletedResponse{Deleted: removed.ID()})
}

// writeStoreError maps store errors to a status and a client-safe message.
func writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrPersist):
		writeError(w, http.StatusInternalServerError, msgPersistFailed)
	default:
		slog.Error("Store operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
