package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/quantity", h.changeQuantity)
	r.Delete("/cart/items/{productId}", h.removeItem)
	r.Delete("/cart/clear", h.clearCart)
	return r
}

type addItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type changeQuantityReq struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
}

type cartItemResp struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartResp struct {
	UserID string         `json:"userId"`
	Items  []cartItemResp `json:"items"`
}

type stockErrResp struct {
	Error     string `json:"error"`
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	cart, err := h.service.Get(ctx, userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := cartResp{UserID: cart.UserID, Items: make([]cartItemResp, 0, len(cart.Items))}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, cartItemResp{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddItem")
	defer span.End()

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.service.AddItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) changeQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChangeQuantity")
	defer span.End()

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var req changeQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.service.ChangeQuantity(ctx, userID, req.ProductID, req.Delta); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveItem")
	defer span.End()

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveItem(ctx, userID, chi.URLParam(r, "productId")); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCart")
	defer span.End()

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.Clear(ctx, userID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail translates engine outcomes into client responses. Insufficient stock
// and a timed-out availability check are distinct failures and must stay
// distinguishable for the caller.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var stockErr *domain.StockInsufficientError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, stockErrResp{
			Error:     "stock_insufficient",
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		})
	case bus.IsTimeout(err):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stock_check_timeout"})
	case errors.Is(err, application.ErrInvalidQuantity), errors.Is(err, application.ErrInvalidDelta):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.log.Error("cart mutation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

// The gateway authenticates and forwards the caller's identity.
func userFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
