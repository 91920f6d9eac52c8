package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/comment/application"
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
		tracer:  otel.Tracer("comment-http"),
	}
}

// Routes is mounted under /products/{id}/comments; the product id comes
// from the enclosing route pattern.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listComments)
	r.Post("/", h.addComment)
	return r
}

type addCommentReq struct {
	Body string `json:"body"`
}

type commentResp struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	UserID     string    `json:"userId"`
	AuthorName string    `json:"authorName,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListComments")
	defer span.End()

	views, err := h.service.ListWithAuthors(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if bus.IsTimeout(err) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "user_lookup_timeout"})
			return
		}
		h.log.Error("list comments failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	resp := make([]commentResp, 0, len(views))
	for _, v := range views {
		resp = append(resp, commentResp{
			ID:         v.ID,
			ProductID:  v.ProductID,
			UserID:     v.UserID,
			AuthorName: v.AuthorName,
			Body:       v.Body,
			CreatedAt:  v.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddComment")
	defer span.End()

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	var req addCommentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	c, err := h.service.Add(ctx, chi.URLParam(r, "id"), userID, req.Body)
	if err != nil {
		if errors.Is(err, application.ErrEmptyBody) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.log.Error("add comment failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	writeJSON(w, http.StatusCreated, commentResp{
		ID:        c.ID,
		ProductID: c.ProductID,
		UserID:    c.UserID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
