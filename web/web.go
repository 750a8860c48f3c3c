// Package web exposes the card registry over HTTP. The JSON API mirrors the
// MCP tool surface; the preview endpoint additionally renders a card's plan
// as a minimal HTML document with the sandbox boundary applied.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stampworks/stampcard/card"
	"github.com/stampworks/stampcard/notify"
	"github.com/stampworks/stampcard/shield"
)

// Handler serves the card HTTP API.
type Handler struct {
	registry *card.Registry
	acks     *notify.AckCenter
	logger   *slog.Logger

	// baseCtx parents fetch goroutines so they outlive the request that
	// started them. A request context would abort the fetch on response.
	baseCtx context.Context

	requestLog func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithRequestLogging installs a request-logging middleware after the
// shield stack.
func WithRequestLogging(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.requestLog = mw }
}

// NewHandler creates the HTTP surface over a registry. acks may be nil when
// no shared ack feed is exposed.
func NewHandler(baseCtx context.Context, reg *card.Registry, acks *notify.AckCenter, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{registry: reg, acks: acks, logger: logger, baseCtx: baseCtx}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes builds the chi router for the API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}
	if h.requestLog != nil {
		r.Use(h.requestLog)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/cards", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{cardID}", func(r chi.Router) {
			r.Get("/", h.handleView)
			r.Delete("/", h.handleDelete)
			r.Put("/stamp", h.handleSetStamp)
			r.Post("/reload", h.handleReload)
			r.Post("/select", h.handleSelect)
			r.Post("/tap", h.handleTap)
			r.Post("/buy", h.handleBuy)
			r.Post("/back", h.handleBack)
			r.Post("/modal", h.handleModal)
			r.Post("/copy", h.handleCopy)
			r.Put("/visible", h.handleVisible)
			r.Get("/preview", h.handlePreview)
		})
	})

	r.Get("/api/acks", h.handleAcks)

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StampID string `json:"stamp_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.registry.Create(h.baseCtx, strings.TrimSpace(req.StampID))
	if err != nil {
		h.logger.Error("card create failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c.Snapshot())
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(chi.URLParam(r, "cardID")); err != nil {
		jsonErr(w, "card not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (h *Handler) handleSetStamp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		StampID string `json:"stamp_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.StampID = strings.TrimSpace(req.StampID)
	if req.StampID == "" {
		jsonErr(w, "stamp_id is required", http.StatusBadRequest)
		return
	}

	c.SetStamp(h.baseCtx, req.StampID)
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	c.Reload(h.baseCtx)
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch err := c.SelectOffer(r.Context(), req.Source); {
	case errors.Is(err, card.ErrNotLoaded):
		jsonErr(w, "record not loaded", http.StatusConflict)
	case errors.Is(err, card.ErrUnknownOffer):
		jsonErr(w, "offer not in current record", http.StatusUnprocessableEntity)
	case err != nil:
		jsonErr(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, c.Snapshot())
	}
}

func (h *Handler) handleTap(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		Interactive bool `json:"interactive"`
	}
	// An empty body means a plain surface tap.
	_ = json.NewDecoder(r.Body).Decode(&req)

	c.Tap(req.Interactive)
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	c.Buy()
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	c.Back()
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleModal(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Open {
		switch err := c.OpenModal(); {
		case errors.Is(err, card.ErrNotLoaded):
			jsonErr(w, "record not loaded", http.StatusConflict)
			return
		case errors.Is(err, card.ErrNotPurchasable):
			jsonErr(w, "no offer available for purchase", http.StatusConflict)
			return
		case err != nil:
			jsonErr(w, "internal error", http.StatusInternalServerError)
			return
		}
	} else {
		c.CloseModal()
	}
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		jsonErr(w, "text is required", http.StatusBadRequest)
		return
	}

	ack := c.Copy(r.Context(), req.Text)
	shield.SetFlash(w, "success", "address copied")
	writeJSON(w, ack)
}

func (h *Handler) handleVisible(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c.SetVisible(req.Visible)
	writeJSON(w, c.Snapshot())
}

func (h *Handler) handleAcks(w http.ResponseWriter, _ *http.Request) {
	if h.acks == nil {
		writeJSON(w, []notify.Ack{})
		return
	}
	writeJSON(w, h.acks.Active())
}

func (h *Handler) card(w http.ResponseWriter, r *http.Request) (*card.Card, bool) {
	c, err := h.registry.Get(chi.URLParam(r, "cardID"))
	if err != nil {
		jsonErr(w, "card not found", http.StatusNotFound)
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
