// Package handlers exposes the storefront HTTP API: public page data,
// availability lookups, and the booking wizard session endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nightglass/storefront/internal/business"
	"github.com/nightglass/storefront/internal/catalog"
	"github.com/nightglass/storefront/internal/theme"
	"github.com/nightglass/storefront/pkg/logging"
)

// StorefrontHandler composes the public storefront page data: profile,
// derived theme, ordered menu categories, and section anchors.
type StorefrontHandler struct {
	repo     *catalog.Repository
	settings *business.Store
	deriver  *theme.Deriver
	logger   *logging.Logger
}

// NewStorefrontHandler creates the public page data handler.
func NewStorefrontHandler(repo *catalog.Repository, settings *business.Store, deriver *theme.Deriver, logger *logging.Logger) *StorefrontHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StorefrontHandler{
		repo:     repo,
		settings: settings,
		deriver:  deriver,
		logger:   logger.Component("storefront"),
	}
}

// Routes returns the public storefront routes.
func (h *StorefrontHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{businessID}", h.GetPage)
	return r
}

// StorefrontPage is the composed page payload.
type StorefrontPage struct {
	Business       catalog.Business   `json:"business"`
	ThemeVariables map[string]string  `json:"theme_variables"`
	DarkBackground bool               `json:"dark_background"`
	BookingEnabled bool               `json:"booking_enabled"`
	Links          []catalog.Link     `json:"links"`
	PaymentMethods []string           `json:"payment_methods"`
	Categories     []catalog.Category `json:"categories"`
}

// GetPage resolves a business into everything one storefront render needs.
// GET /storefront/{businessID}
func (h *StorefrontHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	if businessID == "" {
		http.Error(w, `{"error": "business_id required"}`, http.StatusBadRequest)
		return
	}

	data, err := h.repo.LoadStorefront(r.Context(), businessID)
	if errors.Is(err, catalog.ErrBusinessNotFound) {
		http.Error(w, `{"error": "business not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load storefront", "business_id", businessID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	settings, err := h.settings.Get(r.Context(), businessID)
	if err != nil {
		h.logger.Error("failed to load business settings", "business_id", businessID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	// Dashboard-edited seeds win over the catalog columns.
	seed := theme.ResolveSeed(
		firstNonEmpty(settings.ThemeColorBackground, data.ThemeBackground),
		firstNonEmpty(settings.ThemeColorText, data.ThemeText),
		firstNonEmpty(settings.ThemeColorButton, data.ThemeButton),
	)
	palette := h.deriver.Derive(seed)

	page := StorefrontPage{
		Business:       data.Business,
		ThemeVariables: palette.CSSVariables(),
		DarkBackground: palette.IsDarkBackground,
		BookingEnabled: settings.BookingEnabled,
		Links:          data.Links,
		PaymentMethods: data.PaymentMethods,
		Categories:     data.Categories,
	}

	writeJSON(w, h.logger, http.StatusOK, page)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
