package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nightglass/storefront/internal/availability"
	"github.com/nightglass/storefront/internal/catalog"
	"github.com/nightglass/storefront/internal/tenancy"
	"github.com/nightglass/storefront/internal/wizard"
	"github.com/nightglass/storefront/pkg/logging"
)

// WizardHandler drives booking wizard sessions over HTTP. Each request
// rehydrates the machine from the session store, applies one transition,
// and persists the result.
type WizardHandler struct {
	sessions  *wizard.SessionStore
	services  *catalog.Repository
	submitter wizard.Submitter
	logger    *logging.Logger
}

// NewWizardHandler creates the wizard session endpoints.
func NewWizardHandler(sessions *wizard.SessionStore, services *catalog.Repository, submitter wizard.Submitter, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WizardHandler{
		sessions:  sessions,
		services:  services,
		submitter: submitter,
		logger:    logger.Component("wizard"),
	}
}

// Routes returns the tenant-scoped wizard routes.
func (h *WizardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Post("/sessions/{sessionID}/service", h.SelectService)
	r.Post("/sessions/{sessionID}/slot", h.SelectSlot)
	r.Post("/sessions/{sessionID}/back", h.Back)
	r.Post("/sessions/{sessionID}/confirm", h.Confirm)
	return r
}

// sessionView is the wire representation of wizard state.
type sessionView struct {
	SessionID         string                 `json:"session_id"`
	Step              wizard.Step            `json:"step"`
	Service           *catalog.Service       `json:"service,omitempty"`
	Slot              *availability.TimeSlot `json:"slot,omitempty"`
	OccupancyDuration int                    `json:"occupancy_duration_minutes,omitempty"`
}

func viewOf(sessionID string, m *wizard.Machine) sessionView {
	return sessionView{
		SessionID:         sessionID,
		Step:              m.Step(),
		Service:           m.Service(),
		Slot:              m.Slot(),
		OccupancyDuration: m.OccupancyDuration(),
	}
}

// CreateSession starts a fresh wizard for the tenant in context.
// POST /bookings/sessions
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	businessID, ok := tenancy.BusinessIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "missing business context"}`, http.StatusBadRequest)
		return
	}

	sessionID, machine, err := h.sessions.Create(r.Context(), businessID)
	if err != nil {
		h.logger.Error("failed to create wizard session", "business_id", businessID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, viewOf(sessionID, machine))
}

// GetSession returns the current wizard state.
// GET /bookings/sessions/{sessionID}
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	machine, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, sessionID, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, viewOf(sessionID, machine))
}

// SelectService applies the service-selection transition.
// POST /bookings/sessions/{sessionID}/service
func (h *WizardHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceID int64 `json:"service_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	machine, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, sessionID, err)
		return
	}

	businessID, _ := tenancy.BusinessIDFromContext(r.Context())
	services, err := h.services.ListServices(r.Context(), businessID)
	if err != nil {
		h.logger.Error("failed to list services", "business_id", businessID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	var selected *catalog.Service
	for i := range services {
		if services[i].ID == req.ServiceID {
			selected = &services[i]
			break
		}
	}
	if selected == nil {
		http.Error(w, `{"error": "unknown service"}`, http.StatusNotFound)
		return
	}

	if err := machine.SelectService(*selected); err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.persistAndRespond(w, r, sessionID, machine)
}

// SelectSlot applies the slot-selection transition.
// POST /bookings/sessions/{sessionID}/slot
func (h *WizardHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	date, err := availability.ParseDate(req.Date)
	if err != nil {
		http.Error(w, `{"error": "date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	machine, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, sessionID, err)
		return
	}

	if err := machine.SelectSlot(availability.TimeSlot{Date: date, Time: req.Time}); err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.persistAndRespond(w, r, sessionID, machine)
}

// Back steps the wizard one screen backward.
// POST /bookings/sessions/{sessionID}/back
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	machine, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, sessionID, err)
		return
	}

	if err := machine.Back(); err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.persistAndRespond(w, r, sessionID, machine)
}

// Confirm submits the booking. On upstream failure the session stays in
// Confirm with the error surfaced; on success the session is deleted.
// POST /bookings/sessions/{sessionID}/confirm
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var customer wizard.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	machine, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, sessionID, err)
		return
	}

	receipt, err := machine.Submit(r.Context(), customer, h.submitter)
	if errors.Is(err, wizard.ErrInvalidTransition) || errors.Is(err, wizard.ErrIncompleteBooking) {
		h.respondTransitionError(w, err)
		return
	}
	if err != nil {
		// Keep the session so the user can retry from the confirm screen.
		writeJSON(w, h.logger, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		h.logger.Warn("failed to delete submitted session", "session_id", sessionID, "error", err)
	}
	writeJSON(w, h.logger, http.StatusOK, receipt)
}

func (h *WizardHandler) persistAndRespond(w http.ResponseWriter, r *http.Request, sessionID string, machine *wizard.Machine) {
	if err := h.sessions.Save(r.Context(), sessionID, machine); err != nil {
		h.logger.Error("failed to save wizard session", "session_id", sessionID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, viewOf(sessionID, machine))
}

func (h *WizardHandler) respondSessionError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, wizard.ErrSessionNotFound) {
		http.Error(w, `{"error": "session not found"}`, http.StatusNotFound)
		return
	}
	h.logger.Error("failed to load wizard session", "session_id", sessionID, "error", err)
	http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
}

func (h *WizardHandler) respondTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrInvalidTransition):
		writeJSON(w, h.logger, http.StatusConflict, map[string]string{"error": "step not allowed from current state"})
	case errors.Is(err, wizard.ErrIncompleteBooking):
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, map[string]string{"error": "incomplete booking details"})
	case errors.Is(err, wizard.ErrBookingDisabled):
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, map[string]string{"error": "service not bookable online"})
	default:
		writeJSON(w, h.logger, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
