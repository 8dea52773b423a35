package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nightglass/storefront/internal/availability"
	"github.com/nightglass/storefront/internal/business"
	"github.com/nightglass/storefront/internal/tenancy"
	"github.com/nightglass/storefront/pkg/logging"
)

// AvailabilityHandler proxies calendar overview and slot lookups for the
// tenant in context. "Today" for the past-date guard is the tenant's own
// calendar day, not the server's.
type AvailabilityHandler struct {
	client          *availability.Client
	settings        *business.Store
	lookaheadMonths int
	logger          *logging.Logger
	now             func() time.Time
}

// NewAvailabilityHandler creates the availability endpoints.
func NewAvailabilityHandler(client *availability.Client, settings *business.Store, lookaheadMonths int, logger *logging.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{
		client:          client,
		settings:        settings,
		lookaheadMonths: lookaheadMonths,
		logger:          logger.Component("availability"),
		now:             time.Now,
	}
}

// Routes returns the tenant-scoped availability routes.
func (h *AvailabilityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.GetOverview)
	r.Get("/slots", h.GetSlots)
	return r
}

// GetOverview returns the days with any availability for the visible month
// plus the configured lookahead.
// GET /availability/overview?month=YYYY-MM
func (h *AvailabilityHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	businessID, ok := tenancy.BusinessIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "missing business context"}`, http.StatusBadRequest)
		return
	}

	visible := h.now()
	if month := r.URL.Query().Get("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			http.Error(w, `{"error": "month must be YYYY-MM"}`, http.StatusBadRequest)
			return
		}
		visible = parsed
	}

	start, end := availability.MonthWindow(visible, h.lookaheadMonths)
	dates, err := h.client.FetchOverview(r.Context(), businessID, start, end)
	if err != nil {
		h.logger.Error("overview fetch failed", "business_id", businessID, "error", err)
		writeJSON(w, h.logger, http.StatusBadGateway, map[string]string{"error": "availability temporarily unavailable"})
		return
	}

	out := make([]string, 0, len(dates))
	for d := range dates {
		out = append(out, d.String())
	}
	sort.Strings(out)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"availableDates": out})
}

// GetSlots returns the open start times on one day for a duration. Guard
// failures (past date, bad duration) are rejected locally without touching
// the upstream service, and slots outside the business's opening hours are
// dropped from the upstream response.
// GET /availability/slots?date=YYYY-MM-DD&duration=60
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	businessID, ok := tenancy.BusinessIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "missing business context"}`, http.StatusBadRequest)
		return
	}

	date, err := availability.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, `{"error": "date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		http.Error(w, `{"error": "duration must be an integer"}`, http.StatusBadRequest)
		return
	}

	settings, err := h.settings.Get(r.Context(), businessID)
	if err != nil {
		h.logger.Error("failed to load business settings", "business_id", businessID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	loc := settings.Location()

	today := availability.NewDate(h.now().In(loc))
	if err := availability.ValidateRequest(date, duration, today); err != nil {
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	slots, err := h.client.FetchTimeSlots(r.Context(), businessID, date, duration)
	if err != nil {
		h.logger.Error("slot fetch failed", "business_id", businessID, "date", date, "error", err)
		writeJSON(w, h.logger, http.StatusBadGateway, map[string]string{"error": "availability temporarily unavailable"})
		return
	}

	times := make([]string, 0, len(slots))
	for _, s := range slots {
		if start, ok := slotStart(s, loc); ok && !settings.IsOpenAt(start) {
			continue
		}
		times = append(times, s.Time)
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"availableSlots": times})
}

// slotStart resolves a slot to its start instant in the business timezone.
// Unparseable times are left to the upstream's judgment.
func slotStart(slot availability.TimeSlot, loc *time.Location) (time.Time, bool) {
	clock, err := time.Parse("15:04", slot.Time)
	if err != nil {
		return time.Time{}, false
	}
	day := slot.Date.Time(loc)
	if day.IsZero() {
		return time.Time{}, false
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), true
}
