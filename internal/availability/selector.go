package availability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nightglass/storefront/internal/observability/metrics"
	"github.com/nightglass/storefront/pkg/logging"
)

// Guard failures short-circuit before any network call so the user gets
// instant inline feedback.
var (
	ErrPastDate        = errors.New("cannot select a past date")
	ErrInvalidDuration = errors.New("service duration invalid")
)

// ValidateRequest applies the client-side guards that short-circuit before
// any network call: non-positive durations and dates strictly before today
// (date-only comparison).
func ValidateRequest(date Date, durationMinutes int, today Date) error {
	if durationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if date.Before(today) {
		return ErrPastDate
	}
	return nil
}

// SlotFetcher is the transport dependency; *Client satisfies it.
type SlotFetcher interface {
	FetchTimeSlots(ctx context.Context, businessID string, date Date, durationMinutes int) ([]TimeSlot, error)
}

// Selection is a read-only snapshot of the current date selection.
type Selection struct {
	Date         Date
	Loading      bool
	Slots        []TimeSlot
	ErrorMessage string
}

// Selector owns the "which day is picked and what are its slots" state of
// one booking page. Responses are correlated with the request that issued
// them; a response for a date that is no longer selected is discarded, so a
// slow fetch can never overwrite a newer selection.
type Selector struct {
	businessID string
	fetcher    SlotFetcher
	logger     *logging.Logger
	metrics    *metrics.StorefrontMetrics
	now        func() time.Time
	loc        *time.Location

	mu      sync.Mutex
	date    Date
	token   uuid.UUID
	loading bool
	slots   []TimeSlot
	errMsg  string
}

// NewSelector constructs a selector for one business page view. loc decides
// what "today" means for the past-date guard; nil falls back to server local
// time.
func NewSelector(businessID string, fetcher SlotFetcher, loc *time.Location, logger *logging.Logger, m *metrics.StorefrontMetrics) *Selector {
	if fetcher == nil {
		panic("availability: slot fetcher required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Selector{
		businessID: businessID,
		fetcher:    fetcher,
		logger:     logger.Component("availability"),
		metrics:    m,
		now:        time.Now,
		loc:        loc,
	}
}

// SelectDate picks a day and fetches its slots. Guard violations set a local
// error state without touching the network and are also returned so callers
// can map them to inline messages. Transport errors land in the snapshot's
// ErrorMessage with an empty slot list; the loading flag always clears.
func (s *Selector) SelectDate(ctx context.Context, date Date, durationMinutes int) error {
	if err := ValidateRequest(date, durationMinutes, NewDate(s.now().In(s.loc))); err != nil {
		s.setGuardError(date, err)
		return err
	}

	s.mu.Lock()
	token := uuid.New()
	s.date = date
	s.token = token
	s.loading = true
	s.slots = nil
	s.errMsg = ""
	s.mu.Unlock()

	slots, err := s.fetcher.FetchTimeSlots(ctx, s.businessID, date, durationMinutes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		// A newer selection superseded this request while it was in
		// flight; its response must not leak into the current state.
		s.metrics.ObserveStaleDiscard()
		s.logger.Debug("discarding stale slot response", "date", date)
		return nil
	}
	s.loading = false
	if err != nil {
		s.slots = []TimeSlot{}
		s.errMsg = err.Error()
		return nil
	}
	s.slots = slots
	return nil
}

// Clear resets the selection, e.g. when the wizard leaves the date step.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = ""
	s.token = uuid.New() // invalidates any in-flight response
	s.loading = false
	s.slots = nil
	s.errMsg = ""
}

// Snapshot returns the current selection state.
func (s *Selector) Snapshot() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Selection{
		Date:         s.date,
		Loading:      s.loading,
		ErrorMessage: s.errMsg,
	}
	if s.slots != nil {
		snap.Slots = append([]TimeSlot(nil), s.slots...)
	}
	return snap
}

func (s *Selector) setGuardError(date Date, guard error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	s.token = uuid.New()
	s.loading = false
	s.slots = []TimeSlot{}
	s.errMsg = guard.Error()
}
