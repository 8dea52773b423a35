// Package wizard orchestrates the three-step booking flow: pick a service,
// pick a slot, confirm. Transitions are strictly forward or one step back;
// the machine itself is pure in-memory state so it can live behind any
// transport and be restored from a session store between requests.
package wizard

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nightglass/storefront/internal/availability"
	"github.com/nightglass/storefront/internal/catalog"
)

var tracer = otel.Tracer("storefront.internal.wizard")

// Step identifies the wizard's current screen.
type Step string

const (
	StepSelectService  Step = "select_service"
	StepSelectDateTime Step = "select_datetime"
	StepConfirm        Step = "confirm"
)

var (
	// ErrInvalidTransition rejects transitions the flow does not allow,
	// like jumping straight from service selection to confirm.
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	// ErrIncompleteBooking guards submission when service or slot is
	// somehow unset; partial data must never be submitted silently.
	ErrIncompleteBooking = errors.New("wizard: incomplete booking details")
	// ErrBookingDisabled rejects services not open for online booking.
	ErrBookingDisabled = errors.New("wizard: service not bookable online")
)

// Customer is the contact information collected at confirmation.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Payload is the submission handed to the booking-creation collaborator.
type Payload struct {
	BusinessID      string `json:"businessId"`
	ServiceID       int64  `json:"serviceId"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	BookingDate     string `json:"bookingDate"` // ISO date
	BookingTime     string `json:"bookingTime"` // "HH:MM"
	TotalPriceCents int    `json:"totalPrice"`
}

// Receipt is the collaborator's success response.
type Receipt struct {
	BookingReference string `json:"bookingReference"`
}

// Submitter creates the booking; *booking.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (*Receipt, error)
}

// Machine is the wizard state for one booking attempt.
type Machine struct {
	businessID string
	step       Step
	service    *catalog.Service
	slot       *availability.TimeSlot
}

// NewMachine starts a fresh wizard at service selection.
func NewMachine(businessID string) *Machine {
	return &Machine{businessID: businessID, step: StepSelectService}
}

// Step returns the current step.
func (m *Machine) Step() Step { return m.step }

// Service returns the chosen service, nil before selection.
func (m *Machine) Service() *catalog.Service {
	if m.service == nil {
		return nil
	}
	svc := *m.service
	return &svc
}

// Slot returns the chosen time slot, nil before selection.
func (m *Machine) Slot() *availability.TimeSlot {
	if m.slot == nil {
		return nil
	}
	slot := *m.slot
	return &slot
}

// OccupancyDuration is the minutes availability queries must use for the
// chosen service: duration plus buffer, never the raw duration alone.
func (m *Machine) OccupancyDuration() int {
	if m.service == nil {
		return 0
	}
	return m.service.OccupancyDuration()
}

// SelectService advances from service selection to date/time selection.
func (m *Machine) SelectService(svc catalog.Service) error {
	if m.step != StepSelectService {
		return ErrInvalidTransition
	}
	if !svc.ActiveBooking {
		return ErrBookingDisabled
	}
	m.service = &svc
	m.slot = nil
	m.step = StepSelectDateTime
	return nil
}

// SelectSlot advances from date/time selection to confirmation.
func (m *Machine) SelectSlot(slot availability.TimeSlot) error {
	if m.step != StepSelectDateTime {
		return ErrInvalidTransition
	}
	if m.service == nil {
		return ErrIncompleteBooking
	}
	m.slot = &slot
	m.step = StepConfirm
	return nil
}

// Back steps one screen backward. Leaving confirmation clears the chosen
// slot so a possibly-stale one is never presented as still valid; leaving
// date/time selection also drops the slot but keeps nothing else.
func (m *Machine) Back() error {
	switch m.step {
	case StepSelectDateTime:
		m.slot = nil
		m.step = StepSelectService
		return nil
	case StepConfirm:
		m.slot = nil
		m.step = StepSelectDateTime
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Submit builds the payload and hands it to the collaborator. On failure
// the machine stays in Confirm so the UI can show the error without losing
// the user's choices; on success it resets to service selection.
func (m *Machine) Submit(ctx context.Context, customer Customer, submitter Submitter) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "wizard.submit")
	defer span.End()
	span.SetAttributes(attribute.String("storefront.business_id", m.businessID))

	if m.step != StepConfirm {
		return nil, ErrInvalidTransition
	}
	if m.service == nil || m.slot == nil {
		return nil, ErrIncompleteBooking
	}
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" {
		return nil, ErrIncompleteBooking
	}

	payload := Payload{
		BusinessID:      m.businessID,
		ServiceID:       m.service.ID,
		CustomerEmail:   customer.Email,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		BookingDate:     m.slot.Date.String(),
		BookingTime:     m.slot.Time,
		TotalPriceCents: m.service.PriceCents,
	}

	receipt, err := submitter.Submit(ctx, payload)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	m.service = nil
	m.slot = nil
	m.step = StepSelectService
	return receipt, nil
}
