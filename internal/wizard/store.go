package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nightglass/storefront/internal/availability"
	"github.com/nightglass/storefront/internal/catalog"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("wizard: session not found")

// State is the serializable snapshot of a machine, persisted between
// requests.
type State struct {
	BusinessID string                 `json:"business_id"`
	Step       Step                   `json:"step"`
	Service    *catalog.Service       `json:"service,omitempty"`
	Slot       *availability.TimeSlot `json:"slot,omitempty"`
}

// State snapshots the machine for persistence.
func (m *Machine) State() State {
	return State{
		BusinessID: m.businessID,
		Step:       m.step,
		Service:    m.Service(),
		Slot:       m.Slot(),
	}
}

// Restore rebuilds a machine from a snapshot. Unknown steps reset to
// service selection rather than trusting a corrupted record.
func Restore(state State) *Machine {
	m := NewMachine(state.BusinessID)
	switch state.Step {
	case StepSelectDateTime, StepConfirm:
		m.step = state.Step
	default:
		return m
	}
	m.service = state.Service
	m.slot = state.Slot
	if m.service == nil {
		// A forward step without a service is not representable.
		m.step = StepSelectService
		m.slot = nil
	} else if m.step == StepConfirm && m.slot == nil {
		m.step = StepSelectDateTime
	}
	return m
}

// SessionStore persists wizard sessions in redis with a sliding TTL.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a session store. ttl <= 0 defaults to 30 minutes.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{redis: redisClient, ttl: ttl}
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("wizard:session:%s", sessionID)
}

// Create starts a new session and returns its id.
func (s *SessionStore) Create(ctx context.Context, businessID string) (string, *Machine, error) {
	sessionID := uuid.NewString()
	machine := NewMachine(businessID)
	if err := s.Save(ctx, sessionID, machine); err != nil {
		return "", nil, err
	}
	return sessionID, machine, nil
}

// Load rehydrates the machine for a session.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Machine, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wizard: load session: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("wizard: decode session: %w", err)
	}
	return Restore(state), nil
}

// Save persists the machine and refreshes the session TTL.
func (s *SessionStore) Save(ctx context.Context, sessionID string, machine *Machine) error {
	data, err := json.Marshal(machine.State())
	if err != nil {
		return fmt.Errorf("wizard: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("wizard: save session: %w", err)
	}
	return nil
}

// Delete removes a session, e.g. after successful submission.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("wizard: delete session: %w", err)
	}
	return nil
}
