// Package business holds per-business storefront settings and their
// redis-backed persistence.
package business

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DayHours represents the opening hours for a single day.
// Nil means the business is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "09:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// GetHoursForDay returns the configured hours for a weekday, nil when closed.
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Sunday:
		return b.Sunday
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return nil
	}
}

// HasAnyHours returns true if at least one day has hours configured.
func (b *BusinessHours) HasAnyHours() bool {
	return b.Sunday != nil || b.Monday != nil || b.Tuesday != nil ||
		b.Wednesday != nil || b.Thursday != nil || b.Friday != nil || b.Saturday != nil
}

// Settings holds the per-business storefront configuration the dashboard
// edits: theme seed colors, timezone, and booking toggles. Menu content and
// the service catalog live in Postgres, not here.
type Settings struct {
	BusinessID string `json:"business_id"`
	// ThemeColor* are optional "#RRGGBB" seeds; empty means default.
	ThemeColorBackground string        `json:"theme_color_background,omitempty"`
	ThemeColorText       string        `json:"theme_color_text,omitempty"`
	ThemeColorButton     string        `json:"theme_color_button,omitempty"`
	Timezone             string        `json:"timezone"`
	BookingEnabled       bool          `json:"booking_enabled"`
	BusinessHours        BusinessHours `json:"business_hours"`
}

// DefaultSettings returns the settings a brand-new business starts with.
func DefaultSettings(businessID string) *Settings {
	return &Settings{
		BusinessID:     businessID,
		Timezone:       "America/New_York",
		BookingEnabled: true,
		BusinessHours: BusinessHours{
			Monday:    &DayHours{Open: "09:00", Close: "18:00"},
			Tuesday:   &DayHours{Open: "09:00", Close: "18:00"},
			Wednesday: &DayHours{Open: "09:00", Close: "18:00"},
			Thursday:  &DayHours{Open: "09:00", Close: "18:00"},
			Friday:    &DayHours{Open: "09:00", Close: "17:00"},
			Saturday:  nil,
			Sunday:    nil,
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsOpenAt checks if the business is open at the given time. With no hours
// configured at all the business is treated as always open (appointment-only).
func (s *Settings) IsOpenAt(t time.Time) bool {
	localTime := t.In(s.Location())

	hours := s.BusinessHours.GetHoursForDay(localTime.Weekday())
	if hours == nil {
		return !s.BusinessHours.HasAnyHours()
	}

	openTime, err := time.Parse("15:04", hours.Open)
	if err != nil {
		return false
	}
	closeTime, err := time.Parse("15:04", hours.Close)
	if err != nil {
		return false
	}

	currentMinutes := localTime.Hour()*60 + localTime.Minute()
	openMinutes := openTime.Hour()*60 + openTime.Minute()
	closeMinutes := closeTime.Hour()*60 + closeTime.Minute()

	return currentMinutes >= openMinutes && currentMinutes < closeMinutes
}

// Store provides persistence for business settings.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new settings store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(businessID string) string {
	return fmt.Sprintf("business:settings:%s", businessID)
}

// Get retrieves settings, returning defaults if none are stored yet.
func (s *Store) Get(ctx context.Context, businessID string) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(businessID)).Bytes()
	if err == redis.Nil {
		return DefaultSettings(businessID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("business: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("business: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("business: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.BusinessID), data, 0).Err(); err != nil {
		return fmt.Errorf("business: set settings: %w", err)
	}
	return nil
}
