package business

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	settings := DefaultSettings("biz-1")
	settings.ThemeColorBackground = "#101820"
	settings.ThemeColorText = "#F2AA4C"
	require.NoError(t, store.Set(ctx, settings))

	got, err := store.Get(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "#101820", got.ThemeColorBackground)
	assert.Equal(t, "#F2AA4C", got.ThemeColorText)
	assert.True(t, got.BookingEnabled)
}

func TestStoreGetMissingReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "brand-new")
	require.NoError(t, err)
	assert.Equal(t, "brand-new", got.BusinessID)
	assert.Equal(t, "America/New_York", got.Timezone)
	assert.NotNil(t, got.BusinessHours.Monday)
	assert.Nil(t, got.BusinessHours.Sunday)
}

func TestIsOpenAt(t *testing.T) {
	settings := DefaultSettings("biz-1")
	loc, _ := time.LoadLocation("America/New_York")

	monday10am := time.Date(2026, 8, 24, 10, 0, 0, 0, loc)
	assert.True(t, settings.IsOpenAt(monday10am))

	saturday := time.Date(2026, 8, 29, 10, 0, 0, 0, loc)
	assert.False(t, settings.IsOpenAt(saturday))

	monday7am := time.Date(2026, 8, 24, 7, 0, 0, 0, loc)
	assert.False(t, settings.IsOpenAt(monday7am))
}

func TestIsOpenAtNoHoursConfigured(t *testing.T) {
	settings := &Settings{BusinessID: "biz-1", Timezone: "UTC"}

	// Appointment-only businesses with no hours are always open.
	assert.True(t, settings.IsOpenAt(time.Now()))
}

func TestLocationFallsBackToUTC(t *testing.T) {
	settings := &Settings{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, settings.Location())
}
