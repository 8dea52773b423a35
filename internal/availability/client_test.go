package availability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nightglass/storefront/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, 2*time.Second, logging.Default(), nil)
}

func TestFetchOverview_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/v1/businesses/biz-1/availability/overview" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("startDate") != "2026-08-01" {
			t.Fatalf("startDate = %s", r.URL.Query().Get("startDate"))
		}
		if r.URL.Query().Get("endDate") != "2026-10-31" {
			t.Fatalf("endDate = %s", r.URL.Query().Get("endDate"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"availableDates":["2026-08-03","2026-08-04","bogus"]}`))
	})

	dates, err := client.FetchOverview(context.Background(), "biz-1", Date("2026-08-01"), Date("2026-10-31"))
	if err != nil {
		t.Fatalf("FetchOverview() error = %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("len(dates) = %d, want 2 (malformed entries skipped)", len(dates))
	}
	if _, ok := dates[Date("2026-08-03")]; !ok {
		t.Fatal("expected 2026-08-03 in overview")
	}
}

func TestFetchTimeSlots_SortedChronologically(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2026-08-29" {
			t.Fatalf("date = %s", r.URL.Query().Get("date"))
		}
		if r.URL.Query().Get("durationMinutes") != "60" {
			t.Fatalf("durationMinutes = %s", r.URL.Query().Get("durationMinutes"))
		}
		_, _ = w.Write([]byte(`{"availableSlots":["14:30","09:00","11:15"]}`))
	})

	slots, err := client.FetchTimeSlots(context.Background(), "biz-1", Date("2026-08-29"), 60)
	if err != nil {
		t.Fatalf("FetchTimeSlots() error = %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("len(slots) = %d, want 3", len(slots))
	}
	if slots[0].Time != "09:00" || slots[2].Time != "14:30" {
		t.Fatalf("slots out of order: %v", slots)
	}
	if slots[0].Date != Date("2026-08-29") {
		t.Fatalf("slot date = %s", slots[0].Date)
	}
}

func TestFetchTimeSlots_UpstreamErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"calendar temporarily unavailable"}`))
	})

	_, err := client.FetchTimeSlots(context.Background(), "biz-1", Date("2026-08-29"), 30)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "calendar temporarily unavailable") {
		t.Fatalf("error should carry upstream message, got %v", err)
	}
}

func TestFetchOverview_NetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, logging.Default(), nil)

	_, err := client.FetchOverview(context.Background(), "biz-1", Date("2026-08-01"), Date("2026-08-31"))
	if err == nil {
		t.Fatal("expected network error")
	}
}
