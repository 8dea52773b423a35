// Package availability answers two questions for the booking flow: which
// days in a range have any open slot (calendar decoration), and which exact
// start times are free on a chosen day for a given occupancy duration.
package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nightglass/storefront/internal/observability/metrics"
	"github.com/nightglass/storefront/pkg/logging"
)

var tracer = otel.Tracer("storefront.internal.availability")

const defaultTimeout = 15 * time.Second

// TimeSlot is one bookable start time for a given occupancy duration.
type TimeSlot struct {
	Date Date   `json:"date"`
	Time string `json:"time"` // "HH:MM"
}

// Client wraps REST calls to the availability service. Responses are never
// retried; callers surface errors and let the user reselect to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.StorefrontMetrics
}

// NewClient constructs an availability REST client. A nil metrics receiver
// disables instrumentation.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger, m *metrics.StorefrontMetrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Component("availability"),
		metrics:    m,
	}
}

// FetchOverview returns the set of dates in [start, end] with at least one
// open slot. The result only decorates calendar cells; it never validates a
// booking.
func (c *Client) FetchOverview(ctx context.Context, businessID string, start, end Date) (map[Date]struct{}, error) {
	ctx, span := tracer.Start(ctx, "availability.overview", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("storefront.business_id", businessID),
		attribute.String("storefront.range_start", start.String()),
		attribute.String("storefront.range_end", end.String()),
	)

	q := url.Values{}
	q.Set("startDate", start.String())
	q.Set("endDate", end.String())
	path := fmt.Sprintf("/api/v1/businesses/%s/availability/overview?%s", url.PathEscape(businessID), q.Encode())

	var wrapped struct {
		AvailableDates []string `json:"availableDates"`
	}
	began := time.Now()
	err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped)
	c.metrics.ObserveFetchLatency("overview", time.Since(began).Seconds())
	if err != nil {
		c.metrics.ObserveFetch("overview", "error")
		span.RecordError(err)
		return nil, fmt.Errorf("availability: fetch overview: %w", err)
	}
	c.metrics.ObserveFetch("overview", "ok")

	dates := make(map[Date]struct{}, len(wrapped.AvailableDates))
	for _, raw := range wrapped.AvailableDates {
		d, err := ParseDate(raw)
		if err != nil {
			c.logger.Warn("overview returned malformed date", "date", raw)
			continue
		}
		dates[d] = struct{}{}
	}
	return dates, nil
}

// FetchTimeSlots returns the open start times on a day for a booking whose
// [start, start+duration) interval fits business hours with no overlap.
// Slots come back in chronological order.
func (c *Client) FetchTimeSlots(ctx context.Context, businessID string, date Date, durationMinutes int) ([]TimeSlot, error) {
	ctx, span := tracer.Start(ctx, "availability.slots", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("storefront.business_id", businessID),
		attribute.String("storefront.date", date.String()),
		attribute.Int("storefront.duration_minutes", durationMinutes),
	)

	q := url.Values{}
	q.Set("date", date.String())
	q.Set("durationMinutes", strconv.Itoa(durationMinutes))
	path := fmt.Sprintf("/api/v1/businesses/%s/availability/slots?%s", url.PathEscape(businessID), q.Encode())

	var wrapped struct {
		AvailableSlots []string `json:"availableSlots"`
	}
	began := time.Now()
	err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped)
	c.metrics.ObserveFetchLatency("slots", time.Since(began).Seconds())
	if err != nil {
		c.metrics.ObserveFetch("slots", "error")
		span.RecordError(err)
		return nil, fmt.Errorf("availability: fetch slots: %w", err)
	}
	c.metrics.ObserveFetch("slots", "ok")

	slots := make([]TimeSlot, 0, len(wrapped.AvailableSlots))
	for _, hhmm := range wrapped.AvailableSlots {
		slots = append(slots, TimeSlot{Date: date, Time: hhmm})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots, nil
}

// upstreamError extracts the human-readable message upstream attaches to
// failure payloads.
type upstreamError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamMessage(respBody)
		c.logger.Warn("availability API non-2xx response", "status", resp.StatusCode, "path", path, "message", msg)
		return fmt.Errorf("availability API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func upstreamMessage(body []byte) string {
	var ue upstreamError
	if err := json.Unmarshal(body, &ue); err == nil {
		if ue.Error != "" {
			return ue.Error
		}
		if ue.Message != "" {
			return ue.Message
		}
	}
	msg := string(body)
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
