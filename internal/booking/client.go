// Package booking submits confirmed wizard payloads to the booking-creation
// service.
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nightglass/storefront/internal/observability/metrics"
	"github.com/nightglass/storefront/internal/wizard"
	"github.com/nightglass/storefront/pkg/logging"
)

var tracer = otel.Tracer("storefront.internal.booking")

const defaultTimeout = 15 * time.Second

// Client posts booking payloads upstream. Failures carry the upstream's
// human-readable message so the confirmation screen can show it verbatim.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.StorefrontMetrics
}

// NewClient constructs a booking REST client.
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
		logger:     logger.Component("booking"),
		metrics:    m,
	}
}

// Submit creates the booking. Implements wizard.Submitter.
func (c *Client) Submit(ctx context.Context, payload wizard.Payload) (*wizard.Receipt, error) {
	ctx, span := tracer.Start(ctx, "booking.submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("storefront.business_id", payload.BusinessID),
		attribute.Int64("storefront.service_id", payload.ServiceID),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("booking: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("booking: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBookingSubmission("transport_error")
		span.RecordError(err)
		return nil, fmt.Errorf("booking: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveBookingSubmission("transport_error")
		return nil, fmt.Errorf("booking: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := failureMessage(respBody)
		c.metrics.ObserveBookingSubmission("rejected")
		c.logger.Warn("booking API non-2xx response", "status", resp.StatusCode, "message", msg)
		span.RecordError(fmt.Errorf("status %d", resp.StatusCode))
		return nil, fmt.Errorf("booking: %s", msg)
	}

	var receipt wizard.Receipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		c.metrics.ObserveBookingSubmission("transport_error")
		return nil, fmt.Errorf("booking: decode response: %w", err)
	}
	c.metrics.ObserveBookingSubmission("submitted")
	c.logger.Info("booking submitted", "business_id", payload.BusinessID, "booking_reference", receipt.BookingReference)
	return &receipt, nil
}

func failureMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "booking could not be completed"
	}
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
