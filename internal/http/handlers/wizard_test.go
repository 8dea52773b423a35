package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightglass/storefront/internal/catalog"
	"github.com/nightglass/storefront/internal/tenancy"
	"github.com/nightglass/storefront/internal/wizard"
	"github.com/nightglass/storefront/pkg/logging"
)

type stubSubmitter struct {
	receipt *wizard.Receipt
	err     error
	calls   int
}

func (s *stubSubmitter) Submit(ctx context.Context, payload wizard.Payload) (*wizard.Receipt, error) {
	s.calls++
	return s.receipt, s.err
}

type wizardFixture struct {
	handler   *WizardHandler
	mock      pgxmock.PgxPoolIface
	submitter *stubSubmitter
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	sub := &stubSubmitter{receipt: &wizard.Receipt{BookingReference: "bk_123"}}
	handler := NewWizardHandler(
		wizard.NewSessionStore(rdb, 30*time.Minute),
		catalog.NewRepositoryWithDB(mock, logging.Default()),
		sub,
		logging.Default(),
	)
	return &wizardFixture{handler: handler, mock: mock, submitter: sub}
}

func (f *wizardFixture) expectServices() {
	rows := pgxmock.NewRows([]string{"id", "name", "duration_minutes", "buffer_minutes", "price_cents", "active_booking"}).
		AddRow(int64(7), "Consultation", 60, 15, 12000, true)
	f.mock.ExpectQuery("FROM services").WithArgs("biz-1").WillReturnRows(rows)
}

func (f *wizardFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(tenancy.WithBusinessID(req.Context(), "biz-1"))
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func (f *wizardFixture) createSession(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var view struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.SessionID)
	return view.SessionID
}

func TestWizardHappyPath(t *testing.T) {
	f := newWizardFixture(t)
	id := f.createSession(t)

	f.expectServices()
	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/service", `{"service_id": 7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, wizard.StepSelectDateTime, view.Step)
	assert.Equal(t, 75, view.OccupancyDuration)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/slot", `{"date": "2026-09-01", "time": "10:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, wizard.StepConfirm, view.Step)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/confirm",
		`{"email": "amy@example.com", "name": "Amy", "phone": "+15550001111"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bk_123")
	assert.Equal(t, 1, f.submitter.calls)

	// The completed session is gone.
	rec = f.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardSlotBeforeServiceRejected(t *testing.T) {
	f := newWizardFixture(t)
	id := f.createSession(t)

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/slot", `{"date": "2026-09-01", "time": "10:00"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWizardUnknownService(t *testing.T) {
	f := newWizardFixture(t)
	id := f.createSession(t)

	f.expectServices()
	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/service", `{"service_id": 999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardBackFromConfirmKeepsService(t *testing.T) {
	f := newWizardFixture(t)
	id := f.createSession(t)

	f.expectServices()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/service", `{"service_id": 7}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/slot", `{"date": "2026-09-01", "time": "10:00"}`).Code)

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/back", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, wizard.StepSelectDateTime, view.Step)
	assert.Nil(t, view.Slot, "stepping back discards the slot")
	require.NotNil(t, view.Service)
	assert.Equal(t, "Consultation", view.Service.Name)
}

func TestWizardSubmitFailureKeepsSession(t *testing.T) {
	f := newWizardFixture(t)
	f.submitter.receipt = nil
	f.submitter.err = errors.New("slot no longer available")
	id := f.createSession(t)

	f.expectServices()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/service", `{"service_id": 7}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/slot", `{"date": "2026-09-01", "time": "10:00"}`).Code)

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/confirm",
		`{"email": "amy@example.com", "name": "Amy", "phone": "+15550001111"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// Still on confirm, ready to retry.
	rec = f.do(t, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, wizard.StepConfirm, view.Step)
}

func TestWizardConfirmMissingCustomer(t *testing.T) {
	f := newWizardFixture(t)
	id := f.createSession(t)

	f.expectServices()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/service", `{"service_id": 7}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/"+id+"/slot", `{"date": "2026-09-01", "time": "10:00"}`).Code)

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/confirm", `{"email": "", "name": "", "phone": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, f.submitter.calls)
}

func TestWizardSessionNotFound(t *testing.T) {
	f := newWizardFixture(t)
	rec := f.do(t, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
