package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/repository"
	"github.com/rva/egopass/internal/service"
)

// In-memory stores shared by the workflow tests. They reproduce the
// repository error contract without a database.

type memStore struct {
	mu           sync.Mutex
	resSeq       uint64
	paySeq       uint64
	passSeq      uint64
	users        map[uint64]model.User
	reservations map[uint64]model.Reservation
	payments     map[uint64]model.Payment
	passes       map[uint64]model.EGoPass
}

func newMemStore() *memStore {
	return &memStore{
		users: map[uint64]model.User{
			1: {ID: 1, Role: model.RoleUser},
			2: {ID: 2, Role: model.RoleUser},
		},
		reservations: map[uint64]model.Reservation{},
		payments:     map[uint64]model.Payment{},
		passes:       map[uint64]model.EGoPass{},
	}
}

type memUserStore struct{ s *memStore }

func (m *memUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := v
	return &c, nil
}

func (m *memStore) Create(ctx context.Context, res *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resSeq++
	res.ID = m.resSeq
	m.reservations[res.ID] = *res
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	c := v
	return &c, nil
}

func (m *memStore) UpdateStatusIf(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if v.Status != from {
		return repository.ErrStaleStatus
	}
	v.Status = to
	m.reservations[id] = v
	return nil
}

func (m *memStore) LinkPass(ctx context.Context, reservationID, passID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.reservations[reservationID]
	v.PassID = &passID
	m.reservations[reservationID] = v
	return nil
}

func (m *memStore) ListByUserAndStatus(ctx context.Context, userID uint64, status model.ReservationStatus) ([]model.Reservation, error) {
	return nil, nil
}

func (m *memStore) ListByStatusExpiredBefore(ctx context.Context, status model.ReservationStatus, deadline time.Time) ([]model.Reservation, error) {
	return nil, nil
}

type memPaymentStore struct{ s *memStore }

func (m *memPaymentStore) Create(ctx context.Context, p *model.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.paySeq++
	p.ID = m.s.paySeq
	p.CreatedAt = time.Now().UTC()
	m.s.payments[p.ID] = *p
	return nil
}

func (m *memPaymentStore) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	c := v
	return &c, nil
}

func (m *memPaymentStore) GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, v := range m.s.payments {
		if v.TransactionRef == ref && ref != "" {
			c := v
			return &c, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memPaymentStore) Update(ctx context.Context, p *model.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.payments[p.ID] = *p
	return nil
}

type memPassStore struct{ s *memStore }

func (m *memPassStore) Create(ctx context.Context, p *model.EGoPass) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.passSeq++
	p.ID = m.s.passSeq
	m.s.passes[p.ID] = *p
	return nil
}

func (m *memPassStore) GetByID(ctx context.Context, id uint64) (*model.EGoPass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.passes[id]
	if !ok {
		return nil, repository.ErrPassNotFound
	}
	c := v
	return &c, nil
}

func (m *memPassStore) UpdatePDF(ctx context.Context, id uint64, pdf []byte) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v := m.s.passes[id]
	v.PDFDocument = append([]byte(nil), pdf...)
	m.s.passes[id] = v
	return nil
}

func (m *memPassStore) MarkValidated(ctx context.Context, id, agentID uint64, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.passes[id]
	if !ok {
		return repository.ErrPassNotFound
	}
	if v.Validated {
		return repository.ErrStaleStatus
	}
	v.Validated = true
	v.ValidationDate = &at
	v.ValidationUserID = &agentID
	m.s.passes[id] = v
	return nil
}

func (m *memPassStore) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.EGoPass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.s.passes {
		res := m.s.reservations[v.ReservationID]
		if res.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memPassStore) ListUnvalidatedExpiredBefore(ctx context.Context, deadline time.Time) ([]model.EGoPass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.s.passes {
		if !v.Validated && v.ExpiryDate.Before(deadline) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memPassStore) DeleteByReservation(ctx context.Context, reservationID uint64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, v := range m.s.passes {
		if v.ReservationID == reservationID {
			delete(m.s.passes, id)
		}
	}
	return nil
}

func (m *memPassStore) Search(ctx context.Context, term string) ([]model.EGoPass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.s.passes {
		if strings.Contains(strings.ToLower(v.Passenger.LastName), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(v.Flight.FlightNumber), strings.ToLower(term)) {
			out = append(out, v)
		}
	}
	return out, nil
}

func newWorkflow(t *testing.T) (*echo.Echo, *PassHandler, *memStore) {
	t.Helper()
	store := newMemStore()
	passSvc := service.NewPassService(&memUserStore{s: store}, store, &memPassStore{s: store}, nil, time.Hour, 72*time.Hour)
	paySvc := service.NewPaymentService(&memPaymentStore{s: store}, store, service.NewMockGateway("https://mock-payment-gateway.com"))
	return echo.New(), NewPassHandler(passSvc, paySvc), store
}

func doJSON(e *echo.Echo, method, path, body string, userID uint64, role string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return rec, c
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const initiateBody = `{
	"passenger": {
		"firstName": "Amina", "lastName": "Nkoulou", "nationality": "Cameroonian",
		"passportNumber": "PA1234567", "passportIssueDate": "2022-03-15T00:00:00Z",
		"email": "amina.nkoulou@example.com", "phone": "+237677112233"
	},
	"flight": {
		"flightType": "INTERNATIONAL", "flightNumber": "QC204",
		"flightCompany": "Camair-Co", "origin": "NSI", "destination": "CDG"
	},
	"paymentMethod": "MOBILE_MONEY"
}`

func TestPassWorkflow(t *testing.T) {
	e, h, _ := newWorkflow(t)

	// Initiate: reservation plus payment in one call.
	rec, c := doJSON(e, http.MethodPost, "/api/v1/passes/initiate", initiateBody, 1, model.RoleUser)
	require.NoError(t, h.Initiate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	env := envelope(t, rec)
	assert.Equal(t, "success", env["status"])
	data := env["data"].(map[string]any)
	assert.Equal(t, 50.0, data["amount"])
	ref := data["transactionReference"].(string)
	assert.Regexp(t, `^TXN-[0-9A-F]{12}$`, ref)
	assert.Contains(t, data["redirectUrl"], "/redirect?tx="+ref)
	assert.Greater(t, data["expiresIn"].(float64), 0.0)

	// Gateway callback verifies the payment and issues the pass.
	cbBody := fmt.Sprintf(`{"transactionReference": %q, "reservationId": 1, "status": "SUCCESS"}`, ref)
	rec, c = doJSON(e, http.MethodPost, "/api/v1/passes/payment/callback", cbBody, 1, model.RoleUser)
	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env = envelope(t, rec)
	pass := env["data"].(map[string]any)
	assert.Regexp(t, `^EGP-[0-9A-F]{10}$`, pass["passNumber"])
	assert.Equal(t, "Amina", pass["passenger"].(map[string]any)["firstName"])
	assert.Equal(t, true, pass["hasDocument"])

	// A replayed callback is rejected and no second pass appears.
	rec, c = doJSON(e, http.MethodPost, "/api/v1/passes/payment/callback", cbBody, 1, model.RoleUser)
	require.NoError(t, h.Callback(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", envelope(t, rec)["errorCode"])
}

func TestPassDownload(t *testing.T) {
	e, h, _ := newWorkflow(t)

	rec, c := doJSON(e, http.MethodPost, "/api/v1/passes/initiate", initiateBody, 1, model.RoleUser)
	require.NoError(t, h.Initiate(c))
	ref := envelope(t, rec)["data"].(map[string]any)["transactionReference"].(string)

	cbBody := fmt.Sprintf(`{"transactionReference": %q}`, ref)
	rec, c = doJSON(e, http.MethodPost, "/api/v1/passes/payment/callback", cbBody, 1, model.RoleUser)
	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	download := func() *httptest.ResponseRecorder {
		rec, c := doJSON(e, http.MethodGet, "/api/v1/passes/1/download", "", 1, model.RoleUser)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.Download(c))
		return rec
	}

	first := download()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "application/pdf", first.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="egopass-1.pdf"`, first.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(first.Body.String(), "%PDF"))

	second := download()
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestInitiateRejectsInvalidSubmission(t *testing.T) {
	e, h, store := newWorkflow(t)

	bad := strings.Replace(initiateBody, "amina.nkoulou@example.com", "not-an-email", 1)
	rec, c := doJSON(e, http.MethodPost, "/api/v1/passes/initiate", bad, 1, model.RoleUser)
	require.NoError(t, h.Initiate(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := envelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env["errorCode"])
	assert.Contains(t, env["message"], "email")
	assert.Empty(t, store.reservations)
}

func TestListExpiredUnvalidatedView(t *testing.T) {
	e, h, store := newWorkflow(t)

	rec, c := doJSON(e, http.MethodPost, "/api/v1/passes/initiate", initiateBody, 1, model.RoleUser)
	require.NoError(t, h.Initiate(c))
	ref := envelope(t, rec)["data"].(map[string]any)["transactionReference"].(string)
	rec, c = doJSON(e, http.MethodPost, "/api/v1/passes/payment/callback", fmt.Sprintf(`{"transactionReference": %q}`, ref), 1, model.RoleUser)
	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Lapse the pass without a gate check-in.
	store.mu.Lock()
	p := store.passes[1]
	p.ExpiryDate = time.Now().UTC().Add(-time.Hour)
	store.passes[1] = p
	store.mu.Unlock()

	rec, c = doJSON(e, http.MethodGet, "/api/v1/passes?expired=true", "", 9, model.RoleAdmin)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, false, data[0].(map[string]any)["validated"])

	// Non-admins asking for the report just get their own list.
	rec, c = doJSON(e, http.MethodGet, "/api/v1/passes?expired=true", "", 2, model.RoleUser)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, envelope(t, rec)["data"])
}

func TestGetPassRequiresOwnership(t *testing.T) {
	e, h, _ := newWorkflow(t)

	rec, c := doJSON(e, http.MethodPost, "/api/v1/passes/initiate", initiateBody, 1, model.RoleUser)
	require.NoError(t, h.Initiate(c))
	ref := envelope(t, rec)["data"].(map[string]any)["transactionReference"].(string)
	rec, c = doJSON(e, http.MethodPost, "/api/v1/passes/payment/callback", fmt.Sprintf(`{"transactionReference": %q}`, ref), 1, model.RoleUser)
	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot see the pass.
	rec, c = doJSON(e, http.MethodGet, "/api/v1/passes/1", "", 2, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// An admin can.
	rec, c = doJSON(e, http.MethodGet, "/api/v1/passes/1", "", 2, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
