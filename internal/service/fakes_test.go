package service

import (
	"context"
	"sync"
	"time"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/repository"
)

// In-memory stores backing the service tests. They mirror the MySQL
// repositories' error behavior: not-found sentinels and ErrStaleStatus
// on guarded updates.

type memUsers struct {
	mu    sync.Mutex
	items map[uint64]model.User
}

func newMemUsers(ids ...uint64) *memUsers {
	m := &memUsers{items: map[uint64]model.User{}}
	for _, id := range ids {
		m.items[id] = model.User{ID: id, Role: model.RoleUser}
	}
	return m
}

func (m *memUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := v
	return &c, nil
}

type memReservations struct {
	mu    sync.Mutex
	seq   uint64
	items map[uint64]model.Reservation
}

func newMemReservations() *memReservations {
	return &memReservations{items: map[uint64]model.Reservation{}}
}

func (m *memReservations) Create(ctx context.Context, res *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	res.ID = m.seq
	m.items[res.ID] = *res
	return nil
}

func (m *memReservations) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	c := v
	return &c, nil
}

func (m *memReservations) UpdateStatusIf(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if v.Status != from {
		return repository.ErrStaleStatus
	}
	v.Status = to
	m.items[id] = v
	return nil
}

func (m *memReservations) LinkPass(ctx context.Context, reservationID, passID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[reservationID]
	if !ok {
		return repository.ErrReservationNotFound
	}
	v.PassID = &passID
	m.items[reservationID] = v
	return nil
}

func (m *memReservations) ListByUserAndStatus(ctx context.Context, userID uint64, status model.ReservationStatus) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, v := range m.items {
		if v.UserID == userID && v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memReservations) ListByStatusExpiredBefore(ctx context.Context, status model.ReservationStatus, deadline time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, v := range m.items {
		if v.Status == status && v.ExpiresAt.Before(deadline) {
			out = append(out, v)
		}
	}
	return out, nil
}

type memPayments struct {
	mu    sync.Mutex
	seq   uint64
	items map[uint64]model.Payment
}

func newMemPayments() *memPayments {
	return &memPayments{items: map[uint64]model.Payment{}}
}

func (m *memPayments) Create(ctx context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = m.seq
	p.CreatedAt = time.Now().UTC()
	m.items[p.ID] = *p
	return nil
}

func (m *memPayments) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	c := v
	return &c, nil
}

func (m *memPayments) GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.items {
		if v.TransactionRef == ref && ref != "" {
			c := v
			return &c, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memPayments) Update(ctx context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return repository.ErrPaymentNotFound
	}
	m.items[p.ID] = *p
	return nil
}

type memPasses struct {
	mu    sync.Mutex
	seq   uint64
	items map[uint64]model.EGoPass

	// resolves pass ownership the way the SQL join does
	reservations *memReservations

	// when set, Create fails with this error
	createErr error
}

func newMemPasses(res *memReservations) *memPasses {
	return &memPasses{items: map[uint64]model.EGoPass{}, reservations: res}
}

func (m *memPasses) Create(ctx context.Context, p *model.EGoPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	p.ID = m.seq
	m.items[p.ID] = *p
	return nil
}

func (m *memPasses) GetByID(ctx context.Context, id uint64) (*model.EGoPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, repository.ErrPassNotFound
	}
	c := v
	return &c, nil
}

func (m *memPasses) UpdatePDF(ctx context.Context, id uint64, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return repository.ErrPassNotFound
	}
	v.PDFDocument = append([]byte(nil), pdf...)
	m.items[id] = v
	return nil
}

func (m *memPasses) MarkValidated(ctx context.Context, id, agentID uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return repository.ErrPassNotFound
	}
	if v.Validated {
		return repository.ErrStaleStatus
	}
	v.Validated = true
	v.ValidationDate = &at
	v.ValidationUserID = &agentID
	m.items[id] = v
	return nil
}

func (m *memPasses) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.EGoPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.items {
		res, ok := m.reservations.items[v.ReservationID]
		if ok && res.UserID == userID {
			out = append(out, v)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPasses) ListUnvalidatedExpiredBefore(ctx context.Context, deadline time.Time) ([]model.EGoPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.items {
		if !v.Validated && v.ExpiryDate.Before(deadline) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memPasses) DeleteByReservation(ctx context.Context, reservationID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.items {
		if v.ReservationID == reservationID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memPasses) Search(ctx context.Context, term string) ([]model.EGoPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EGoPass
	for _, v := range m.items {
		out = append(out, v)
	}
	return out, nil
}

// casLosingReservations simulates a concurrent issuance winning the
// guarded status update between this caller's read and its flip.
type casLosingReservations struct {
	*memReservations
}

func (m *casLosingReservations) UpdateStatusIf(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	_ = m.memReservations.UpdateStatusIf(ctx, id, from, model.ReservationCompleted)
	return repository.ErrStaleStatus
}

type memTokens struct {
	mu     sync.Mutex
	purged int64
}

func (m *memTokens) PurgeExpiredBefore(ctx context.Context, deadline time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged++
	return 1, nil
}

// failingGateway rejects every initiation, for failure-path tests.
type failingGateway struct{ err error }

func (g *failingGateway) InitiateMobileMoney(ctx context.Context, p *model.Payment) (InitiationResult, error) {
	return InitiationResult{}, g.err
}
func (g *failingGateway) InitiateCreditCard(ctx context.Context, p *model.Payment, card model.CardDetails) (InitiationResult, error) {
	return InitiationResult{}, g.err
}
func (g *failingGateway) InitiatePayPal(ctx context.Context, p *model.Payment) (InitiationResult, error) {
	return InitiationResult{}, g.err
}
func (g *failingGateway) Verify(ctx context.Context, ref string) (bool, error) {
	return false, g.err
}

// decliningGateway initiates normally but refuses verification.
type decliningGateway struct{ MockGateway }

func (g *decliningGateway) Verify(ctx context.Context, ref string) (bool, error) {
	return false, nil
}

// Shared fixtures.

func validPassenger() model.PassengerInfo {
	return model.PassengerInfo{
		FirstName:         "Amina",
		LastName:          "Nkoulou",
		Nationality:       "Cameroonian",
		PassportNumber:    "PA1234567",
		PassportIssueDate: time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
		Email:             "amina.nkoulou@example.com",
		Phone:             "+237677112233",
	}
}

func validFlight() model.FlightInfo {
	return model.FlightInfo{
		FlightType:    model.FlightInternational,
		FlightNumber:  "QC204",
		FlightCompany: "Camair-Co",
		Origin:        "NSI",
		Destination:   "CDG",
	}
}

func pendingReservation(res *memReservations, userID uint64, flightType string) *model.Reservation {
	f := validFlight()
	f.FlightType = flightType
	r := &model.Reservation{
		UserID:    userID,
		Passenger: validPassenger(),
		Flight:    f,
		Status:    model.ReservationPendingPayment,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	_ = res.Create(context.Background(), r)
	return r
}
