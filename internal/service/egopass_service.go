package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/queue"
	"github.com/rva/egopass/internal/repository"
)

// RenderJobPublisher hands PDF render jobs to the message broker.
type RenderJobPublisher interface {
	PublishRenderRequested(ctx context.Context, ev queue.RenderRequestedEvent) error
}

// PassService orchestrates the pass lifecycle: reservation intake,
// issuance after a verified payment, and document retrieval.
type PassService struct {
	Users        UserStore
	Reservations ReservationStore
	Passes       PassStore

	// Jobs is optional. When nil, or when publishing fails, the PDF
	// is rendered inline during issuance instead.
	Jobs RenderJobPublisher

	ReservationTTL time.Duration // payment window for new reservations
	PassValidity   time.Duration // validity window of issued passes
	Now            func() time.Time
}

func NewPassService(users UserStore, reservations ReservationStore, passes PassStore, jobs RenderJobPublisher, reservationTTL, passValidity time.Duration) *PassService {
	return &PassService{
		Users:          users,
		Reservations:   reservations,
		Passes:         passes,
		Jobs:           jobs,
		ReservationTTL: reservationTTL,
		PassValidity:   passValidity,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateReservation validates the submitted details and opens a
// reservation in PENDING_PAYMENT with a bounded payment window.
func (s *PassService) CreateReservation(ctx context.Context, userID uint64, p model.PassengerInfo, f model.FlightInfo) (*model.Reservation, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	now := s.Now()
	if err := ValidateReservation(p, f, now); err != nil {
		return nil, err
	}
	res := &model.Reservation{
		UserID:    userID,
		Passenger: p,
		Flight:    f,
		Status:    model.ReservationPendingPayment,
		ExpiresAt: now.Add(s.ReservationTTL),
	}
	if err := s.Reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	res.CreatedAt = now
	res.UpdatedAt = now
	return res, nil
}

// IssuePass turns a paid reservation into a pass. The pass snapshots
// the reservation data, carries a fresh QR code, and its PDF is
// rendered in the background. The pass is persisted first and the
// guarded status update from PENDING_PAYMENT to COMPLETED commits the
// issuance: when two verified callbacks race, exactly one commits;
// the loser discards its pass and reports the state it lost to. A
// failure before the commit leaves the reservation pending, so the
// callback can be retried.
func (s *PassService) IssuePass(ctx context.Context, reservationID uint64) (*model.EGoPass, error) {
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != model.ReservationPendingPayment {
		return nil, &StateError{Actual: string(res.Status), Expected: string(model.ReservationPendingPayment)}
	}

	now := s.Now()
	pass := &model.EGoPass{
		PassNumber:    randomCode("EGP-", 10),
		ReservationID: res.ID,
		Passenger:     res.Passenger,
		Flight:        res.Flight,
		IssueDate:     now,
		ExpiryDate:    now.Add(s.PassValidity),
	}
	png, err := EncodePassQR(pass)
	if err != nil {
		return nil, err
	}
	pass.QRCodeImage = png

	if err := s.Passes.Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("store pass for reservation %d: %w", res.ID, err)
	}

	if err := s.Reservations.UpdateStatusIf(ctx, res.ID, model.ReservationPendingPayment, model.ReservationCompleted); err != nil {
		if delErr := s.Passes.DeleteByReservation(ctx, res.ID); delErr != nil {
			log.Printf("pass: discard uncommitted pass for reservation %d: %v", res.ID, delErr)
		}
		if errors.Is(err, repository.ErrStaleStatus) {
			actual := string(res.Status)
			if cur, gerr := s.Reservations.GetByID(ctx, res.ID); gerr == nil {
				actual = string(cur.Status)
			}
			return nil, &StateError{Actual: actual, Expected: string(model.ReservationPendingPayment)}
		}
		return nil, err
	}
	if err := s.Reservations.LinkPass(ctx, res.ID, pass.ID); err != nil {
		return nil, err
	}

	s.scheduleRender(ctx, pass)
	return pass, nil
}

// scheduleRender queues the PDF job, falling back to an inline render
// when no broker is configured or publishing fails. Render failures
// are logged, not returned: the document is re-rendered lazily on
// first download.
func (s *PassService) scheduleRender(ctx context.Context, pass *model.EGoPass) {
	if s.Jobs != nil {
		ev := queue.RenderRequestedEvent{
			PassID:      pass.ID,
			PassNumber:  pass.PassNumber,
			RequestedAt: s.Now().Format(time.RFC3339),
		}
		if err := s.Jobs.PublishRenderRequested(ctx, ev); err == nil {
			return
		}
		log.Printf("pass: queueing render for pass %d failed, rendering inline", pass.ID)
	}
	if err := s.RenderAndStore(ctx, pass.ID); err != nil {
		log.Printf("pass: inline render for pass %d failed: %v", pass.ID, err)
	}
}

// RenderAndStore renders the PDF for a pass and persists it. Safe to
// call repeatedly: rendering is deterministic for a given pass.
func (s *PassService) RenderAndStore(ctx context.Context, passID uint64) error {
	pass, err := s.Passes.GetByID(ctx, passID)
	if err != nil {
		return err
	}
	doc, err := RenderPassPDF(pass)
	if err != nil {
		return err
	}
	return s.Passes.UpdatePDF(ctx, passID, doc)
}

// GetPass returns a pass the user owns. Admins see any pass.
func (s *PassService) GetPass(ctx context.Context, userID uint64, admin bool, passID uint64) (*model.EGoPass, error) {
	pass, err := s.Passes.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if !admin {
		if err := s.checkOwner(ctx, userID, pass); err != nil {
			return nil, err
		}
	}
	return pass, nil
}

// GetDocument returns the PDF for a pass, rendering and caching it on
// first access. Repeated calls return the stored bytes unchanged.
func (s *PassService) GetDocument(ctx context.Context, userID uint64, admin bool, passID uint64) ([]byte, error) {
	pass, err := s.GetPass(ctx, userID, admin, passID)
	if err != nil {
		return nil, err
	}
	if len(pass.PDFDocument) > 0 {
		return pass.PDFDocument, nil
	}
	doc, err := RenderPassPDF(pass)
	if err != nil {
		return nil, err
	}
	if err := s.Passes.UpdatePDF(ctx, pass.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListPasses returns a page of the user's passes, newest first.
func (s *PassService) ListPasses(ctx context.Context, userID uint64, limit, offset int) ([]model.EGoPass, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Passes.ListByUser(ctx, userID, limit, offset)
}

// SearchPasses is the admin lookup across passenger names and flight
// numbers.
func (s *PassService) SearchPasses(ctx context.Context, term string) ([]model.EGoPass, error) {
	return s.Passes.Search(ctx, term)
}

// ListExpiredUnvalidated is the admin report of passes whose validity
// window elapsed without a gate check-in.
func (s *PassService) ListExpiredUnvalidated(ctx context.Context) ([]model.EGoPass, error) {
	return s.Passes.ListUnvalidatedExpiredBefore(ctx, s.Now())
}

// ValidatePass records a gate check-in. A pass can be validated once;
// a second attempt returns a StateError.
func (s *PassService) ValidatePass(ctx context.Context, passID, agentID uint64) (*model.EGoPass, error) {
	err := s.Passes.MarkValidated(ctx, passID, agentID, s.Now())
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, &StateError{Actual: "VALIDATED", Expected: "ISSUED"}
	}
	if err != nil {
		return nil, err
	}
	return s.Passes.GetByID(ctx, passID)
}

// ListReservations returns the user's reservations in a given status.
func (s *PassService) ListReservations(ctx context.Context, userID uint64, status model.ReservationStatus) ([]model.Reservation, error) {
	return s.Reservations.ListByUserAndStatus(ctx, userID, status)
}

func (s *PassService) checkOwner(ctx context.Context, userID uint64, pass *model.EGoPass) error {
	res, err := s.Reservations.GetByID(ctx, pass.ReservationID)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return repository.ErrPassNotFound
	}
	return nil
}
