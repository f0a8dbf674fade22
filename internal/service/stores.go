package service

import (
	"context"
	"time"

	"github.com/rva/egopass/internal/model"
)

// The store interfaces below name exactly the persistence calls the
// services make. The repository package satisfies them with MySQL;
// tests satisfy them with in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	UpdateStatusIf(ctx context.Context, id uint64, from, to model.ReservationStatus) error
	LinkPass(ctx context.Context, reservationID, passID uint64) error
	ListByUserAndStatus(ctx context.Context, userID uint64, status model.ReservationStatus) ([]model.Reservation, error)
	ListByStatusExpiredBefore(ctx context.Context, status model.ReservationStatus, deadline time.Time) ([]model.Reservation, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
}

type PassStore interface {
	Create(ctx context.Context, p *model.EGoPass) error
	GetByID(ctx context.Context, id uint64) (*model.EGoPass, error)
	UpdatePDF(ctx context.Context, id uint64, pdf []byte) error
	MarkValidated(ctx context.Context, id, agentID uint64, at time.Time) error
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.EGoPass, error)
	ListUnvalidatedExpiredBefore(ctx context.Context, deadline time.Time) ([]model.EGoPass, error)
	Search(ctx context.Context, term string) ([]model.EGoPass, error)
	DeleteByReservation(ctx context.Context, reservationID uint64) error
}

type TokenStore interface {
	PurgeExpiredBefore(ctx context.Context, deadline time.Time) (int64, error)
}
