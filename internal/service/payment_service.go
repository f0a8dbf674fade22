package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/repository"
)

// Fixed payment tiers per flight type.
const (
	AmountInternational = 50.0
	AmountLocal         = 25.0
)

// AmountFor returns the fee charged for a flight type.
func AmountFor(flightType string) float64 {
	if flightType == model.FlightInternational {
		return AmountInternational
	}
	return AmountLocal
}

// PaymentService opens payments against the gateway and resolves them
// when the gateway calls back.
type PaymentService struct {
	Payments     PaymentStore
	Reservations ReservationStore
	Gateway      PaymentGateway
	Now          func() time.Time
}

func NewPaymentService(payments PaymentStore, reservations ReservationStore, gw PaymentGateway) *PaymentService {
	return &PaymentService{
		Payments:     payments,
		Reservations: reservations,
		Gateway:      gw,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a payment for a reservation the user owns. The
// reservation must still be awaiting payment. The amount is derived
// from the flight type, never taken from the client. A gateway failure
// is recorded on the payment as FAILED before the error is returned.
func (s *PaymentService) Initiate(ctx context.Context, userID, reservationID uint64, method model.PaymentMethod, card *model.CardDetails) (*model.Payment, InitiationResult, error) {
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, InitiationResult{}, err
	}
	if res.UserID != userID {
		// Hide other users' reservations entirely.
		return nil, InitiationResult{}, repository.ErrReservationNotFound
	}
	if res.Status != model.ReservationPendingPayment {
		return nil, InitiationResult{}, &StateError{Actual: string(res.Status), Expected: string(model.ReservationPendingPayment)}
	}
	if method != model.MethodMobileMoney && method != model.MethodCreditCard && method != model.MethodPayPal {
		return nil, InitiationResult{}, &ValidationError{Field: "method", Message: "unsupported payment method"}
	}
	if method == model.MethodCreditCard && card == nil {
		return nil, InitiationResult{}, &ValidationError{Field: "cardDetails", Message: "card details are required for card payments"}
	}

	p := &model.Payment{
		ReservationID: res.ID,
		Amount:        AmountFor(res.Flight.FlightType),
		Method:        method,
		Status:        model.PaymentPending,
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, InitiationResult{}, err
	}

	var init InitiationResult
	switch method {
	case model.MethodMobileMoney:
		init, err = s.Gateway.InitiateMobileMoney(ctx, p)
	case model.MethodCreditCard:
		init, err = s.Gateway.InitiateCreditCard(ctx, p, *card)
	case model.MethodPayPal:
		init, err = s.Gateway.InitiatePayPal(ctx, p)
	}
	if err != nil {
		p.Status = model.PaymentFailed
		p.ErrorMessage = err.Error()
		if uerr := s.Payments.Update(ctx, p); uerr != nil {
			log.Printf("payment: record gateway failure for payment %d: %v", p.ID, uerr)
		}
		return nil, InitiationResult{}, &PaymentError{Reason: "gateway initiation failed", Err: err}
	}

	p.TransactionRef = init.TransactionRef
	if err := s.Payments.Update(ctx, p); err != nil {
		return nil, InitiationResult{}, err
	}
	return p, init, nil
}

// Confirm resolves a payment from a gateway callback. The transaction
// reference must belong to a pending payment; a second callback for an
// already resolved payment is rejected without touching any state. A
// negative verification is recorded as FAILED before the error is
// returned.
func (s *PaymentService) Confirm(ctx context.Context, transactionRef string) (*model.Payment, error) {
	p, err := s.Payments.GetByTransactionRef(ctx, transactionRef)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, &PaymentError{Reason: "unknown transaction reference"}
		}
		return nil, err
	}
	if p.Status != model.PaymentPending {
		return nil, &StateError{Actual: string(p.Status), Expected: string(model.PaymentPending)}
	}

	ok, err := s.Gateway.Verify(ctx, transactionRef)
	if err != nil {
		return nil, &PaymentError{Reason: "gateway verification failed", Err: err}
	}
	if !ok {
		p.Status = model.PaymentFailed
		p.ErrorMessage = "gateway declined the transaction"
		if uerr := s.Payments.Update(ctx, p); uerr != nil {
			log.Printf("payment: record declined payment %d: %v", p.ID, uerr)
		}
		return nil, &PaymentError{Reason: "gateway declined the transaction"}
	}

	now := s.Now()
	p.Status = model.PaymentCompleted
	p.CompletedAt = &now
	if err := s.Payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetStatus returns a payment if the requesting user owns the
// reservation it belongs to. Admins pass admin=true and see any
// payment.
func (s *PaymentService) GetStatus(ctx context.Context, userID uint64, admin bool, paymentID uint64) (*model.Payment, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !admin {
		res, err := s.Reservations.GetByID(ctx, p.ReservationID)
		if err != nil {
			return nil, err
		}
		if res.UserID != userID {
			return nil, repository.ErrPaymentNotFound
		}
	}
	return p, nil
}
