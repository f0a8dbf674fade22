package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rva/egopass/internal/model"
)

// PaymentRepo persists the single payment attached to each
// reservation. The transaction reference column carries a unique
// index; it is the lookup key used by gateway callbacks.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentColumns = "id,reservation_id,amount,method,status,transaction_reference,error_message,created_at,completed_at"

// Create inserts a payment and fills in its generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (reservation_id, amount, method, status, transaction_reference, error_message) VALUES (?,?,?,?,?,?)",
		p.ReservationID, p.Amount, p.Method, p.Status, nullIfEmpty(p.TransactionRef), p.ErrorMessage)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a payment by id.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=? LIMIT 1", id))
}

// GetByTransactionRef fetches a payment by its gateway reference.
func (r *PaymentRepo) GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE transaction_reference=? LIMIT 1", ref))
}

// Update overwrites the mutable fields of a payment: status,
// transaction reference, error message and completion time.
func (r *PaymentRepo) Update(ctx context.Context, p *model.Payment) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE payments SET status=?, transaction_reference=?, error_message=?, completed_at=? WHERE id=?",
		p.Status, nullIfEmpty(p.TransactionRef), p.ErrorMessage, p.CompletedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PaymentRepo) scanOne(row *sql.Row) (*model.Payment, error) {
	var (
		p         model.Payment
		ref       sql.NullString
		completed sql.NullTime
	)
	err := row.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.Method, &p.Status, &ref, &p.ErrorMessage, &p.CreatedAt, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if ref.Valid {
		p.TransactionRef = ref.String
	}
	if completed.Valid {
		t := completed.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

// nullIfEmpty keeps the unique index on transaction_reference usable:
// multiple pending payments may exist before the gateway assigns a
// reference, and NULLs do not collide.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
