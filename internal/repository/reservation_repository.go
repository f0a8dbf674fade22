package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rva/egopass/internal/model"
)

// ReservationRepo persists reservations with their embedded
// passenger and flight snapshots. The snapshot columns live in the
// reservations row itself (passenger_*, flight_* prefixes) so a
// reservation is always read and written as one unit.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = `id,user_id,
passenger_first_name,passenger_last_name,passenger_nationality,passenger_passport_number,passenger_passport_issue_date,passenger_email,passenger_phone,
flight_type,flight_number,flight_company,flight_origin,flight_destination,
status,pass_id,created_at,updated_at,expires_at`

// Create inserts a reservation and fills in its generated ID.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	out, err := r.DB.ExecContext(ctx,
		`INSERT INTO reservations
		(user_id, passenger_first_name, passenger_last_name, passenger_nationality, passenger_passport_number,
		 passenger_passport_issue_date, passenger_email, passenger_phone,
		 flight_type, flight_number, flight_company, flight_origin, flight_destination,
		 status, expires_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.UserID,
		res.Passenger.FirstName, res.Passenger.LastName, res.Passenger.Nationality, res.Passenger.PassportNumber,
		res.Passenger.PassportIssueDate, res.Passenger.Email, res.Passenger.Phone,
		res.Flight.FlightType, res.Flight.FlightNumber, res.Flight.FlightCompany, res.Flight.Origin, res.Flight.Destination,
		res.Status, res.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches a reservation by id.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? LIMIT 1", id)
	var res model.Reservation
	if err := scanReservation(row, &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// UpdateStatusIf transitions a reservation from the expected status
// to the new one in a single guarded UPDATE. It returns
// ErrStaleStatus when the row was not in the expected state anymore,
// which is how concurrent duplicate callbacks for the same
// reservation are fenced off.
func (r *ReservationRepo) UpdateStatusIf(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET status=?, updated_at=NOW() WHERE id=? AND status=?",
		to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

// LinkPass records the issued pass on its reservation.
func (r *ReservationRepo) LinkPass(ctx context.Context, reservationID, passID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET pass_id=?, updated_at=NOW() WHERE id=?",
		passID, reservationID)
	return err
}

// ListByUserAndStatus returns a user's reservations filtered by
// status, newest first.
func (r *ReservationRepo) ListByUserAndStatus(ctx context.Context, userID uint64, status model.ReservationStatus) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id=? AND status=? ORDER BY created_at DESC",
		userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListByStatusExpiredBefore returns reservations in the given status
// whose payment window ended before the deadline. The expiry sweeper
// feeds on this query.
func (r *ReservationRepo) ListByStatusExpiredBefore(ctx context.Context, status model.ReservationStatus, deadline time.Time) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE status=? AND expires_at < ? ORDER BY expires_at",
		status, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner, res *model.Reservation) error {
	var passID sql.NullInt64
	err := row.Scan(&res.ID, &res.UserID,
		&res.Passenger.FirstName, &res.Passenger.LastName, &res.Passenger.Nationality,
		&res.Passenger.PassportNumber, &res.Passenger.PassportIssueDate, &res.Passenger.Email, &res.Passenger.Phone,
		&res.Flight.FlightType, &res.Flight.FlightNumber, &res.Flight.FlightCompany,
		&res.Flight.Origin, &res.Flight.Destination,
		&res.Status, &passID, &res.CreatedAt, &res.UpdatedAt, &res.ExpiresAt)
	if err != nil {
		return err
	}
	if passID.Valid {
		v := uint64(passID.Int64)
		res.PassID = &v
	}
	return nil
}
