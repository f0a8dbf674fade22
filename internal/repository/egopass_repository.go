package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rva/egopass/internal/model"
)

// EGoPassRepo persists issued passes. Like reservations, the
// passenger and flight snapshots are stored inline in the
// egopasses row so a pass never depends on its reservation being
// readable.
type EGoPassRepo struct{ DB *sql.DB }

func NewEGoPassRepo(db *sql.DB) *EGoPassRepo { return &EGoPassRepo{DB: db} }

const passColumns = `id,pass_number,reservation_id,
passenger_first_name,passenger_last_name,passenger_nationality,passenger_passport_number,passenger_passport_issue_date,passenger_email,passenger_phone,
flight_type,flight_number,flight_company,flight_origin,flight_destination,
qr_code_image,pdf_document,issue_date,expiry_date,validated,validation_date,validation_user_id`

// Create inserts a pass and fills in its generated ID.
func (r *EGoPassRepo) Create(ctx context.Context, p *model.EGoPass) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO egopasses
		(pass_number, reservation_id,
		 passenger_first_name, passenger_last_name, passenger_nationality, passenger_passport_number,
		 passenger_passport_issue_date, passenger_email, passenger_phone,
		 flight_type, flight_number, flight_company, flight_origin, flight_destination,
		 qr_code_image, issue_date, expiry_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.PassNumber, p.ReservationID,
		p.Passenger.FirstName, p.Passenger.LastName, p.Passenger.Nationality, p.Passenger.PassportNumber,
		p.Passenger.PassportIssueDate, p.Passenger.Email, p.Passenger.Phone,
		p.Flight.FlightType, p.Flight.FlightNumber, p.Flight.FlightCompany, p.Flight.Origin, p.Flight.Destination,
		p.QRCodeImage, p.IssueDate, p.ExpiryDate)
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

// GetByID fetches a pass by id, including the QR and PDF blobs.
func (r *EGoPassRepo) GetByID(ctx context.Context, id uint64) (*model.EGoPass, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+passColumns+" FROM egopasses WHERE id=? LIMIT 1", id)
	var p model.EGoPass
	if err := scanPass(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePDF stores the rendered document on a pass. Last write wins:
// rendering is deterministic from the immutable pass fields, so two
// racing writers store identical bytes.
func (r *EGoPassRepo) UpdatePDF(ctx context.Context, id uint64, pdf []byte) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE egopasses SET pdf_document=? WHERE id=?", pdf, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkValidated records a gate check-in on a pass.
func (r *EGoPassRepo) MarkValidated(ctx context.Context, id, agentID uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE egopasses SET validated=1, validation_date=?, validation_user_id=? WHERE id=? AND validated=0",
		at, agentID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

// ListByUser returns a user's passes ordered by issue date
// descending, paginated by limit/offset. The join goes through
// reservations because passes do not store the owner directly.
func (r *EGoPassRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.EGoPass, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+prefixed(passColumns, "e.")+`
		FROM egopasses e JOIN reservations res ON res.id = e.reservation_id
		WHERE res.user_id=? ORDER BY e.issue_date DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPasses(rows)
}

// ListUnvalidatedExpiredBefore returns passes that were never
// validated at a gate and whose validity window ended before the
// deadline.
func (r *EGoPassRepo) ListUnvalidatedExpiredBefore(ctx context.Context, deadline time.Time) ([]model.EGoPass, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+passColumns+" FROM egopasses WHERE validated=0 AND expiry_date < ? ORDER BY expiry_date", deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPasses(rows)
}

// Search performs a case-insensitive substring match across the
// passenger first/last name and the flight number.
func (r *EGoPassRepo) Search(ctx context.Context, term string) ([]model.EGoPass, error) {
	like := "%" + term + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+passColumns+` FROM egopasses
		WHERE LOWER(passenger_first_name) LIKE LOWER(?)
		   OR LOWER(passenger_last_name) LIKE LOWER(?)
		   OR LOWER(flight_number) LIKE LOWER(?)
		ORDER BY issue_date DESC`,
		like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPasses(rows)
}

// DeleteByReservation removes the pass belonging to a reservation.
// Used by the explicit cascade when a reservation is deleted.
func (r *EGoPassRepo) DeleteByReservation(ctx context.Context, reservationID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM egopasses WHERE reservation_id=?", reservationID)
	return err
}

func collectPasses(rows *sql.Rows) ([]model.EGoPass, error) {
	var out []model.EGoPass
	for rows.Next() {
		var p model.EGoPass
		if err := scanPass(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPass(row rowScanner, p *model.EGoPass) error {
	var (
		validatedAt sql.NullTime
		agentID     sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.PassNumber, &p.ReservationID,
		&p.Passenger.FirstName, &p.Passenger.LastName, &p.Passenger.Nationality,
		&p.Passenger.PassportNumber, &p.Passenger.PassportIssueDate, &p.Passenger.Email, &p.Passenger.Phone,
		&p.Flight.FlightType, &p.Flight.FlightNumber, &p.Flight.FlightCompany, &p.Flight.Origin, &p.Flight.Destination,
		&p.QRCodeImage, &p.PDFDocument, &p.IssueDate, &p.ExpiryDate,
		&p.Validated, &validatedAt, &agentID)
	if err != nil {
		return err
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		p.ValidationDate = &t
	}
	if agentID.Valid {
		v := uint64(agentID.Int64)
		p.ValidationUserID = &v
	}
	return nil
}

// prefixed rewrites a comma separated column list with a table
// alias, for use in joins.
func prefixed(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
