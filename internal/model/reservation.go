package model

import "time"

// ReservationStatus enumerates the lifecycle of a reservation.  A
// reservation starts in PENDING_PAYMENT and either completes when a
// verified payment triggers pass issuance, expires when the payment
// window elapses, or is cancelled explicitly.
type ReservationStatus string

const (
    ReservationPendingPayment ReservationStatus = "PENDING_PAYMENT"
    ReservationCompleted      ReservationStatus = "COMPLETED"
    ReservationExpired        ReservationStatus = "EXPIRED"
    ReservationCancelled      ReservationStatus = "CANCELLED"
)

// PassengerInfo is the traveller snapshot embedded in both
// reservations and issued passes.  It is copied, never referenced,
// so a pass keeps the data it was issued with even if the
// reservation is later mutated or swept away.
//
// Fields:
//  FirstName         - passenger first name.
//  LastName          - passenger last name.
//  Nationality       - passenger nationality.
//  PassportNumber    - passport number.
//  PassportIssueDate - date the passport was issued.
//  Email             - contact email.
//  Phone             - contact phone number.
type PassengerInfo struct {
    FirstName         string    `json:"firstName"`
    LastName          string    `json:"lastName"`
    Nationality       string    `json:"nationality"`
    PassportNumber    string    `json:"passportNumber"`
    PassportIssueDate time.Time `json:"passportIssueDate"`
    Email             string    `json:"email"`
    Phone             string    `json:"phone"`
}

// FullName joins first and last name for display and QR payloads.
func (p PassengerInfo) FullName() string {
    return p.FirstName + " " + p.LastName
}

// FlightInfo is the flight snapshot embedded in both reservations
// and issued passes.
//
// Fields:
//  FlightType    - LOCAL or INTERNATIONAL.
//  FlightNumber  - carrier flight number.
//  FlightCompany - operating airline.
//  Origin        - departure airport.
//  Destination   - arrival airport.
type FlightInfo struct {
    FlightType    string `json:"flightType"`
    FlightNumber  string `json:"flightNumber"`
    FlightCompany string `json:"flightCompany"`
    Origin        string `json:"origin"`
    Destination   string `json:"destination"`
}

// Flight types accepted by validation and used for the fixed
// payment tiers.
const (
    FlightLocal         = "LOCAL"
    FlightInternational = "INTERNATIONAL"
)

// Reservation aggregates the passenger and flight snapshots for a
// single eGoPass request.  At most one Payment and at most one
// EGoPass exist per reservation.
//
// Fields:
//  ID        - primary key identifier.
//  UserID    - user who created the reservation.
//  Passenger - embedded passenger snapshot.
//  Flight    - embedded flight snapshot.
//  Status    - reservation lifecycle state.
//  PassID    - issued pass, null until completion.
//  CreatedAt - creation timestamp.
//  UpdatedAt - last update timestamp.
//  ExpiresAt - end of the payment window; the sweeper flips
//              reservations past this point to EXPIRED.
type Reservation struct {
    ID        uint64            // reservations.id
    UserID    uint64            // reservations.user_id
    Passenger PassengerInfo     // reservations.passenger_* columns
    Flight    FlightInfo        // reservations.flight_* columns
    Status    ReservationStatus // reservations.status
    PassID    *uint64           // reservations.pass_id (nullable)
    CreatedAt time.Time         // reservations.created_at
    UpdatedAt time.Time         // reservations.updated_at
    ExpiresAt time.Time         // reservations.expires_at
}
