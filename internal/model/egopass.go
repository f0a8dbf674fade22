package model

import "time"

// EGoPass is the issued travel document.  It snapshots the
// passenger and flight data from its reservation at issuance time
// and is immutable afterwards except for the cached PDF document
// and the gate-validation fields.
//
// Fields:
//  ID               - primary key identifier.
//  PassNumber       - unique generated number, "EGP-" prefix.
//  ReservationID    - reservation the pass was issued for (1:1).
//  Passenger        - passenger snapshot at issuance.
//  Flight           - flight snapshot at issuance.
//  QRCodeImage      - PNG bytes of the encoded QR payload.
//  PDFDocument      - cached rendered document; null until the
//                     background job or the first download fills it.
//  IssueDate        - issuance timestamp.
//  ExpiryDate       - end of the pass validity window.
//  Validated        - set by gate check-in.
//  ValidationDate   - when the pass was validated (nullable).
//  ValidationUserID - agent who validated the pass (nullable).
type EGoPass struct {
    ID               uint64        // egopasses.id
    PassNumber       string        // egopasses.pass_number
    ReservationID    uint64        // egopasses.reservation_id
    Passenger        PassengerInfo // egopasses.passenger_* columns
    Flight           FlightInfo    // egopasses.flight_* columns
    QRCodeImage      []byte        // egopasses.qr_code_image
    PDFDocument      []byte        // egopasses.pdf_document (nullable)
    IssueDate        time.Time     // egopasses.issue_date
    ExpiryDate       time.Time     // egopasses.expiry_date
    Validated        bool          // egopasses.validated
    ValidationDate   *time.Time    // egopasses.validation_date (nullable)
    ValidationUserID *uint64       // egopasses.validation_user_id (nullable)
}
