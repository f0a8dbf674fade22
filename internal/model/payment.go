package model

import "time"

// PaymentStatus enumerates the lifecycle of a payment.  PENDING is
// set at initiation; the gateway callback resolves it to COMPLETED
// or FAILED.
type PaymentStatus string

const (
    PaymentPending   PaymentStatus = "PENDING"
    PaymentCompleted PaymentStatus = "COMPLETED"
    PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentMethod enumerates the supported gateway channels.
type PaymentMethod string

const (
    MethodMobileMoney PaymentMethod = "MOBILE_MONEY"
    MethodCreditCard  PaymentMethod = "CREDIT_CARD"
    MethodPayPal      PaymentMethod = "PAYPAL"
)

// Payment is the single payment attached to a reservation.  The
// transaction reference is assigned by the gateway at initiation and
// is globally unique; it is the lookup key for verification
// callbacks.
//
// Fields:
//  ID            - primary key identifier.
//  ReservationID - owning reservation (1:1).
//  Amount        - fixed tier derived from the flight type.
//  Method        - payment channel.
//  Status        - payment lifecycle state.
//  TransactionRef- gateway-assigned opaque reference, unique.
//  ErrorMessage  - failure detail, empty unless FAILED.
//  CreatedAt     - initiation timestamp.
//  CompletedAt   - verification timestamp (null until resolved).
type Payment struct {
    ID             uint64        // payments.id
    ReservationID  uint64        // payments.reservation_id
    Amount         float64       // payments.amount
    Method         PaymentMethod // payments.method
    Status         PaymentStatus // payments.status
    TransactionRef string        // payments.transaction_reference
    ErrorMessage   string        // payments.error_message
    CreatedAt      time.Time     // payments.created_at
    CompletedAt    *time.Time    // payments.completed_at (nullable)
}

// CardDetails carries the card fields required when the CREDIT_CARD
// method is selected.  The mock gateway accepts any card; nothing is
// persisted.
type CardDetails struct {
    CardNumber     string `json:"cardNumber"`
    CardholderName string `json:"cardholderName"`
    ExpiryMonth    string `json:"expiryMonth"`
    ExpiryYear     string `json:"expiryYear"`
    CVV            string `json:"cvv"`
}
