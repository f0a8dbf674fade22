package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/service"
)

// PaymentHandler exposes payment status lookups.
type PaymentHandler struct {
	Payments *service.PaymentService
}

func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

type paymentResp struct {
	ID                   uint64     `json:"id"`
	ReservationID        uint64     `json:"reservationId"`
	Amount               float64    `json:"amount"`
	Method               string     `json:"method"`
	Status               string     `json:"status"`
	TransactionReference string     `json:"transactionReference,omitempty"`
	ErrorMessage         string     `json:"errorMessage,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

func paymentView(p *model.Payment) paymentResp {
	return paymentResp{
		ID:                   p.ID,
		ReservationID:        p.ReservationID,
		Amount:               p.Amount,
		Method:               string(p.Method),
		Status:               string(p.Status),
		TransactionReference: p.TransactionRef,
		ErrorMessage:         p.ErrorMessage,
		CreatedAt:            p.CreatedAt,
		CompletedAt:          p.CompletedAt,
	}
}

// Get returns the status of a payment the user owns; admins see any.
func (h *PaymentHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid payment id")
	}
	p, err := h.Payments.GetStatus(c.Request().Context(), uid, isAdmin(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", paymentView(p))
}
