package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/service"
)

// PassHandler exposes the pass workflow: initiation, the gateway
// callback, retrieval and document download.
type PassHandler struct {
	Passes   *service.PassService
	Payments *service.PaymentService
}

func NewPassHandler(passes *service.PassService, payments *service.PaymentService) *PassHandler {
	return &PassHandler{Passes: passes, Payments: payments}
}

// ----- DTOs -----

type initiateReq struct {
	Passenger     model.PassengerInfo `json:"passenger"`
	Flight        model.FlightInfo    `json:"flight"`
	PaymentMethod string              `json:"paymentMethod"`
	CardDetails   *model.CardDetails  `json:"cardDetails,omitempty"`
}

type initiateResp struct {
	ReservationID        uint64  `json:"reservationId"`
	PaymentID            uint64  `json:"paymentId"`
	Amount               float64 `json:"amount"`
	TransactionReference string  `json:"transactionReference"`
	RedirectURL          string  `json:"redirectUrl"`
	Instructions         string  `json:"instructions,omitempty"`
	ExpiresIn            int64   `json:"expiresIn"` // seconds left in the payment window
}

type callbackReq struct {
	TransactionReference string            `json:"transactionReference"`
	ReservationID        uint64            `json:"reservationId"`
	Status               string            `json:"status"`
	AdditionalData       map[string]string `json:"additionalData,omitempty"`
}

type passResp struct {
	ID            uint64              `json:"id"`
	PassNumber    string              `json:"passNumber"`
	ReservationID uint64              `json:"reservationId"`
	Passenger     model.PassengerInfo `json:"passenger"`
	Flight        model.FlightInfo    `json:"flight"`
	IssueDate     time.Time           `json:"issueDate"`
	ExpiryDate    time.Time           `json:"expiryDate"`
	Validated     bool                `json:"validated"`
	HasDocument   bool                `json:"hasDocument"`
}

func passView(p *model.EGoPass) passResp {
	return passResp{
		ID:            p.ID,
		PassNumber:    p.PassNumber,
		ReservationID: p.ReservationID,
		Passenger:     p.Passenger,
		Flight:        p.Flight,
		IssueDate:     p.IssueDate,
		ExpiryDate:    p.ExpiryDate,
		Validated:     p.Validated,
		HasDocument:   len(p.PDFDocument) > 0,
	}
}

// Initiate validates the submitted details, opens a reservation and a
// payment against the gateway in one call, and returns everything the
// client needs to complete the payment.
func (h *PassHandler) Initiate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	var req initiateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid body")
	}

	ctx := c.Request().Context()
	res, err := h.Passes.CreateReservation(ctx, uid, req.Passenger, req.Flight)
	if err != nil {
		return respondError(c, err)
	}
	p, init, err := h.Payments.Initiate(ctx, uid, res.ID, model.PaymentMethod(strings.ToUpper(req.PaymentMethod)), req.CardDetails)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusCreated, "payment initiated", initiateResp{
		ReservationID:        res.ID,
		PaymentID:            p.ID,
		Amount:               p.Amount,
		TransactionReference: p.TransactionRef,
		RedirectURL:          init.RedirectURL,
		Instructions:         init.Instructions,
		ExpiresIn:            int64(time.Until(res.ExpiresAt).Seconds()),
	})
}

// Callback is the gateway's payment notification. A verified payment
// triggers pass issuance; duplicate notifications for the same
// transaction are rejected with a conflict.
func (h *PassHandler) Callback(c echo.Context) error {
	var req callbackReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.TransactionReference) == "" {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "transactionReference required")
	}

	ctx := c.Request().Context()
	payment, err := h.Payments.Confirm(ctx, req.TransactionReference)
	if err != nil {
		return respondError(c, err)
	}
	pass, err := h.Passes.IssuePass(ctx, payment.ReservationID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "payment verified, pass issued", passView(pass))
}

// Get returns a single pass the user owns; admins see any pass.
func (h *PassHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid pass id")
	}
	pass, err := h.Passes.GetPass(c.Request().Context(), uid, isAdmin(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", passView(pass))
}

// Download streams the pass PDF. The document is rendered and cached
// on first access, so repeated downloads return identical bytes.
func (h *PassHandler) Download(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid pass id")
	}
	doc, err := h.Passes.GetDocument(c.Request().Context(), uid, isAdmin(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("egopass-%d.pdf", id)))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// List returns the user's passes, paginated with ?page and ?limit.
// Admins get two extra views: ?search= for a free-text lookup across
// all passes, ?expired=true for passes that lapsed without a gate
// validation.
func (h *PassHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	ctx := c.Request().Context()

	if term := strings.TrimSpace(c.QueryParam("search")); term != "" && isAdmin(c) {
		passes, err := h.Passes.SearchPasses(ctx, term)
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, http.StatusOK, "", passViews(passes))
	}
	if c.QueryParam("expired") == "true" && isAdmin(c) {
		passes, err := h.Passes.ListExpiredUnvalidated(ctx)
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, http.StatusOK, "", passViews(passes))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	passes, err := h.Passes.ListPasses(ctx, uid, limit, (page-1)*limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", passViews(passes))
}

// Validate records a gate check-in on a pass. Admin only, enforced by
// the router.
func (h *PassHandler) Validate(c echo.Context) error {
	agentID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid pass id")
	}
	pass, err := h.Passes.ValidatePass(c.Request().Context(), id, agentID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "pass validated", passView(pass))
}

func passViews(passes []model.EGoPass) []passResp {
	out := make([]passResp, 0, len(passes))
	for i := range passes {
		out = append(out, passView(&passes[i]))
	}
	return out
}
