package handler // handler translates service results and errors into HTTP responses

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/repository"
	"github.com/rva/egopass/internal/service"
)

// apiResponse is the envelope every JSON endpoint answers with.
// Status is "success" or "error"; ErrorCode is machine readable and
// only set on errors; Links carries follow-up navigation hints.
type apiResponse struct {
	Status    string            `json:"status"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, apiResponse{Status: "success", Message: message, Data: data})
}

func respondWithLinks(c echo.Context, code int, message string, data any, links map[string]string) error {
	return c.JSON(code, apiResponse{Status: "success", Message: message, Data: data, Links: links})
}

func fail(c echo.Context, code int, errorCode, message string) error {
	return c.JSON(code, apiResponse{Status: "error", ErrorCode: errorCode, Message: message})
}

// respondError maps typed service and repository errors to HTTP
// responses. Anything unrecognized is logged in full and answered
// with a generic 500 so internals never leak to clients.
func respondError(c echo.Context, err error) error {
	var (
		vErr *service.ValidationError
		sErr *service.StateError
		pErr *service.PaymentError
		rErr *service.RenderError
	)
	switch {
	case errors.As(err, &vErr):
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
	case errors.As(err, &sErr):
		return fail(c, http.StatusConflict, "INVALID_STATE", sErr.Error())
	case errors.As(err, &pErr):
		return fail(c, http.StatusBadRequest, "PAYMENT_FAILED", pErr.Error())
	case errors.As(err, &rErr):
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return fail(c, http.StatusInternalServerError, "DOCUMENT_ERROR", "document generation failed")
	case errors.Is(err, repository.ErrUserNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, repository.ErrReservationNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "reservation not found")
	case errors.Is(err, repository.ErrPaymentNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "payment not found")
	case errors.Is(err, repository.ErrPassNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "pass not found")
	case errors.Is(err, repository.ErrUserExists):
		return fail(c, http.StatusConflict, "CONFLICT", "username or email already exists")
	default:
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
