package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/rva/egopass/internal/model"
)

var (
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateReservation checks the passenger and flight details of a new
// reservation. Rules run in a fixed order and the first failure wins;
// the returned ValidationError names the offending field.
func ValidateReservation(p model.PassengerInfo, f model.FlightInfo, now time.Time) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return &ValidationError{Field: "firstName", Message: "first name is required"}
	}
	if strings.TrimSpace(p.LastName) == "" {
		return &ValidationError{Field: "lastName", Message: "last name is required"}
	}
	if strings.TrimSpace(p.Nationality) == "" {
		return &ValidationError{Field: "nationality", Message: "nationality is required"}
	}
	if strings.TrimSpace(p.PassportNumber) == "" {
		return &ValidationError{Field: "passportNumber", Message: "passport number is required"}
	}
	if p.PassportIssueDate.IsZero() {
		return &ValidationError{Field: "passportIssueDate", Message: "passport issue date is required"}
	}
	if p.PassportIssueDate.After(now) {
		return &ValidationError{Field: "passportIssueDate", Message: "passport issue date cannot be in the future"}
	}
	if strings.TrimSpace(p.Email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailPattern.MatchString(p.Email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	if strings.TrimSpace(p.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "phone number is required"}
	}
	if !phonePattern.MatchString(p.Phone) {
		return &ValidationError{Field: "phone", Message: "invalid phone number format"}
	}
	if f.FlightType != model.FlightLocal && f.FlightType != model.FlightInternational {
		return &ValidationError{Field: "flightType", Message: "flight type must be LOCAL or INTERNATIONAL"}
	}
	if strings.TrimSpace(f.FlightCompany) == "" {
		return &ValidationError{Field: "flightCompany", Message: "flight company is required"}
	}
	if strings.TrimSpace(f.FlightNumber) == "" {
		return &ValidationError{Field: "flightNumber", Message: "flight number is required"}
	}
	if strings.TrimSpace(f.Origin) == "" {
		return &ValidationError{Field: "origin", Message: "origin is required"}
	}
	if strings.TrimSpace(f.Destination) == "" {
		return &ValidationError{Field: "destination", Message: "destination is required"}
	}
	if strings.EqualFold(strings.TrimSpace(f.Origin), strings.TrimSpace(f.Destination)) {
		return &ValidationError{Field: "destination", Message: "origin and destination cannot be the same"}
	}
	return nil
}
