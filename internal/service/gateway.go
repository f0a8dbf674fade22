package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rva/egopass/internal/model"
)

// InitiationResult is what the gateway hands back when a payment is
// opened: the reference the callback will quote, the URL the client is
// redirected to, and channel specific instructions.
type InitiationResult struct {
	TransactionRef string
	RedirectURL    string
	Instructions   string
}

// PaymentGateway abstracts the external payment provider, one
// initiation call per supported channel.
type PaymentGateway interface {
	InitiateMobileMoney(ctx context.Context, p *model.Payment) (InitiationResult, error)
	InitiateCreditCard(ctx context.Context, p *model.Payment, card model.CardDetails) (InitiationResult, error)
	InitiatePayPal(ctx context.Context, p *model.Payment) (InitiationResult, error)
	// Verify reports whether the transaction with the given
	// reference settled successfully.
	Verify(ctx context.Context, transactionRef string) (bool, error)
}

// MockGateway simulates the provider: every initiation succeeds with a
// fresh reference and every verification settles. It keeps the full
// workflow exercisable without provider credentials.
type MockGateway struct {
	// BaseURL is the redirect host, e.g. "https://mock-payment-gateway.com".
	BaseURL string
}

func NewMockGateway(baseURL string) *MockGateway {
	return &MockGateway{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (g *MockGateway) InitiateMobileMoney(ctx context.Context, p *model.Payment) (InitiationResult, error) {
	res := g.open()
	res.Instructions = "Confirm the payment prompt on your mobile device to complete the transaction."
	return res, nil
}

func (g *MockGateway) InitiateCreditCard(ctx context.Context, p *model.Payment, card model.CardDetails) (InitiationResult, error) {
	res := g.open()
	res.Instructions = "Complete the card verification at the redirect URL."
	return res, nil
}

func (g *MockGateway) InitiatePayPal(ctx context.Context, p *model.Payment) (InitiationResult, error) {
	res := g.open()
	res.Instructions = "Log in to your PayPal account at the redirect URL to approve the payment."
	return res, nil
}

// Verify always settles in the mock implementation.
func (g *MockGateway) Verify(ctx context.Context, transactionRef string) (bool, error) {
	return true, nil
}

func (g *MockGateway) open() InitiationResult {
	ref := randomCode("TXN-", 12)
	return InitiationResult{
		TransactionRef: ref,
		RedirectURL:    g.BaseURL + "/redirect?tx=" + ref,
	}
}

// randomCode returns the prefix followed by the first n characters of
// an uppercased random UUID with the dashes stripped. Used for pass
// numbers and transaction references.
func randomCode(prefix string, n int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + raw[:n]
}
