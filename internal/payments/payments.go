// Package payments carries the payment-gateway relay payloads. The client
// never verifies anything itself: it forwards the gateway's signed callback
// fields to the backend, which owns settlement.
package payments

import (
	"errors"
	"strings"
)

// Order is a gateway order created server-side for a checkout. Amount is in
// the gateway's smallest currency unit.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GatewayResponse is the signed callback payload the gateway hands the
// client after a checkout, relayed verbatim for server-side verification.
type GatewayResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Validate rejects incomplete callbacks before they reach the network.
func (g GatewayResponse) Validate() error {
	if strings.TrimSpace(g.PaymentID) == "" ||
		strings.TrimSpace(g.OrderID) == "" ||
		strings.TrimSpace(g.Signature) == "" {
		return errors.New("payments: incomplete gateway response")
	}
	return nil
}
