// Package gateway abstracts the third-party payment processor. The engine
// only needs four operations; each returns a stable external reference so
// retries and reconciliation can key off it.
package gateway

import "context"

// PaymentIntent is the gateway-side record of an authorized charge.
type PaymentIntent struct {
	Ref         string
	ClientToken string
}

type PaymentGateway interface {
	// CreateIntent opens a payment intent for the given amount.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	// ConfirmIntent captures a previously created intent.
	ConfirmIntent(ctx context.Context, ref string) error
	// Refund returns amountCents of a captured intent and returns the
	// refund reference.
	Refund(ctx context.Context, intentRef string, amountCents int64) (string, error)
	// CreateTransfer moves amountCents to an owner's payout destination
	// and returns the transfer reference.
	CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, groupRef string) (string, error)
}
