package gateway

import (
	"context"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/refund"
	"github.com/stripe/stripe-go/v80/transfer"

	"rentspace-backend/internal/logger"
)

// StripeGateway implements PaymentGateway on top of the Stripe API.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	logger.ExternalServiceCall("stripe", "paymentintent.New", "amount_cents", amountCents)
	pi, err := paymentintent.New(params)
	logger.ExternalServiceResult("stripe", "paymentintent.New", err)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{Ref: pi.ID, ClientToken: pi.ClientSecret}, nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, ref string) error {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	logger.ExternalServiceCall("stripe", "paymentintent.Confirm", "ref", ref)
	_, err := paymentintent.Confirm(ref, params)
	logger.ExternalServiceResult("stripe", "paymentintent.Confirm", err)
	return err
}

func (g *StripeGateway) Refund(ctx context.Context, intentRef string, amountCents int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentRef),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	logger.ExternalServiceCall("stripe", "refund.New", "intent_ref", intentRef, "amount_cents", amountCents)
	re, err := refund.New(params)
	logger.ExternalServiceResult("stripe", "refund.New", err)
	if err != nil {
		return "", err
	}
	return re.ID, nil
}

func (g *StripeGateway) CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, groupRef string) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(currency),
		Destination:   stripe.String(destination),
		TransferGroup: stripe.String(groupRef),
	}
	params.Context = ctx

	logger.ExternalServiceCall("stripe", "transfer.New", "destination", destination, "amount_cents", amountCents)
	tr, err := transfer.New(params)
	logger.ExternalServiceResult("stripe", "transfer.New", err)
	if err != nil {
		return "", err
	}
	return tr.ID, nil
}
