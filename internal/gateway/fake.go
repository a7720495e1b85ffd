package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway is an in-memory PaymentGateway for dev mode and tests.
// Failures can be injected per operation.
type FakeGateway struct {
	mu        sync.Mutex
	intents   map[string]*fakeIntent
	transfers []FakeTransfer

	FailConfirm  bool
	FailRefund   bool
	FailTransfer bool
}

type fakeIntent struct {
	amountCents   int64
	captured      bool
	refundedCents int64
}

// FakeTransfer records one outbound transfer for assertions.
type FakeTransfer struct {
	Ref         string
	Destination string
	AmountCents int64
	GroupRef    string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*fakeIntent)}
}

func (g *FakeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref := "pi_" + uuid.NewString()
	g.intents[ref] = &fakeIntent{amountCents: amountCents}
	return &PaymentIntent{Ref: ref, ClientToken: ref + "_secret"}, nil
}

func (g *FakeGateway) ConfirmIntent(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailConfirm {
		return errors.New("fake gateway: confirm failed")
	}
	intent, ok := g.intents[ref]
	if !ok {
		return fmt.Errorf("fake gateway: unknown intent %q", ref)
	}
	intent.captured = true
	return nil
}

func (g *FakeGateway) Refund(ctx context.Context, intentRef string, amountCents int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailRefund {
		return "", errors.New("fake gateway: refund failed")
	}
	intent, ok := g.intents[intentRef]
	if !ok {
		return "", fmt.Errorf("fake gateway: unknown intent %q", intentRef)
	}
	if !intent.captured {
		return "", fmt.Errorf("fake gateway: intent %q not captured", intentRef)
	}
	if intent.refundedCents+amountCents > intent.amountCents {
		return "", fmt.Errorf("fake gateway: refund exceeds captured amount for %q", intentRef)
	}
	intent.refundedCents += amountCents
	return "re_" + uuid.NewString(), nil
}

func (g *FakeGateway) CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, groupRef string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailTransfer {
		return "", errors.New("fake gateway: transfer failed")
	}
	ref := "tr_" + uuid.NewString()
	g.transfers = append(g.transfers, FakeTransfer{
		Ref:         ref,
		Destination: destination,
		AmountCents: amountCents,
		GroupRef:    groupRef,
	})
	return ref, nil
}

// Transfers returns a copy of the recorded transfers.
func (g *FakeGateway) Transfers() []FakeTransfer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]FakeTransfer(nil), g.transfers...)
}
