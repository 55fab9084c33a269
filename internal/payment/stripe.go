package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/goodluckbakery/shop/internal/orders"
)

var (
	ErrGateway          = errors.New("payment: gateway error")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrMalformedPayload = errors.New("payment: malformed webhook payload")
)

// Intent is the client-side payment handle returned to the storefront.
type Intent struct {
	IntentID     string
	ClientSecret string
}

// Event is the subset of a processor webhook event the order flow needs.
type Event struct {
	ID          string
	Type        string
	IntentID    string
	OrderID     string
	OrderNumber string
}

const EventPaymentSucceeded = "payment_intent.succeeded"

// Adapter wraps the Stripe SDK. Keys come in through the config object, not
// process-wide globals.
type Adapter struct {
	sc            *client.API
	webhookSecret string
	currency      string
}

func New(secretKey, webhookSecret, currency string) *Adapter {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Adapter{sc: sc, webhookSecret: webhookSecret, currency: currency}
}

// CreateIntent registers a payment intent for the order's total, in minor
// units, carrying the order id and number as metadata for webhook
// correlation. The caller must undo the order if this fails.
func (a *Adapter) CreateIntent(ctx context.Context, o *orders.Order) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(o.Total.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(a.currency),
	}
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("order_number", o.OrderNumber)
	params.Description = stripe.String(fmt.Sprintf("Goodluck Bakery Order %s", o.OrderNumber))

	pi, err := a.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return &Intent{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyEvent checks the webhook signature and decodes the event. The two
// failure modes map to distinct sentinels; neither exposes verification
// internals to the caller's response.
func (a *Adapter) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, a.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrInvalidHeader) || errors.Is(err, webhook.ErrTooOld) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrMalformedPayload
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventPaymentSucceeded {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, ErrMalformedPayload
	}
	out.IntentID = pi.ID
	out.OrderID = pi.Metadata["order_id"]
	out.OrderNumber = pi.Metadata["order_number"]
	return out, nil
}
