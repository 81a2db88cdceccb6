package lib

import (
	"context"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// PaymentProcessor is the engine's view of the external payment collaborator.
// Callers pass a bounded context; no call here may block indefinitely.
type PaymentProcessor interface {
	// VerifyPayment confirms that paymentRef identifies a settled charge.
	VerifyPayment(ctx context.Context, paymentRef string) error
	// Refund issues a refund against the original charge and returns the
	// collaborator's refund reference.
	Refund(ctx context.Context, paymentRef string, amount float64, currency string) (string, error)
}

var paymentProcessor PaymentProcessor

func GetPaymentProcessor() PaymentProcessor {
	if paymentProcessor != nil {
		return paymentProcessor
	}
	paymentProcessor = &stripeProcessor{}
	return paymentProcessor
}

// NewPaymentProcessor replaces the collaborator. Tests inject a fake here.
func NewPaymentProcessor(p PaymentProcessor) {
	paymentProcessor = p
}

type stripeProcessor struct{}

func (p *stripeProcessor) VerifyPayment(ctx context.Context, paymentRef string) error {
	sc := GetStripeClient()
	intent, err := sc.V1PaymentIntents.Retrieve(ctx, paymentRef, nil)
	if err != nil {
		return err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment %s is in status %s", paymentRef, intent.Status)
	}
	return nil
}

func (p *stripeProcessor) Refund(ctx context.Context, paymentRef string, amount float64, currency string) (string, error) {
	sc := GetStripeClient()
	// Stripe wants minor units for decimal currencies.
	minorUnits := int64(amount * 100)
	refund, err := sc.V1Refunds.Create(ctx, &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(minorUnits),
	})
	if err != nil {
		return "", err
	}
	return refund.ID, nil
}
