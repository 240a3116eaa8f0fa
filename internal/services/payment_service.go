// internal/services/payment_service.go
package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/negmaretail/storefront/internal/config"
	"github.com/negmaretail/storefront/internal/models"
)

// PaymentService wraps the Stripe payment-intent flow for card orders. Cash
// orders never touch it. When no Stripe key is configured the service is
// disabled and card orders are accepted without an intent, which keeps local
// development free of Stripe credentials.
type PaymentService struct {
	enabled bool
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey
	return &PaymentService{enabled: cfg.Payment.StripeSecretKey != ""}
}

func (s *PaymentService) Enabled() bool {
	return s.enabled
}

// CreateOrderIntent creates a Stripe payment intent for the order total.
func (s *PaymentService) CreateOrderIntent(order *models.Order) (*PaymentIntentResponse, error) {
	if !s.enabled {
		return nil, nil
	}

	// Stripe amounts are integer cents.
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.Total * 100)),
		Currency: stripe.String("usd"),
	}
	params.AddMetadata("order_id", order.ID.Hex())
	params.AddMetadata("user_id", order.UserID.Hex())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// RefundOrder refunds the full intent backing a cancelled card order.
func (s *PaymentService) RefundOrder(order *models.Order) error {
	if !s.enabled || order.PaymentRef == "" {
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.PaymentRef),
		Reason:        stripe.String("requested_by_customer"),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refund payment intent: %w", err)
	}
	return nil
}
