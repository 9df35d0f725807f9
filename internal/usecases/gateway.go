package usecases

import (
	"context"

	"member-care.backend/internal/infrastructure/gateway"
)

// PaymentGateway is the payment provider surface the usecases depend on
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, email string, children int, memberRef string) (*gateway.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error)
	SetChildQuantity(ctx context.Context, subscriptionID string, newCount int) error
	ChildPriceID() string
}
