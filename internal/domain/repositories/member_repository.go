package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"member-care.backend/internal/domain/entities"
)

// MemberRepository defines membership data operations
type MemberRepository interface {
	Create(ctx context.Context, member *entities.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Member, error)
	GetByEmail(ctx context.Context, email string) (*entities.Member, error)
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*entities.Member, error)

	// UpdateChildren sets the dependent count
	UpdateChildren(ctx context.Context, id uuid.UUID, children int) error

	// SetStripeReferences binds the gateway customer/subscription IDs to a
	// member. The subscription reference is set at most once; replays with the
	// same subscription ID succeed, a different one does not match.
	SetStripeReferences(ctx context.Context, id uuid.UUID, customerID, subscriptionID string, status entities.SubscriptionStatus) error

	// UpdateSubscriptionState applies a reconciled (subscription, certificate,
	// expiry) triple to the record owning the gateway subscription reference.
	UpdateSubscriptionState(ctx context.Context, subscriptionID string, sub entities.SubscriptionStatus, cert entities.CertificateStatus, expiry time.Time) error
}
