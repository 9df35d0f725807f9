package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"member-care.backend/internal/domain/entities"
	"member-care.backend/internal/infrastructure/gateway"
)

// Mock MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *entities.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByEmail(ctx context.Context, email string) (*entities.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*entities.Member, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) UpdateChildren(ctx context.Context, id uuid.UUID, children int) error {
	args := m.Called(ctx, id, children)
	return args.Error(0)
}

func (m *MockMemberRepository) SetStripeReferences(ctx context.Context, id uuid.UUID, customerID, subscriptionID string, status entities.SubscriptionStatus) error {
	args := m.Called(ctx, id, customerID, subscriptionID, status)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateSubscriptionState(ctx context.Context, subscriptionID string, sub entities.SubscriptionStatus, cert entities.CertificateStatus, expiry time.Time) error {
	args := m.Called(ctx, subscriptionID, sub, cert, expiry)
	return args.Error(0)
}

// Mock PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, email string, children int, memberRef string) (*gateway.CheckoutSession, error) {
	args := m.Called(ctx, email, children, memberRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

func (m *MockPaymentGateway) GetSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockPaymentGateway) SetChildQuantity(ctx context.Context, subscriptionID string, newCount int) error {
	args := m.Called(ctx, subscriptionID, newCount)
	return args.Error(0)
}

func (m *MockPaymentGateway) ChildPriceID() string {
	args := m.Called()
	return args.String(0)
}

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}
