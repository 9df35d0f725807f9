package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/infrastructure/gateway"
	"member-care.backend/internal/usecases"
	"member-care.backend/pkg/utils"
)

func newReconciler() (*usecases.ReconcilerUsecase, *MockMemberRepository, *MockPaymentGateway, *MockUnitOfWork) {
	memberRepo := new(MockMemberRepository)
	paymentGateway := new(MockPaymentGateway)
	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	return usecases.NewReconcilerUsecase(memberRepo, paymentGateway, uow), memberRepo, paymentGateway, uow
}

func event(eventType string, object string) *usecases.WebhookEvent {
	return &usecases.WebhookEvent{
		ID:     "evt_1",
		Type:   eventType,
		Object: json.RawMessage(object),
	}
}

func TestProcessEvent_CheckoutCompleted(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	memberID := utils.GenerateUUIDv7()
	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	paymentGateway.On("GetSubscription", mock.Anything, "sub_1").Return(&gateway.Subscription{
		ID:               "sub_1",
		Status:           "active",
		CustomerID:       "cus_1",
		CurrentPeriodEnd: periodEnd.Unix(),
	}, nil)
	memberRepo.On("SetStripeReferences", mock.Anything, memberID, "cus_1", "sub_1", entities.SubscriptionActive).Return(nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionActive, entities.CertificateActive, periodEnd).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("checkout.session.completed", fmt.Sprintf(
		`{"customer":"cus_1","subscription":"sub_1","metadata":{"app_user_id":"%s"}}`, memberID)))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_CheckoutCompleted_UnsettledFirstInvoice(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	memberID := utils.GenerateUUIDv7()
	paymentGateway.On("GetSubscription", mock.Anything, "sub_1").Return(&gateway.Subscription{
		ID:     "sub_1",
		Status: "incomplete",
	}, nil)
	memberRepo.On("SetStripeReferences", mock.Anything, memberID, "", "sub_1", entities.SubscriptionIncomplete).Return(nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionIncomplete, entities.CertificatePendingPayment, mock.Anything).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("checkout.session.completed", fmt.Sprintf(
		`{"subscription":"sub_1","metadata":{"app_user_id":"%s"}}`, memberID)))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_CheckoutCompleted_MissingMemberReference(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	// No metadata at all; event must be acknowledged without touching anything
	err := uc.ProcessEvent(context.Background(), event("checkout.session.completed",
		`{"customer":"cus_1","subscription":"sub_1","metadata":{}}`))
	assert.NoError(t, err)
	paymentGateway.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	memberRepo.AssertNotCalled(t, "SetStripeReferences", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEvent_CheckoutCompleted_UnknownMemberAcked(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	memberID := utils.GenerateUUIDv7()
	paymentGateway.On("GetSubscription", mock.Anything, "sub_1").Return(&gateway.Subscription{
		ID:     "sub_1",
		Status: "active",
	}, nil)
	memberRepo.On("SetStripeReferences", mock.Anything, memberID, mock.Anything, "sub_1", mock.Anything).
		Return(domainerrors.ErrNotFound)

	err := uc.ProcessEvent(context.Background(), event("checkout.session.completed", fmt.Sprintf(
		`{"subscription":"sub_1","metadata":{"app_user_id":"%s"}}`, memberID)))
	assert.NoError(t, err, "unmatched events are dropped, not redelivered")
}

func TestProcessEvent_PaymentSucceeded(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	lineEnd := time.Now().UTC().Add(31 * 24 * time.Hour).Truncate(time.Second)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionActive, entities.CertificateActive, lineEnd).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("invoice.payment_succeeded", fmt.Sprintf(
		`{"subscription":"sub_1","period_end":%d,"lines":{"data":[{"period":{"end":%d}}]}}`,
		lineEnd.Add(-24*time.Hour).Unix(), lineEnd.Unix())))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_PaymentSucceeded_NoSubscriptionAcked(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	err := uc.ProcessEvent(context.Background(), event("invoice.payment_succeeded", `{"period_end":123}`))
	assert.NoError(t, err)
	memberRepo.AssertNotCalled(t, "UpdateSubscriptionState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEvent_PaymentFailed(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionPastDue, entities.CertificateExpired,
		mock.MatchedBy(func(expiry time.Time) bool {
			return expiry.Before(time.Now().UTC())
		})).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("invoice.payment_failed", `{"subscription":"sub_1"}`))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_SubscriptionUpdated_ReconcilesChildren(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	memberID := utils.GenerateUUIDv7()
	periodEnd := time.Now().UTC().Add(20 * 24 * time.Hour).Truncate(time.Second)
	paymentGateway.On("ChildPriceID").Return("price_child")
	memberRepo.On("GetByStripeSubscriptionID", mock.Anything, "sub_1").
		Return(&entities.Member{ID: memberID, Children: 1}, nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionActive, entities.CertificateActive, periodEnd).Return(nil)
	memberRepo.On("UpdateChildren", mock.Anything, memberID, 3).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.updated", fmt.Sprintf(
		`{"id":"sub_1","status":"active","current_period_end":%d,
		  "items":{"data":[
			{"quantity":1,"price":{"id":"price_base"}},
			{"quantity":3,"price":{"id":"price_child"}}]}}`, periodEnd.Unix())))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_SubscriptionUpdated_UnchangedChildrenNotRewritten(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	memberID := utils.GenerateUUIDv7()
	paymentGateway.On("ChildPriceID").Return("price_child")
	memberRepo.On("GetByStripeSubscriptionID", mock.Anything, "sub_1").
		Return(&entities.Member{ID: memberID, Children: 0}, nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionActive, entities.CertificateActive, mock.Anything).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.updated",
		`{"id":"sub_1","status":"active","current_period_end":1767225600,
		  "items":{"data":[{"quantity":1,"price":{"id":"price_base"}}]}}`))
	require.NoError(t, err)
	memberRepo.AssertNotCalled(t, "UpdateChildren", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEvent_SubscriptionUpdated_CanceledMirrorsPeriodEnd(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	periodEnd := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	memberRepo.On("GetByStripeSubscriptionID", mock.Anything, "sub_1").
		Return(&entities.Member{ID: utils.GenerateUUIDv7()}, nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionCanceled, entities.CertificateRevoked, periodEnd).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.updated", fmt.Sprintf(
		`{"id":"sub_1","status":"canceled","current_period_end":%d,"items":{"data":[]}}`,
		periodEnd.Unix())))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
	paymentGateway.AssertNotCalled(t, "ChildPriceID")
}

func TestProcessEvent_SubscriptionUpdated_PastDueMirrorsPeriodEnd(t *testing.T) {
	uc, memberRepo, paymentGateway, _ := newReconciler()

	periodEnd := time.Now().UTC().Add(15 * 24 * time.Hour).Truncate(time.Second)
	paymentGateway.On("ChildPriceID").Return("price_child")
	memberRepo.On("GetByStripeSubscriptionID", mock.Anything, "sub_1").
		Return(&entities.Member{ID: utils.GenerateUUIDv7(), Children: 2}, nil)
	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionPastDue, entities.CertificateExpired, periodEnd).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.updated", fmt.Sprintf(
		`{"id":"sub_1","status":"past_due","current_period_end":%d,
		  "items":{"data":[
			{"quantity":1,"price":{"id":"price_base"}},
			{"quantity":2,"price":{"id":"price_child"}}]}}`, periodEnd.Unix())))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_SubscriptionDeleted(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionCanceled, entities.CertificateRevoked,
		mock.MatchedBy(func(expiry time.Time) bool {
			return expiry.Before(time.Now().UTC())
		})).Return(nil)

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.deleted", `{"id":"sub_1"}`))
	require.NoError(t, err)
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_Redelivery_Idempotent(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	memberRepo.On("UpdateSubscriptionState", mock.Anything, "sub_1",
		entities.SubscriptionCanceled, entities.CertificateRevoked, mock.Anything).Return(nil).Twice()

	ev := event("customer.subscription.deleted", `{"id":"sub_1"}`)
	require.NoError(t, uc.ProcessEvent(context.Background(), ev))
	require.NoError(t, uc.ProcessEvent(context.Background(), ev))
	memberRepo.AssertExpectations(t)
}

func TestProcessEvent_UnknownTypeAcked(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	err := uc.ProcessEvent(context.Background(), event("customer.created", `{"id":"cus_1"}`))
	assert.NoError(t, err)
	memberRepo.AssertNotCalled(t, "UpdateSubscriptionState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEvent_StoreFailurePropagates(t *testing.T) {
	uc, memberRepo, _, _ := newReconciler()

	memberRepo.On("UpdateSubscriptionState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	err := uc.ProcessEvent(context.Background(), event("customer.subscription.deleted", `{"id":"sub_1"}`))
	assert.Error(t, err, "transient failures must surface so the gateway redelivers")
}

func TestProcessEvent_MalformedPayload(t *testing.T) {
	uc, _, _, _ := newReconciler()

	err := uc.ProcessEvent(context.Background(), event("invoice.payment_failed", `{"subscription":42}`))
	assert.Error(t, err)
}
