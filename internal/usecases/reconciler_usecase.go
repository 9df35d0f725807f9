package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/domain/repositories"
	"member-care.backend/pkg/logger"
	"member-care.backend/pkg/metrics"
)

// Failed and ended subscriptions get an expiry shortly in the past instead
// of exactly now, so clock skew between hosts cannot briefly revive access.
const expiryBackdate = 24 * time.Hour

// WebhookEvent is a parsed gateway event envelope
type WebhookEvent struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

// ReconcilerUsecase folds gateway lifecycle events into the member store.
// Events are processed independently and idempotently; each handler writes
// the full (subscription, certificate, expiry) state for its event type, so
// redeliveries and most reorderings converge on the same record.
type ReconcilerUsecase struct {
	memberRepo repositories.MemberRepository
	gateway    PaymentGateway
	uow        repositories.UnitOfWork
}

// NewReconcilerUsecase creates a new reconciler usecase
func NewReconcilerUsecase(
	memberRepo repositories.MemberRepository,
	gateway PaymentGateway,
	uow repositories.UnitOfWork,
) *ReconcilerUsecase {
	return &ReconcilerUsecase{
		memberRepo: memberRepo,
		gateway:    gateway,
		uow:        uow,
	}
}

// ProcessEvent dispatches one verified gateway event. A nil return means the
// event is settled and must be acknowledged; an error means processing failed
// transiently and the gateway should redeliver. Events that reference no
// known member are logged and acknowledged so the gateway stops retrying
// what can never match.
func (u *ReconcilerUsecase) ProcessEvent(ctx context.Context, event *WebhookEvent) error {
	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = u.handleCheckoutCompleted(ctx, event.Object)
	case "invoice.payment_succeeded":
		err = u.handlePaymentSucceeded(ctx, event.Object)
	case "invoice.payment_failed":
		err = u.handlePaymentFailed(ctx, event.Object)
	case "customer.subscription.updated":
		err = u.handleSubscriptionUpdated(ctx, event.Object)
	case "customer.subscription.deleted":
		err = u.handleSubscriptionDeleted(ctx, event.Object)
	default:
		logger.Debug(ctx, "ignoring webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type))
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	switch {
	case err == nil:
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "processed").Inc()
	case errors.Is(err, domainerrors.ErrNotFound):
		// Nothing for this event to match; redelivery cannot help
		logger.Warn(ctx, "webhook event matched no member, dropping",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type))
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "dropped").Inc()
		return nil
	default:
		logger.Error(ctx, "webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return err
	}
	return nil
}

// handleCheckoutCompleted binds the gateway customer and subscription to the
// member whose ID was embedded in the session metadata, then applies the
// subscription's current state. Sessions without the member reference are
// dropped; guessing by email would let a stale session claim a reused
// address.
func (u *ReconcilerUsecase) handleCheckoutCompleted(ctx context.Context, object json.RawMessage) error {
	var session struct {
		Customer     string `json:"customer"`
		Subscription string `json:"subscription"`
		Metadata     struct {
			AppUserID string `json:"app_user_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(object, &session); err != nil {
		return err
	}

	if session.Metadata.AppUserID == "" || session.Subscription == "" {
		logger.Warn(ctx, "checkout session missing member reference or subscription, dropping")
		return domainerrors.ErrNotFound
	}
	memberID, err := uuid.Parse(session.Metadata.AppUserID)
	if err != nil {
		logger.Warn(ctx, "checkout session carries malformed member reference, dropping",
			zap.String("app_user_id", session.Metadata.AppUserID))
		return domainerrors.ErrNotFound
	}

	// Checkout completion does not say whether the first invoice settled;
	// ask the gateway for the subscription's actual state.
	sub, err := u.gateway.GetSubscription(ctx, session.Subscription)
	if err != nil {
		return err
	}

	subStatus := entities.SubscriptionStatus(sub.Status)
	certStatus := entities.CertificateStatusAtCheckout(subStatus)
	expiry := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	return u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.memberRepo.SetStripeReferences(txCtx, memberID, session.Customer, session.Subscription, subStatus); err != nil {
			return err
		}
		return u.memberRepo.UpdateSubscriptionState(txCtx, session.Subscription, subStatus, certStatus, expiry)
	})
}

// handlePaymentSucceeded extends access to the end of the paid period
func (u *ReconcilerUsecase) handlePaymentSucceeded(ctx context.Context, object json.RawMessage) error {
	var invoice struct {
		Subscription string `json:"subscription"`
		PeriodEnd    int64  `json:"period_end"`
		Lines        struct {
			Data []struct {
				Period struct {
					End int64 `json:"end"`
				} `json:"period"`
			} `json:"data"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(object, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == "" {
		// One-off invoices carry no subscription
		return domainerrors.ErrNotFound
	}

	// The billed service period lives on the invoice lines; the top-level
	// period_end is only the billing window and serves as a fallback.
	periodEnd := invoice.PeriodEnd
	for _, line := range invoice.Lines.Data {
		if line.Period.End > periodEnd {
			periodEnd = line.Period.End
		}
	}
	expiry := time.Unix(periodEnd, 0).UTC()

	return u.uow.Do(ctx, func(txCtx context.Context) error {
		return u.memberRepo.UpdateSubscriptionState(txCtx, invoice.Subscription,
			entities.SubscriptionActive, entities.CertificateActive, expiry)
	})
}

// handlePaymentFailed cuts access immediately rather than letting the
// certificate ride out the previously paid period
func (u *ReconcilerUsecase) handlePaymentFailed(ctx context.Context, object json.RawMessage) error {
	var invoice struct {
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(object, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == "" {
		return domainerrors.ErrNotFound
	}

	expiry := time.Now().UTC().Add(-expiryBackdate)
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		return u.memberRepo.UpdateSubscriptionState(txCtx, invoice.Subscription,
			entities.SubscriptionPastDue, entities.CertificateExpired, expiry)
	})
}

// handleSubscriptionUpdated mirrors the gateway's reported status and
// reconciles the stored dependent count from the child line item, covering
// changes made outside this API (gateway dashboard, customer portal).
func (u *ReconcilerUsecase) handleSubscriptionUpdated(ctx context.Context, object json.RawMessage) error {
	var sub struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
		Items            struct {
			Data []struct {
				Quantity int64 `json:"quantity"`
				Price    struct {
					ID string `json:"id"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(object, &sub); err != nil {
		return err
	}
	if sub.ID == "" {
		return domainerrors.ErrNotFound
	}

	subStatus := entities.SubscriptionStatus(sub.Status)
	certStatus := entities.CertificateStatusForSubscription(subStatus)
	// The billing-period end is mirrored as-is for every reported status.
	// Payment-failed and deleted events are where access gets cut; an
	// update to past_due or canceled keeps whatever period end the gateway
	// reports so the two writes converge regardless of delivery order.
	expiry := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	children := 0
	if len(sub.Items.Data) > 0 {
		childPriceID := u.gateway.ChildPriceID()
		for _, item := range sub.Items.Data {
			if item.Price.ID == childPriceID {
				children = int(item.Quantity)
			}
		}
	}

	return u.uow.Do(ctx, func(txCtx context.Context) error {
		member, err := u.memberRepo.GetByStripeSubscriptionID(txCtx, sub.ID)
		if err != nil {
			return err
		}
		if err := u.memberRepo.UpdateSubscriptionState(txCtx, sub.ID, subStatus, certStatus, expiry); err != nil {
			return err
		}
		if member.Children != children {
			return u.memberRepo.UpdateChildren(txCtx, member.ID, children)
		}
		return nil
	})
}

// handleSubscriptionDeleted revokes the certificate
func (u *ReconcilerUsecase) handleSubscriptionDeleted(ctx context.Context, object json.RawMessage) error {
	var sub struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(object, &sub); err != nil {
		return err
	}
	if sub.ID == "" {
		return domainerrors.ErrNotFound
	}

	expiry := time.Now().UTC().Add(-expiryBackdate)
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		return u.memberRepo.UpdateSubscriptionState(txCtx, sub.ID,
			entities.SubscriptionCanceled, entities.CertificateRevoked, expiry)
	})
}
