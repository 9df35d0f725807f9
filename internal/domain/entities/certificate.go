package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Monthly fees in whole dollars. The gateway's price objects are the billing
// source of truth; these drive the estimate shown at registration.
const (
	BaseMonthlyFee     int64 = 20
	PerChildMonthlyFee int64 = 5
)

// MonthlyPrice computes the recurring fee for a member with the given number
// of children. Total over all inputs; negative counts read as zero.
func MonthlyPrice(children int) int64 {
	if children < 0 {
		children = 0
	}
	return BaseMonthlyFee + PerChildMonthlyFee*int64(children)
}

// CertificateValid reports whether a certificate grants access right now.
// Requires active status and an expiry strictly in the future (UTC).
func CertificateValid(expiry null.Time, status CertificateStatus) bool {
	if status != CertificateActive {
		return false
	}
	if !expiry.Valid {
		return false
	}
	return expiry.Time.After(time.Now().UTC())
}

// CertificateStatusAtCheckout maps the gateway's subscription status to a
// certificate status at checkout completion. Payment may still be processing,
// so anything short of active/trialing stays pending.
func CertificateStatusAtCheckout(sub SubscriptionStatus) CertificateStatus {
	if sub == SubscriptionActive || sub == SubscriptionTrialing {
		return CertificateActive
	}
	return CertificatePendingPayment
}

// CertificateStatusForSubscription maps a reported subscription status to a
// certificate status for an established subscription.
func CertificateStatusForSubscription(sub SubscriptionStatus) CertificateStatus {
	switch sub {
	case SubscriptionActive, SubscriptionTrialing:
		return CertificateActive
	case SubscriptionCanceled:
		return CertificateRevoked
	default:
		return CertificateExpired
	}
}
