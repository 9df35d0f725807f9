package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SubscriptionStatus mirrors the gateway's subscription lifecycle states
type SubscriptionStatus string

const (
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
)

// CertificateStatus represents the state of the urgent-care certificate
type CertificateStatus string

const (
	CertificatePendingPayment CertificateStatus = "pending_payment"
	CertificateActive         CertificateStatus = "active"
	CertificateExpired        CertificateStatus = "expired"
	CertificateRevoked        CertificateStatus = "revoked"
)

// Member represents a registered member with one membership record
type Member struct {
	ID                      uuid.UUID          `json:"id"`
	Name                    string             `json:"name"`
	Email                   string             `json:"email"`
	PasswordHash            string             `json:"-"`
	Children                int                `json:"children"`
	CertificateID           uuid.UUID          `json:"certificateId"`
	CertificateStatus       CertificateStatus  `json:"certificateStatus"`
	CertificateExpiryDate   null.Time          `json:"certificateExpiryDate,omitempty"`
	MedicalAnswersEncrypted string             `json:"-"`
	StripeCustomerID        null.String        `json:"-"`
	StripeSubscriptionID    null.String        `json:"-"`
	SubscriptionStatus      SubscriptionStatus `json:"subscriptionStatus"`
	CreatedAt               time.Time          `json:"createdAt"`
	UpdatedAt               time.Time          `json:"updatedAt"`
	DeletedAt               null.Time          `json:"-"`
}

// RegisterInput represents input for member registration
type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Children int    `json:"children" binding:"min=0"`

	// Medical questionnaire, optional free text
	ChronicConditions  string `json:"chronicConditions"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"currentMedications"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	MemberID      uuid.UUID `json:"memberId"`
	CertificateID uuid.UUID `json:"certificateId"`
	CheckoutURL   string    `json:"checkoutUrl"`
	MonthlyPrice  int64     `json:"monthlyPrice"`
}

// LoginInput represents input for member login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	Member       *Member `json:"member"`
}

// UpdateChildrenInput represents input for changing the dependent count.
// Pointer so zero binds as a present value.
type UpdateChildrenInput struct {
	Children *int `json:"children" binding:"required,min=0"`
}

// CertificateInfo is the certificate view returned to members
type CertificateInfo struct {
	CertificateID uuid.UUID         `json:"certificateId"`
	Name          string            `json:"name"`
	Status        CertificateStatus `json:"status"`
	ExpiryDate    null.Time         `json:"expiryDate,omitempty"`
	Valid         bool              `json:"valid"`
}
