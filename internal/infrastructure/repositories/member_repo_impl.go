package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/infrastructure/models"
)

// MemberRepository implements membership data operations
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a new member row. The unique email index is authoritative:
// a duplicate insert, including one racing a prior existence check, maps to
// ErrAlreadyExists.
func (r *MemberRepository) Create(ctx context.Context, member *entities.Member) error {
	now := time.Now().UTC()
	m := &models.Member{
		ID:                      member.ID,
		Name:                    member.Name,
		Email:                   member.Email,
		PasswordHash:            member.PasswordHash,
		Children:                member.Children,
		CertificateID:           member.CertificateID,
		CertificateStatus:       string(member.CertificateStatus),
		CertificateExpiryDate:   member.CertificateExpiryDate.Ptr(),
		MedicalAnswersEncrypted: member.MedicalAnswersEncrypted,
		StripeCustomerID:        member.StripeCustomerID.Ptr(),
		StripeSubscriptionID:    member.StripeSubscriptionID.Ptr(),
		SubscriptionStatus:      string(member.SubscriptionStatus),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}

	member.CreatedAt = m.CreatedAt
	member.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Member, error) {
	var m models.Member
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// GetByEmail gets a member by email
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*entities.Member, error) {
	var m models.Member
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// GetByStripeSubscriptionID gets a member by the gateway subscription reference
func (r *MemberRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*entities.Member, error) {
	var m models.Member
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("stripe_subscription_id = ?", subscriptionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// UpdateChildren sets the dependent count
func (r *MemberRepository) UpdateChildren(ctx context.Context, id uuid.UUID, children int) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Updates(map[string]interface{}{
		"children":   children,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetStripeReferences binds gateway references to a member. The guard on the
// existing subscription id makes replays of the same checkout event no-ops
// while refusing to rebind a member to a different subscription.
func (r *MemberRepository) SetStripeReferences(ctx context.Context, id uuid.UUID, customerID, subscriptionID string, status entities.SubscriptionStatus) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Member{}).
		Where("id = ? AND (stripe_subscription_id IS NULL OR stripe_subscription_id = ?)", id, subscriptionID).
		Updates(map[string]interface{}{
			"stripe_customer_id":     customerID,
			"stripe_subscription_id": subscriptionID,
			"subscription_status":    string(status),
			"updated_at":             time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateSubscriptionState applies a reconciled state triple by subscription reference
func (r *MemberRepository) UpdateSubscriptionState(ctx context.Context, subscriptionID string, sub entities.SubscriptionStatus, cert entities.CertificateStatus, expiry time.Time) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Member{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"subscription_status":     string(sub),
			"certificate_status":      string(cert),
			"certificate_expiry_date": expiry.UTC(),
			"updated_at":              time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toEntity(m *models.Member) *entities.Member {
	return &entities.Member{
		ID:                      m.ID,
		Name:                    m.Name,
		Email:                   m.Email,
		PasswordHash:            m.PasswordHash,
		Children:                m.Children,
		CertificateID:           m.CertificateID,
		CertificateStatus:       entities.CertificateStatus(m.CertificateStatus),
		CertificateExpiryDate:   null.TimeFromPtr(m.CertificateExpiryDate),
		MedicalAnswersEncrypted: m.MedicalAnswersEncrypted,
		StripeCustomerID:        null.StringFromPtr(m.StripeCustomerID),
		StripeSubscriptionID:    null.StringFromPtr(m.StripeSubscriptionID),
		SubscriptionStatus:      entities.SubscriptionStatus(m.SubscriptionStatus),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	// sqlite driver used in tests reports constraint failures by message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
