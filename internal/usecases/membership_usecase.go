package usecases

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/domain/repositories"
	"member-care.backend/pkg/crypto"
	"member-care.backend/pkg/logger"
)

// MembershipUsecase handles changes to an existing membership
type MembershipUsecase struct {
	memberRepo repositories.MemberRepository
	gateway    PaymentGateway
	cipher     *crypto.Cipher
}

// NewMembershipUsecase creates a new membership usecase
func NewMembershipUsecase(
	memberRepo repositories.MemberRepository,
	gateway PaymentGateway,
	cipher *crypto.Cipher,
) *MembershipUsecase {
	return &MembershipUsecase{
		memberRepo: memberRepo,
		gateway:    gateway,
		cipher:     cipher,
	}
}

// UpdateChildren changes the dependent count. The gateway subscription is
// adjusted first; the local count only moves once billing reflects it, so a
// gateway failure leaves both sides unchanged.
func (u *MembershipUsecase) UpdateChildren(ctx context.Context, memberID uuid.UUID, children int) (*entities.Member, error) {
	member, err := u.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if !member.StripeSubscriptionID.Valid {
		return nil, domainerrors.ErrNoSubscription
	}

	if err := u.gateway.SetChildQuantity(ctx, member.StripeSubscriptionID.String, children); err != nil {
		logger.Error(ctx, "dependent quantity update failed",
			zap.String("member_id", memberID.String()),
			zap.Error(err))
		return nil, domainerrors.BadGateway("could not update subscription", err)
	}

	if err := u.memberRepo.UpdateChildren(ctx, memberID, children); err != nil {
		return nil, err
	}

	member.Children = children
	logger.Info(ctx, "dependent count updated",
		zap.String("member_id", memberID.String()),
		zap.Int("children", children))
	return member, nil
}

// MedicalAnswers decrypts the member's medical questionnaire
func (u *MembershipUsecase) MedicalAnswers(ctx context.Context, memberID uuid.UUID) (string, error) {
	member, err := u.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return "", err
	}

	if member.MedicalAnswersEncrypted == "" {
		return "", nil
	}

	plaintext, err := u.cipher.Decrypt(member.MedicalAnswersEncrypted)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
