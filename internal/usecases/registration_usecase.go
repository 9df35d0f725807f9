package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/domain/repositories"
	"member-care.backend/pkg/crypto"
	"member-care.backend/pkg/jwt"
	"member-care.backend/pkg/logger"
	"member-care.backend/pkg/metrics"
	"member-care.backend/pkg/utils"
)

// Certificates start with a provisional expiry until the first invoice
// settles and the webhook reconciler writes the real period end.
const provisionalCertificateTerm = 30 * 24 * time.Hour

// RegistrationUsecase handles member signup and authentication
type RegistrationUsecase struct {
	memberRepo repositories.MemberRepository
	gateway    PaymentGateway
	cipher     *crypto.Cipher
	jwtService *jwt.JWTService
}

// NewRegistrationUsecase creates a new registration usecase
func NewRegistrationUsecase(
	memberRepo repositories.MemberRepository,
	gateway PaymentGateway,
	cipher *crypto.Cipher,
	jwtService *jwt.JWTService,
) *RegistrationUsecase {
	return &RegistrationUsecase{
		memberRepo: memberRepo,
		gateway:    gateway,
		cipher:     cipher,
		jwtService: jwtService,
	}
}

// Register creates a member record together with a hosted checkout session.
// The checkout session is created first so a gateway failure leaves no
// half-registered member behind; the member ID rides along as metadata and
// comes back on the checkout completion event.
func (u *RegistrationUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.RegisterResponse, error) {
	// Cheap precheck; the unique constraint stays authoritative under races
	_, err := u.memberRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domainerrors.Conflict("email already registered")
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	medicalPlaintext := fmt.Sprintf(
		"Chronic Conditions: %s\nAllergies: %s\nCurrent Medications: %s",
		input.ChronicConditions, input.Allergies, input.CurrentMedications,
	)
	medicalEncrypted, err := u.cipher.Encrypt([]byte(medicalPlaintext))
	if err != nil {
		return nil, err
	}

	memberID := utils.GenerateUUIDv7()
	certificateID := utils.GenerateUUIDv7()

	session, err := u.gateway.CreateCheckoutSession(ctx, input.Email, input.Children, memberID.String())
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("gateway_error").Inc()
		logger.Error(ctx, "checkout session creation failed", zap.Error(err))
		return nil, domainerrors.BadGateway("could not start checkout", err)
	}

	now := time.Now().UTC()
	member := &entities.Member{
		ID:                      memberID,
		Name:                    input.Name,
		Email:                   input.Email,
		PasswordHash:            passwordHash,
		Children:                input.Children,
		CertificateID:           certificateID,
		CertificateStatus:       entities.CertificatePendingPayment,
		CertificateExpiryDate:   null.TimeFrom(now.Add(provisionalCertificateTerm)),
		MedicalAnswersEncrypted: medicalEncrypted,
		SubscriptionStatus:      entities.SubscriptionIncomplete,
	}

	if err := u.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domainerrors.Conflict("email already registered")
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	logger.Info(ctx, "member registered",
		zap.String("member_id", memberID.String()),
		zap.Int("children", input.Children))

	return &entities.RegisterResponse{
		MemberID:      memberID,
		CertificateID: certificateID,
		CheckoutURL:   session.URL,
		MonthlyPrice:  entities.MonthlyPrice(input.Children),
	}, nil
}

// Login authenticates a member and returns tokens
func (u *RegistrationUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	member, err := u.memberRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, member.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	tokenPair, err := u.jwtService.GenerateTokenPair(member.ID, member.Email)
	if err != nil {
		return nil, err
	}

	return &entities.AuthResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		Member:       member,
	}, nil
}

// GetMember gets a member by ID
func (u *RegistrationUsecase) GetMember(ctx context.Context, id uuid.UUID) (*entities.Member, error) {
	return u.memberRepo.GetByID(ctx, id)
}
