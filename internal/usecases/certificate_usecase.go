package usecases

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/domain/repositories"
)

// CertificateUsecase serves the urgent-care certificate views
type CertificateUsecase struct {
	memberRepo repositories.MemberRepository
}

// NewCertificateUsecase creates a new certificate usecase
func NewCertificateUsecase(memberRepo repositories.MemberRepository) *CertificateUsecase {
	return &CertificateUsecase{memberRepo: memberRepo}
}

// GetInfo returns the member's certificate state, including whether it
// currently grants access.
func (u *CertificateUsecase) GetInfo(ctx context.Context, memberID uuid.UUID) (*entities.CertificateInfo, error) {
	member, err := u.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &entities.CertificateInfo{
		CertificateID: member.CertificateID,
		Name:          member.Name,
		Status:        member.CertificateStatus,
		ExpiryDate:    member.CertificateExpiryDate,
		Valid:         entities.CertificateValid(member.CertificateExpiryDate, member.CertificateStatus),
	}, nil
}

// DownloadPDF renders the certificate as a PDF. Only currently valid
// certificates can be downloaded.
func (u *CertificateUsecase) DownloadPDF(ctx context.Context, memberID uuid.UUID) ([]byte, error) {
	member, err := u.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if !entities.CertificateValid(member.CertificateExpiryDate, member.CertificateStatus) {
		return nil, domainerrors.Forbidden("certificate is not currently valid")
	}

	return renderCertificatePDF(member)
}

func renderCertificatePDF(member *entities.Member) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, "Urgent Care Membership Certificate", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	rows := [][2]string{
		{"Member", member.Name},
		{"Certificate ID", member.CertificateID.String()},
		{"Status", strings.ToUpper(string(member.CertificateStatus))},
		{"Covered dependents", fmt.Sprintf("%d", member.Children)},
		{"Valid until", member.CertificateExpiryDate.Time.UTC().Format("January 2, 2006")},
		{"Issued", time.Now().UTC().Format("January 2, 2006")},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(55, 9, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 9, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This certificate confirms an active membership and is only valid together with a government-issued photo ID. Validity can be confirmed against the certificate ID above.", "", "L", false)

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
