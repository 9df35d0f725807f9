package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/interfaces/http/middleware"
	"member-care.backend/internal/interfaces/http/response"
)

// CertificateProvider is the slice of certificate behavior the endpoints need
type CertificateProvider interface {
	GetInfo(ctx context.Context, memberID uuid.UUID) (*entities.CertificateInfo, error)
	DownloadPDF(ctx context.Context, memberID uuid.UUID) ([]byte, error)
}

// CertificateHandler serves the member's urgent-care certificate
type CertificateHandler struct {
	certificates CertificateProvider
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates CertificateProvider) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// GetCertificate returns the certificate state
// GET /api/v1/members/me/certificate
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	info, err := h.certificates.GetInfo(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, info)
}

// DownloadCertificate streams the certificate as a PDF
// GET /api/v1/members/me/certificate/download
func (h *CertificateHandler) DownloadCertificate(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	pdf, err := h.certificates.DownloadPDF(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.pdf", memberID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
