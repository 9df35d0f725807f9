package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/interfaces/http/middleware"
	"member-care.backend/internal/interfaces/http/response"
)

// MembershipManager is the slice of membership behavior the member
// endpoints need
type MembershipManager interface {
	UpdateChildren(ctx context.Context, memberID uuid.UUID, children int) (*entities.Member, error)
	MedicalAnswers(ctx context.Context, memberID uuid.UUID) (string, error)
}

// MemberHandler handles the authenticated member endpoints
type MemberHandler struct {
	registrar  Registrar
	membership MembershipManager
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(registrar Registrar, membership MembershipManager) *MemberHandler {
	return &MemberHandler{
		registrar:  registrar,
		membership: membership,
	}
}

// GetMe returns the authenticated member's record
// GET /api/v1/members/me
func (h *MemberHandler) GetMe(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	member, err := h.registrar.GetMember(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"member":       member,
		"monthlyPrice": entities.MonthlyPrice(member.Children),
	})
}

// UpdateChildren changes the number of covered dependents
// PUT /api/v1/members/me/children
func (h *MemberHandler) UpdateChildren(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	var input entities.UpdateChildrenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	member, err := h.membership.UpdateChildren(c.Request.Context(), memberID, *input.Children)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"children":     member.Children,
		"monthlyPrice": entities.MonthlyPrice(member.Children),
	})
}

// GetMedical returns the decrypted medical questionnaire
// GET /api/v1/members/me/medical
func (h *MemberHandler) GetMedical(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	answers, err := h.membership.MedicalAnswers(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"medicalAnswers": answers,
	})
}
