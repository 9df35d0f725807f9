package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"member-care.backend/internal/domain/entities"
	domainerrors "member-care.backend/internal/domain/errors"
	"member-care.backend/internal/interfaces/http/response"
)

// Registrar is the slice of registration behavior the auth endpoints need
type Registrar interface {
	Register(ctx context.Context, input *entities.RegisterInput) (*entities.RegisterResponse, error)
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	GetMember(ctx context.Context, id uuid.UUID) (*entities.Member, error)
}

// AuthHandler handles registration and login endpoints
type AuthHandler struct {
	registrar Registrar
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(registrar Registrar) *AuthHandler {
	return &AuthHandler{registrar: registrar}
}

// Register handles member registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	resp, err := h.registrar.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// Login handles member login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	authResponse, err := h.registrar.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, authResponse)
}
