package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "member-care.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. AppErrors carry their own status; bare
// sentinel errors get mapped here so usecases can return them directly.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = fromSentinel(err)
	}

	c.JSON(appErr.Status, gin.H{
		"message": appErr.Message,
		"error":   appErr.Message, // Backward compatibility
	})
}

func fromSentinel(err error) *domainerrors.AppError {
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound("resource not found")
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.Conflict("resource already exists")
	case errors.Is(err, domainerrors.ErrInvalidInput):
		return domainerrors.BadRequest("invalid input")
	case errors.Is(err, domainerrors.ErrInvalidCredentials):
		return domainerrors.NewAppError(http.StatusUnauthorized, "invalid email or password", err)
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized("unauthorized")
	case errors.Is(err, domainerrors.ErrForbidden):
		return domainerrors.Forbidden("forbidden")
	case errors.Is(err, domainerrors.ErrNoSubscription):
		return domainerrors.NewAppError(http.StatusConflict, "no subscription on record", err)
	case errors.Is(err, domainerrors.ErrGatewayFailure):
		return domainerrors.BadGateway("payment gateway unavailable", err)
	default:
		return domainerrors.InternalError(err)
	}
}
