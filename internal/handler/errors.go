package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/response"
)

// handleError converts domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.NotFound(c, "product not found")
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, domain.ErrInsufficientStock):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), "")
	case errors.Is(err, domain.ErrDuplicateUser):
		response.Error(c, http.StatusConflict, "USER_EXISTS", "username or email already taken", "")
	case errors.Is(err, domain.ErrAuthFailed):
		response.Error(c, http.StatusUnauthorized, "AUTH_FAILED", "invalid username or password", "")
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		response.Unauthorized(c, "invalid session key")
	case errors.Is(err, domain.ErrInvalidFilter):
		response.Error(c, http.StatusBadRequest, "INVALID_FILTER", err.Error(), "")
	case errors.Is(err, domain.ErrInvalidAction):
		response.Error(c, http.StatusBadRequest, "INVALID_ACTION", err.Error(), "")
	case errors.Is(err, domain.ErrInvalidQuantity):
		response.Error(c, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), "")
	case errors.Is(err, domain.ErrInvalidProductID):
		response.BadRequest(c, "invalid product id")
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, database.ErrPoolExhausted):
		response.Error(c, http.StatusServiceUnavailable, "POOL_EXHAUSTED", "server is at capacity, retry shortly", "")
	default:
		response.InternalError(c, err)
	}
}
