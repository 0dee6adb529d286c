package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/dto"
	"github.com/petalworks/flowershop-backend/internal/service"
	"github.com/petalworks/flowershop-backend/pkg/response"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UserHandler handles account and auth HTTP requests
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.register")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("username", req.Username))

	user, err := h.userService.Register(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("user_id", user.UserID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, user)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.login")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("username", req.Username))

	auth, err := h.userService.Login(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, auth)
}

// Logout handles POST /auth/logout. Logging out an already dead session
// succeeds.
func (h *UserHandler) Logout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.logout")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	key := c.GetHeader(SessionKeyHeader)
	if err := h.userService.Logout(ctx, key); err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, gin.H{"logged_out": true})
}

// Me handles GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.me")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetInt64(ctxUserID)
	if userID == 0 {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	span.SetAttributes(attribute.Int64("user_id", userID))

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, user)
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		span.SetStatus(codes.Error, "invalid user id")
		response.BadRequest(c, "invalid user id")
		return
	}

	span.SetAttributes(attribute.Int64("user_id", id))

	// only admins may look up other accounts
	if id != c.GetInt64(ctxUserID) && !c.GetBool(ctxIsAdmin) {
		span.SetStatus(codes.Error, "forbidden")
		response.Forbidden(c, "cannot view another account")
		return
	}

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, user)
}
