package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/auth"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/model"
)

type LoginService interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error)
	Logout(ctx context.Context, req auth.LogoutRequest) error
}

type SessionValidator interface {
	ValidateAndRefresh(ctx context.Context, tokenStr string) (*model.Session, error)
}

type TokenVerifier interface {
	Verify(tokenStr string) (string, error)
}

type AuthHandler struct {
	loginService LoginService
	validator    SessionValidator
	verifier     TokenVerifier
	recorder     middlewares.AuditRecorder
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Employee ID and password are required", "")
	}
	result, err := h.loginService.Login(ctx.UserContext(), auth.LoginRequest{
		EmpID:     req.EmpID,
		Password:  req.Password,
		IP:        ctx.IP(),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	})
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Employee ID and password are required", "")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return middlewares.JSONError(ctx, fiber.StatusUnauthorized, "Invalid credentials", "")
	case errors.Is(err, auth.ErrLoginLocked):
		return middlewares.JSONError(ctx, fiber.StatusTooManyRequests, "Too many failed login attempts, please try again later", "")
	case err != nil:
		slog.Error("Login failed", "ip", ctx.IP(), "error", err)
		return middlewares.JSONError(ctx, fiber.StatusInternalServerError, "Failed to create session", "")
	}
	return ctx.JSON(loginResponse{
		Employee:       result.Employee,
		SessionID:      result.Session.ID,
		Token:          result.Token,
		ExpiresAt:      result.ExpiresAt,
		LastActivityAt: result.Session.LastActivityAt,
	})
}

// PostLogout ends the caller's session. Any token that decodes is accepted, including expired ones.
func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	tokenStr := middlewares.BearerToken(ctx)
	if tokenStr == "" {
		return middlewares.JSONError(ctx, fiber.StatusUnauthorized, "Unauthorized", "")
	}
	if _, err := h.verifier.Verify(tokenStr); err != nil && !errors.Is(err, token.ErrTokenExpired) {
		return middlewares.JSONError(ctx, fiber.StatusUnauthorized, "Unauthorized", "")
	}

	var req logoutRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Invalid request body", "")
		}
	}
	err := h.loginService.Logout(ctx.UserContext(), auth.LogoutRequest{
		Token:     tokenStr,
		Reason:    req.Reason,
		IP:        ctx.IP(),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	})
	if errors.Is(err, auth.ErrInvalidReason) {
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Invalid logout reason", "")
	}
	if err != nil {
		return err
	}
	return ctx.JSON(successResponse{Success: true})
}

// GetValidate reports whether the caller's session is still valid and refreshes its activity.
func (h *AuthHandler) GetValidate(ctx *fiber.Ctx) error {
	session, err := h.validator.ValidateAndRefresh(ctx.UserContext(), middlewares.BearerToken(ctx))
	if errors.Is(err, sessions.ErrSessionInvalid) {
		slog.Info("Session validation failed", "ip", ctx.IP(), "cause", err)
		middlewares.AuditSessionEnd(ctx, h.recorder, session, err)
		return ctx.Status(fiber.StatusUnauthorized).JSON(validateResponse{Valid: false})
	}
	if err != nil {
		slog.Error("Session validation error", "ip", ctx.IP(), "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(validateResponse{Valid: false})
	}
	return ctx.JSON(validateResponse{Valid: true})
}

func NewAuthHandler(loginService LoginService, validator SessionValidator, verifier TokenVerifier, recorder middlewares.AuditRecorder) *AuthHandler {
	return &AuthHandler{
		loginService: loginService,
		validator:    validator,
		verifier:     verifier,
		recorder:     recorder,
	}
}
