package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func JSONError(ctx *fiber.Ctx, status int, message string, code string) error {
	return ctx.Status(status).JSON(ErrorResponse{Message: message, Code: code})
}

// ErrorHandler turns errors escaping handlers into generic JSON responses. Internal details are logged, never returned.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	switch code {
	case fiber.StatusBadRequest:
		return JSONError(ctx, code, "Bad request", "")
	case fiber.StatusUnauthorized:
		return JSONError(ctx, code, "Unauthorized", "")
	case fiber.StatusForbidden:
		return JSONError(ctx, code, "Forbidden", "")
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return JSONError(ctx, code, "Not found", "")
	case fiber.StatusRequestEntityTooLarge:
		return JSONError(ctx, code, "Request too large", "")
	case fiber.StatusTooManyRequests:
		return JSONError(ctx, code, "Too many requests", "")
	default:
		slog.Error("Unhandled error", "method", ctx.Method(), "path", ctx.Path(), "code", code, "error", err)
		return JSONError(ctx, fiber.StatusInternalServerError, "Internal server error", "")
	}
}
