package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, setup func(app *fiber.App)) *Client {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setup(app)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })
	return NewClient("http://"+ln.Addr().String()+"/", WithTimeout(2*time.Second))
}

func TestClientLogin(t *testing.T) {
	expiresAt := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	c := startServer(t, func(app *fiber.App) {
		app.Post("/api/auth/login", func(ctx *fiber.Ctx) error {
			var req map[string]string
			if err := ctx.BodyParser(&req); err != nil {
				return err
			}
			switch req["password"] {
			case "secret":
				return ctx.JSON(fiber.Map{
					"employee":       fiber.Map{"id": "1", "emp_id": req["emp_id"]},
					"sessionId":      "s1",
					"token":          "tok",
					"expiresAt":      expiresAt,
					"lastActivityAt": expiresAt.Add(-8 * time.Hour),
				})
			case "busy":
				return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "slow down"})
			case "boom":
				return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create session"})
			}
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		})
	})
	ctx := context.Background()

	env, err := c.Login(ctx, "EMP001", "secret")
	require.NoError(t, err)
	assert.Equal(t, "s1", env.SessionID)
	assert.Equal(t, "tok", env.Token)
	assert.Equal(t, "EMP001", env.Employee.EmpID)
	assert.True(t, env.ExpiresAt.Equal(expiresAt))

	_, err = c.Login(ctx, "EMP001", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.Login(ctx, "EMP001", "busy")
	assert.ErrorIs(t, err, ErrTooManyRequests)

	_, err = c.Login(ctx, "EMP001", "boom")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to create session", apiErr.Message)
}

func TestClientValidateAndLogout(t *testing.T) {
	var gotReason string
	c := startServer(t, func(app *fiber.App) {
		app.Get("/api/auth/validate", func(ctx *fiber.Ctx) error {
			if ctx.Get(fiber.HeaderAuthorization) != "Bearer good" {
				return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"valid": false})
			}
			return ctx.JSON(fiber.Map{"valid": true})
		})
		app.Post("/api/auth/logout", func(ctx *fiber.Ctx) error {
			if ctx.Get(fiber.HeaderAuthorization) == "" {
				return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
			}
			var req map[string]string
			if len(ctx.Body()) > 0 {
				if err := ctx.BodyParser(&req); err != nil {
					return err
				}
			}
			gotReason = req["reason"]
			return ctx.JSON(fiber.Map{"success": true})
		})
	})
	ctx := context.Background()

	valid, err := c.Validate(ctx, "good")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.Validate(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, c.Logout(ctx, "good", model.LogoutTimeout))
	assert.Equal(t, "timeout", gotReason)

	require.NoError(t, c.Logout(ctx, "good", ""))
	assert.Equal(t, "", gotReason)

	assert.ErrorIs(t, c.Logout(ctx, "", ""), ErrUnauthorized)
}

func TestClientHonoursCancelledContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Validate(ctx, "tok")
	assert.ErrorIs(t, err, context.Canceled)
}
