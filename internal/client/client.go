package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/model"
)

const defaultTimeout = 10 * time.Second

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrUnauthorized       = errors.New("unauthorized")
)

// APIError is a non-success response that maps to no sentinel error.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type loginBody struct {
	Employee       *model.Employee `json:"employee"`
	SessionID      string          `json:"sessionId"`
	Token          string          `json:"token"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client talks to the session endpoints of the REST API.
type Client struct {
	baseURL string
	timeout time.Duration
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) send(ctx context.Context, agent *fiber.Agent, bearer string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < timeout {
			timeout = remain
		}
	}
	agent.Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if bearer != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Join(errs...)
	}
	return status, body, nil
}

func apiError(status int, body []byte) *APIError {
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(body))
	}
	return &APIError{Status: status, Message: payload.Message, Code: payload.Code}
}

// Login exchanges employee credentials for a session envelope.
func (c *Client) Login(ctx context.Context, empID, password string) (*Envelope, error) {
	agent := fiber.Post(c.url("/api/auth/login")).JSON(map[string]string{
		"emp_id":   empID,
		"password": password,
	})
	status, body, err := c.send(ctx, agent, "")
	if err != nil {
		return nil, err
	}
	switch status {
	case fiber.StatusOK:
	case fiber.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case fiber.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	default:
		return nil, apiError(status, body)
	}

	var res loginBody
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &Envelope{
		Employee:       res.Employee,
		SessionID:      res.SessionID,
		Token:          res.Token,
		ExpiresAt:      res.ExpiresAt,
		LastActivityAt: res.LastActivityAt,
	}, nil
}

// Logout ends the session bound to token. An empty reason lets the server default to manual.
func (c *Client) Logout(ctx context.Context, token string, reason model.LogoutReason) error {
	agent := fiber.Post(c.url("/api/auth/logout"))
	if reason != "" {
		agent.JSON(map[string]string{"reason": string(reason)})
	}
	status, body, err := c.send(ctx, agent, token)
	if err != nil {
		return err
	}
	switch status {
	case fiber.StatusOK:
		return nil
	case fiber.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return apiError(status, body)
	}
}

// Validate asks the server whether the session behind token is still valid, refreshing its activity.
func (c *Client) Validate(ctx context.Context, token string) (bool, error) {
	status, body, err := c.send(ctx, fiber.Get(c.url("/api/auth/validate")), token)
	if err != nil {
		return false, err
	}
	switch status {
	case fiber.StatusOK:
		return true, nil
	case fiber.StatusUnauthorized:
		return false, nil
	default:
		return false, apiError(status, body)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
