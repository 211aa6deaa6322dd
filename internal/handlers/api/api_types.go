package api

import (
	"time"

	"github.com/khanghh/klms/model"
)

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type loginRequest struct {
	EmpID    string `json:"emp_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Employee       *model.Employee `json:"employee"`
	SessionID      string          `json:"sessionId"`
	Token          string          `json:"token"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

type logoutRequest struct {
	Reason model.LogoutReason `json:"reason"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

type createEmployeeRequest struct {
	EmpID      string     `json:"emp_id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Department string     `json:"department"`
	Role       model.Role `json:"role"`
	Password   string     `json:"password"`
}

type sessionView struct {
	*model.Session
	State string `json:"state"`
}
