// Package token issues and verifies the signed bearer credential handed out at login.
// Verification is purely cryptographic: revocation is tracked by the session store.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khanghh/klms/params"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	EmployeeID string `json:"employee_id"`
	jwt.RegisteredClaims
}

// Token is a freshly issued bearer credential.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Issuer struct {
	secret []byte
	now    func() time.Time
}

// Issue signs a token for employeeID valid for params.SessionLifetime.
func (i *Issuer) Issue(employeeID string) (*Token, error) {
	if employeeID == "" {
		return nil, errors.New("empty employee id")
	}
	now := i.now().Truncate(time.Second)
	expiresAt := now.Add(params.SessionLifetime)
	claims := Claims{
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    params.TokenIssuer,
			Subject:   employeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{Value: signed, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Verify returns the employee id bound to tokenStr. It returns ErrTokenExpired when the
// signature is valid but the token is past its expiry, and ErrInvalidToken otherwise.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(params.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims.EmployeeID, ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.EmployeeID == "" {
		return "", ErrInvalidToken
	}
	return claims.EmployeeID, nil
}

// NewIssuer returns an Issuer signing with secret. A nil now defaults to time.Now.
func NewIssuer(secret string, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		now:    now,
	}
}
