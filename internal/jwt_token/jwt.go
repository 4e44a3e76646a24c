package jwt_token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aibetix/internal/platform/middleware"
	domainerrors "aibetix/pkg/domain-errors"
)

// Claims are the registered claims plus the fields this service relies on.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// Validator validates HS256 bearer tokens.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// Validate parses and verifies a token, returning the identity claims.
func (v *Validator) Validate(_ context.Context, tokenString string) (middleware.Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return middleware.Claims{}, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "token verification failed")
	}
	if !token.Valid {
		return middleware.Claims{}, domainerrors.New(domainerrors.CodeUnauthorized, "token is not valid")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return middleware.Claims{}, domainerrors.New(domainerrors.CodeUnauthorized, "token missing user identity")
	}

	return middleware.Claims{UserID: userID, Role: claims.Role}, nil
}

// Issue mints a signed token. Used by the tokengen command and tests.
func (v *Validator) Issue(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "signing token")
	}
	return signed, nil
}
