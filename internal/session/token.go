package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/securepay/gateway/internal/errors"
)

const tokenIssuer = "securepay-gateway"

type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token carrying the active user identifier.
// This is the persisted client state: one identifier, nothing else.
func (s *Store) IssueToken(userID int64) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeInternalError, "failed to sign session token", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the active user id.
func (s *Store) ParseToken(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.New(apperrors.ErrCodeUnauthorized, "Invalid or expired session token", err)
	}
	return claims.UserID, nil
}
