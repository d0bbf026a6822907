// Package token issues and validates the JWT bearer tokens that carry a
// caller's on-ledger address. The address claim is the acting identity for
// every owner-gated vault operation.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Claims are the JWT claims for caller tokens.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateCallerToken signs a token binding the bearer to an address.
func (s *Service) GenerateCallerToken(addr domain.Address, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a caller token, returning the bound
// address.
func (s *Service) ValidateToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	addr, err := domain.ParseAddress(claims.Address)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token address claim is invalid")
	}
	return addr, nil
}
