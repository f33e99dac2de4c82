// Package links signs and verifies unauthenticated download links. A link
// is an HS256 JWT whose subject is a nonce value; the nonce itself is kept
// in the store, so a valid signature alone grants nothing.
package links

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims of a download link. ProjectID is informational; the store's nonce
// record is authoritative.
type Claims struct {
	jwt.RegisteredClaims
	ProjectID int64 `json:"pid,omitempty"`
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer using secret. now may be nil for time.Now.
func NewSigner(secret []byte, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: secret, now: now}
}

// Sign issues a token for nonce that stops verifying after validFor.
func (s *Signer) Sign(nonce string, projectID int64, validFor time.Duration) (string, error) {
	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   nonce,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(validFor)),
		},
		ProjectID: projectID,
	})

	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// nonce it carries. Any failure is reported as common.ErrInvalidToken.
func (s *Signer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: link expired", common.ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
