package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	authmw "felicity/pkg/platform/middleware/auth"
)

// Claims represents the JWT claims for session tokens. Subject is the
// identity ID; email and role ride along so the auth middleware can attach a
// full identity context without a store lookup.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// TTL returns the configured token lifetime (also the cookie max age).
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GenerateToken signs a token for the given identity. A missing signing key
// is a configuration fault, not an auth failure: it must never silently
// produce a forgeable token.
func (s *Service) GenerateToken(identityID id.IdentityID, email string, role id.Role, now time.Time) (string, error) {
	if len(s.signingKey) == 0 {
		return "", dErrors.New(dErrors.CodeConfig, "token signing key is not configured")
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token string, implementing the auth
// middleware's validator contract.
func (s *Service) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &authmw.Claims{
		IdentityID: claims.Subject,
		Email:      claims.Email,
		Role:       claims.Role,
	}, nil
}
