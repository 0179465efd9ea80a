package supabase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims used to fill gaps in token responses.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes an access token. With a secret the HMAC signature and
// expiry (against now) are verified; without one the claims are read
// unverified.
func ParseClaims(token string, secret []byte, now time.Time) (Claims, error) {
	claims := &accessClaims{}
	if len(secret) > 0 {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		if err != nil {
			return Claims{}, fmt.Errorf("verify access token: %w", err)
		}
		if !parsed.Valid {
			return Claims{}, fmt.Errorf("verify access token: invalid")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return Claims{}, fmt.Errorf("decode access token: %w", err)
		}
	}

	out := Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return out, nil
}
