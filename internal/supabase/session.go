package supabase

import (
	"errors"
	"strings"
	"time"
)

// User is the subset of the GoTrue user object the desk relies on.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is an authenticated GoTrue session.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// ExpiresWithin reports whether the access token expires before now+margin.
// A session without a known expiry never reports expiring.
func (s Session) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.ExpiresAt)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (c *Client) sessionFromToken(resp tokenResponse) (Session, error) {
	if strings.TrimSpace(resp.AccessToken) == "" {
		return Session{}, errors.New("token response has no access token")
	}
	session := Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		User:         resp.User,
	}
	switch {
	case resp.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		session.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}

	if session.ExpiresAt.IsZero() || session.User.ID == "" || session.User.Email == "" {
		claims, err := ParseClaims(resp.AccessToken, c.jwtSecret, c.now())
		if err != nil {
			return Session{}, err
		}
		if session.ExpiresAt.IsZero() {
			session.ExpiresAt = claims.ExpiresAt
		}
		if session.User.ID == "" {
			session.User.ID = claims.Subject
		}
		if session.User.Email == "" {
			session.User.Email = claims.Email
		}
	} else if len(c.jwtSecret) > 0 {
		if _, err := ParseClaims(resp.AccessToken, c.jwtSecret, c.now()); err != nil {
			return Session{}, err
		}
	}
	return session, nil
}
