// Package supabase talks to the Supabase GoTrue auth REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edumap/desk/internal/platform/config"
	"github.com/edumap/desk/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/edumap/desk/internal/supabase"
	authPathPrefix  = "auth/v1"
	maxResponseBody = 1 << 20
)

// ErrNotConfigured is returned by every call on a nil client.
var ErrNotConfigured = errors.New("supabase is not configured")

// Options tunes a client.
type Options struct {
	// HTTPClient overrides the default client with a request timeout.
	HTTPClient *http.Client
	// JWTSecret, when set, verifies access-token signatures before claims
	// are trusted.
	JWTSecret string
	// Now overrides the clock used to compute session expiry.
	Now func() time.Time
}

// Client is a GoTrue client bound to one project URL and anon key.
type Client struct {
	baseURL   *url.URL
	anonKey   string
	http      *http.Client
	jwtSecret []byte
	now       func() time.Time
	tracer    trace.Tracer
}

// New returns a client for the project, or nil when the URL or key is not
// usable. Values are sanitized first so quoted .env entries work.
func New(rawURL, anonKey string, opts Options) *Client {
	rawURL = config.Sanitize(rawURL)
	anonKey = config.Sanitize(anonKey)
	if rawURL == "" || anonKey == "" {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.AuthRequest}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var secret []byte
	if trimmed := config.Sanitize(opts.JWTSecret); trimmed != "" {
		secret = []byte(trimmed)
	}
	return &Client{
		baseURL:   parsed,
		anonKey:   anonKey,
		http:      httpClient,
		jwtSecret: secret,
		now:       now,
		tracer:    otel.Tracer(tracerName),
	}
}

// URL returns the project URL the client targets.
func (c *Client) URL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	if c == nil {
		return Session{}, ErrNotConfigured
	}
	var resp tokenResponse
	err := c.do(ctx, "supabase.sign_in", http.MethodPost, "token", url.Values{"grant_type": {"password"}}, "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return Session{}, err
	}
	return c.sessionFromToken(resp)
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	if c == nil {
		return Session{}, ErrNotConfigured
	}
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, errors.New("refresh token is required")
	}
	var resp tokenResponse
	err := c.do(ctx, "supabase.refresh", http.MethodPost, "token", url.Values{"grant_type": {"refresh_token"}}, "", map[string]string{
		"refresh_token": refreshToken,
	}, &resp)
	if err != nil {
		return Session{}, err
	}
	return c.sessionFromToken(resp)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if c == nil {
		return ErrNotConfigured
	}
	return c.do(ctx, "supabase.sign_out", http.MethodPost, "logout", nil, accessToken, nil, nil)
}

// GetUser returns the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (User, error) {
	if c == nil {
		return User{}, ErrNotConfigured
	}
	var user User
	if err := c.do(ctx, "supabase.get_user", http.MethodGet, "user", nil, accessToken, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUserMetadata merges data into the user's metadata and returns the
// updated user.
func (c *Client) UpdateUserMetadata(ctx context.Context, accessToken string, data map[string]any) (User, error) {
	if c == nil {
		return User{}, ErrNotConfigured
	}
	var user User
	body := map[string]any{"data": data}
	if err := c.do(ctx, "supabase.update_user", http.MethodPut, "user", nil, accessToken, body, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) do(ctx context.Context, spanName, method, endpoint string, query url.Values, accessToken string, body any, out any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", "/"+authPathPrefix+"/"+endpoint),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	target := c.baseURL.JoinPath(authPathPrefix, endpoint)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := accessToken
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return parseAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
