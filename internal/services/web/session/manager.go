// Package session keeps server-side GoTrue sessions for desk browsers and
// broadcasts their state changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/edumap/desk/internal/platform/logging"
	"github.com/edumap/desk/internal/platform/timeouts"
	webstorage "github.com/edumap/desk/internal/services/web/storage"
	"github.com/edumap/desk/internal/supabase"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTTL bounds how long a stored session lives without a sign-out.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNoSession is returned when the browser has no live session.
var ErrNoSession = errors.New("no active session")

// Authenticator is the GoTrue surface the manager needs.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUserMetadata(ctx context.Context, accessToken string, data map[string]any) (supabase.User, error)
}

// Session is one signed-in browser.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         supabase.User
	CreatedAt    time.Time
}

// Options tunes a Manager.
type Options struct {
	// TTL is the storage lifetime of a session. Zero uses DefaultTTL.
	TTL time.Duration
	// RefreshMargin refreshes tokens that expire within this window.
	RefreshMargin time.Duration
	Now           func() time.Time
	NewID         func() string
	Logger        *logrus.Entry
}

// Manager signs browsers in and out and keeps their tokens fresh.
type Manager struct {
	auth          Authenticator
	store         webstorage.SessionStore
	ttl           time.Duration
	refreshMargin time.Duration
	now           func() time.Time
	newID         func() string
	log           *logrus.Entry
	events        broadcaster
}

// NewManager builds a manager over auth and store.
func NewManager(auth Authenticator, store webstorage.SessionStore, opts Options) (*Manager, error) {
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	m := &Manager{
		auth:          auth,
		store:         store,
		ttl:           opts.TTL,
		refreshMargin: opts.RefreshMargin,
		now:           opts.Now,
		newID:         opts.NewID,
		log:           opts.Logger,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.refreshMargin <= 0 {
		m.refreshMargin = timeouts.SessionRefreshMargin
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	return m, nil
}

// Subscribe registers a listener for session changes.
func (m *Manager) Subscribe(listener Listener) *Subscription {
	if listener == nil {
		return &Subscription{}
	}
	return m.events.subscribe(listener)
}

// SignIn authenticates with email and password and stores a new session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	remote, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	record := webstorage.SessionRecord{
		ID:        m.newID(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	applyRemote(&record, remote)
	if err := m.store.PutSession(ctx, record); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	sess := fromRecord(record)
	m.events.emit(EventSignedIn, sess)
	return sess, nil
}

// SignOut ends the session. The remote sign-out is best effort; the local
// session is always removed.
func (m *Manager) SignOut(ctx context.Context, id string) error {
	record, err := m.store.GetSession(ctx, id)
	if errors.Is(err, webstorage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := m.auth.SignOut(ctx, record.AccessToken); err != nil {
		m.log.WithError(err).WithField("session_id", record.ID).Warn("remote sign-out failed")
	}
	if err := m.store.DeleteSession(ctx, record.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.events.emit(EventSignedOut, fromRecord(record))
	return nil
}

// Current returns the live session for id, refreshing its access token when
// it is about to expire. A failed refresh signs the session out.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNoSession
	}
	record, err := m.store.GetSession(ctx, id)
	if errors.Is(err, webstorage.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token := supabase.Session{ExpiresAt: record.TokenExpiry}
	if !token.ExpiresWithin(m.now(), m.refreshMargin) {
		return fromRecord(record), nil
	}

	remote, err := m.auth.RefreshSession(ctx, record.RefreshToken)
	if err != nil {
		m.log.WithError(err).WithField("session_id", record.ID).Info("token refresh failed, signing out")
		return nil, m.drop(ctx, fromRecord(record))
	}
	applyRemote(&record, remote)
	record.UpdatedAt = m.now().UTC()
	if err := m.store.PutSession(ctx, record); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	sess := fromRecord(record)
	m.events.emit(EventTokenRefreshed, sess)
	return sess, nil
}

// UpdateUserMetadata merges data into the signed-in user's metadata.
func (m *Manager) UpdateUserMetadata(ctx context.Context, id string, data map[string]any) (*Session, error) {
	current, err := m.Current(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := m.auth.UpdateUserMetadata(ctx, current.AccessToken, data)
	if supabase.IsStatus(err, http.StatusUnauthorized) {
		m.log.WithError(err).WithField("session_id", current.ID).Info("access token rejected, signing out")
		return nil, m.drop(ctx, current)
	}
	if err != nil {
		return nil, err
	}
	record, err := m.store.GetSession(ctx, id)
	if errors.Is(err, webstorage.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if user.ID != "" {
		record.UserID = user.ID
	}
	if user.Email != "" {
		record.Email = user.Email
	}
	if user.Metadata != nil {
		record.Metadata = maps.Clone(user.Metadata)
	} else {
		if record.Metadata == nil {
			record.Metadata = map[string]any{}
		}
		maps.Copy(record.Metadata, data)
	}
	record.UpdatedAt = m.now().UTC()
	if err := m.store.PutSession(ctx, record); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	sess := fromRecord(record)
	m.events.emit(EventUserUpdated, sess)
	return sess, nil
}

// drop deletes a session the backend no longer honors. It returns
// ErrNoSession unless the delete itself fails.
func (m *Manager) drop(ctx context.Context, sess *Session) error {
	if err := m.store.DeleteSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.events.emit(EventSignedOut, sess)
	return ErrNoSession
}

func applyRemote(record *webstorage.SessionRecord, remote supabase.Session) {
	record.AccessToken = remote.AccessToken
	if remote.RefreshToken != "" {
		record.RefreshToken = remote.RefreshToken
	}
	record.TokenExpiry = remote.ExpiresAt
	if remote.User.ID != "" {
		record.UserID = remote.User.ID
	}
	if remote.User.Email != "" {
		record.Email = remote.User.Email
	}
	if remote.User.Metadata != nil {
		record.Metadata = maps.Clone(remote.User.Metadata)
	}
}

func fromRecord(record webstorage.SessionRecord) *Session {
	return &Session{
		ID:           record.ID,
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		ExpiresAt:    record.TokenExpiry,
		User: supabase.User{
			ID:       record.UserID,
			Email:    record.Email,
			Metadata: maps.Clone(record.Metadata),
		},
		CreatedAt: record.CreatedAt,
	}
}
