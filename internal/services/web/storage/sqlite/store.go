package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/edumap/desk/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/edumap/desk/internal/services/web/storage"
	"github.com/edumap/desk/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed session persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens and migrates a session SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetSession loads a live session by id.
func (s *Store) GetSession(ctx context.Context, id string) (webstorage.SessionRecord, error) {
	if s == nil || s.sqlDB == nil {
		return webstorage.SessionRecord{}, errors.New("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, access_token, refresh_token, token_expiry, user_id, email, metadata_json, created_at, updated_at, expires_at
		 FROM desk_sessions
		 WHERE id = ?`,
		id,
	)

	var record webstorage.SessionRecord
	var metadataJSON string
	var tokenExpiry, createdAt, updatedAt, expiresAt int64
	if err := row.Scan(
		&record.ID,
		&record.AccessToken,
		&record.RefreshToken,
		&tokenExpiry,
		&record.UserID,
		&record.Email,
		&metadataJSON,
		&createdAt,
		&updatedAt,
		&expiresAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.SessionRecord{}, webstorage.ErrNotFound
		}
		return webstorage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	record.TokenExpiry = unixMillisToTime(tokenExpiry)
	record.CreatedAt = unixMillisToTime(createdAt)
	record.UpdatedAt = unixMillisToTime(updatedAt)
	record.ExpiresAt = unixMillisToTime(expiresAt)

	if record.Expired(s.now()) {
		if err := s.DeleteSession(ctx, id); err != nil {
			return webstorage.SessionRecord{}, err
		}
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	if metadataJSON != "" && metadataJSON != "{}" {
		if err := json.Unmarshal([]byte(metadataJSON), &record.Metadata); err != nil {
			return webstorage.SessionRecord{}, fmt.Errorf("decode session metadata: %w", err)
		}
	}
	return record, nil
}

// PutSession upserts a session by id.
func (s *Store) PutSession(ctx context.Context, record webstorage.SessionRecord) error {
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return errors.New("session id is required")
	}
	if strings.TrimSpace(record.AccessToken) == "" {
		return errors.New("access token is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	metadataJSON := []byte("{}")
	if len(record.Metadata) > 0 {
		encoded, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("encode session metadata: %w", err)
		}
		metadataJSON = encoded
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO desk_sessions (
		    id, access_token, refresh_token, token_expiry, user_id, email, metadata_json, created_at, updated_at, expires_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    access_token = excluded.access_token,
		    refresh_token = excluded.refresh_token,
		    token_expiry = excluded.token_expiry,
		    user_id = excluded.user_id,
		    email = excluded.email,
		    metadata_json = excluded.metadata_json,
		    updated_at = excluded.updated_at,
		    expires_at = excluded.expires_at`,
		record.ID,
		record.AccessToken,
		record.RefreshToken,
		timeToUnixMillis(record.TokenExpiry),
		strings.TrimSpace(record.UserID),
		strings.TrimSpace(record.Email),
		string(metadataJSON),
		timeToUnixMillis(record.CreatedAt),
		timeToUnixMillis(record.UpdatedAt),
		timeToUnixMillis(record.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by id.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM desk_sessions WHERE id = ?`, strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes every record past its storage lifetime and returns
// how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, errors.New("storage is not configured")
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM desk_sessions WHERE expires_at > 0 AND expires_at <= ?`,
		timeToUnixMillis(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ webstorage.SessionStore = (*Store)(nil)
