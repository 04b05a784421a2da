package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// Keys of the persisted session. The names match the legacy session file.
const (
	KeyToken   = "jwt_token"
	KeyProfile = "user_data"
)

// SQLiteStore is the local client store: session values in kv and autosave snapshots in
// drafts. Values are sealed when a secret is configured.
type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
	log    *slog.Logger
	now    func() time.Time
}

// Open creates the database file if needed and applies pragmas. Migrations are separate.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB, sealer *Sealer, log *slog.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if sealer == nil {
		sealer = &Sealer{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLiteStore{db: db, sealer: sealer, log: log, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) stamp() string { return s.now().UTC().Format(time.RFC3339Nano) }

// Get returns the opened value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	v, err := s.sealer.Open(key, stored)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := s.sealer.Seal(key, value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, sealed, s.stamp())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// LoadSession returns the stored token and profile. An unreadable profile is dropped and
// logged; the token alone is enough for the session to re-verify.
func (s *SQLiteStore) LoadSession(ctx context.Context) (string, *models.User, error) {
	tok, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok {
		return "", nil, err
	}
	raw, ok, err := s.Get(ctx, KeyProfile)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return string(tok), nil, nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.log.Warn("discarding unreadable stored profile", "error", err)
		return string(tok), nil, nil
	}
	return string(tok), &u, nil
}

func (s *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	return s.Put(ctx, KeyToken, []byte(token))
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.Delete(ctx, KeyProfile)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return s.Put(ctx, KeyProfile, b)
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeyToken, KeyProfile)
}

// SaveDraft writes payload only when seq is newer than the stored snapshot.
func (s *SQLiteStore) SaveDraft(ctx context.Context, key string, seq uint64, payload []byte) (bool, error) {
	sealed, err := s.sealer.Seal(key, payload)
	if err != nil {
		return false, fmt.Errorf("seal %s: %w", key, err)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO drafts (key, seq, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET seq = excluded.seq, payload = excluded.payload, updated_at = excluded.updated_at
		WHERE excluded.seq > drafts.seq`,
		key, int64(seq), sealed, s.stamp())
	if err != nil {
		return false, fmt.Errorf("save draft %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save draft %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) LoadDraft(ctx context.Context, key string) (uint64, []byte, bool, error) {
	var (
		seq    int64
		stored string
	)
	err := s.db.QueryRowContext(ctx, `SELECT seq, payload FROM drafts WHERE key = ?`, key).Scan(&seq, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("load draft %s: %w", key, err)
	}
	payload, err := s.sealer.Open(key, stored)
	if err != nil {
		return 0, nil, false, fmt.Errorf("open draft %s: %w", key, err)
	}
	return uint64(seq), payload, true, nil
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	return nil
}

// DraftInfo describes a saved draft without opening it.
type DraftInfo struct {
	Key       string
	Seq       uint64
	UpdatedAt time.Time
}

func (s *SQLiteStore) ListDrafts(ctx context.Context) ([]DraftInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, seq, updated_at FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()
	var out []DraftInfo
	for rows.Next() {
		var (
			info DraftInfo
			seq  int64
			ts   string
		)
		if err := rows.Scan(&info.Key, &seq, &ts); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		info.Seq = uint64(seq)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, info)
	}
	return out, rows.Err()
}
