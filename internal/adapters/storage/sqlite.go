package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS profiles (
	user_id        TEXT PRIMARY KEY,
	display_name   TEXT NOT NULL,
	real_name      TEXT,
	show_real_name INTEGER NOT NULL DEFAULT 0,
	rev            INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
)`

type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return string(KindSQLite) }

func (s *SQLite) Load(ctx context.Context, ids []domain.UserID) ([]domain.ProfileSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}
	query := `SELECT user_id, display_name, real_name, show_real_name, rev FROM profiles WHERE user_id IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ProfileSnapshot
	for rows.Next() {
		var (
			snap     domain.ProfileSnapshot
			uid      string
			realName sql.NullString
		)
		if err := rows.Scan(&uid, &snap.DisplayName, &realName, &snap.ShowRealName, &snap.Rev); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		snap.UserID = domain.UserID(uid)
		if realName.Valid {
			snap.RealName = &realName.String
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Upsert only replaces rows holding an older revision.
func (s *SQLite) Upsert(ctx context.Context, uid domain.UserID, rec domain.ProfileRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, real_name, show_real_name, rev, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			real_name = excluded.real_name,
			show_real_name = excluded.show_real_name,
			rev = excluded.rev,
			updated_at = excluded.updated_at
		 WHERE profiles.rev < excluded.rev`,
		string(uid), rec.DisplayName, rec.RealName, rec.ShowRealName, rec.Rev, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", uid, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
