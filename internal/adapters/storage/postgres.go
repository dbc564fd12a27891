package storage

import (
	"context"
	"fmt"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS profiles (
	user_id        TEXT PRIMARY KEY,
	display_name   TEXT NOT NULL,
	real_name      TEXT NULL,
	show_real_name BOOLEAN NOT NULL DEFAULT FALSE,
	rev            BIGINT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Name() string { return string(KindPostgres) }

func (p *Postgres) Load(ctx context.Context, ids []domain.UserID) ([]domain.ProfileSnapshot, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	rows, err := p.pool.Query(ctx,
		`SELECT user_id, display_name, real_name, show_real_name, rev
		 FROM profiles WHERE user_id = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ProfileSnapshot
	for rows.Next() {
		var (
			s   domain.ProfileSnapshot
			uid string
		)
		if err := rows.Scan(&uid, &s.DisplayName, &s.RealName, &s.ShowRealName, &s.Rev); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		s.UserID = domain.UserID(uid)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert only replaces rows holding an older revision.
func (p *Postgres) Upsert(ctx context.Context, uid domain.UserID, rec domain.ProfileRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, display_name, real_name, show_real_name, rev, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			real_name = EXCLUDED.real_name,
			show_real_name = EXCLUDED.show_real_name,
			rev = EXCLUDED.rev,
			updated_at = NOW()
		 WHERE profiles.rev < EXCLUDED.rev`,
		string(uid), rec.DisplayName, rec.RealName, rec.ShowRealName, rec.Rev)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", uid, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
