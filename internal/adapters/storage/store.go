// Package storage holds the durable ProfileStore backends.
package storage

import (
	"context"
	"strings"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindNone     Kind = "none"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Detect picks a backend from the DSN shape.
func Detect(dsn string) Kind {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return KindNone
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"):
		return KindSQLite
	}
	return KindNone
}

// Open returns the configured store. Any failure is logged and yields the
// no-op store so the relay keeps serving from memory.
func Open(ctx context.Context, dsn string) core.ProfileStore {
	var (
		s   core.ProfileStore
		err error
	)
	switch kind := Detect(dsn); kind {
	case KindPostgres:
		s, err = OpenPostgres(ctx, dsn)
	case KindSQLite:
		s, err = OpenSQLite(ctx, sqlitePath(dsn))
	default:
		if strings.TrimSpace(dsn) != "" {
			log.Warn().Str("module", "storage").Msg("unrecognised profile store DSN, persistence disabled")
		}
		return core.NopProfileStore{}
	}
	if err != nil {
		log.Warn().Str("module", "storage").Err(err).Msg("profile store unavailable, persistence disabled")
		return core.NopProfileStore{}
	}
	log.Info().Str("module", "storage").Str("store", s.Name()).Msg("profile store ready")
	return s
}

func sqlitePath(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if rest, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return rest
	}
	return dsn
}
