// Package factory builds concrete backends from configuration.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/solace-journal/solace-server/internal/config"
	"github.com/solace-journal/solace-server/internal/kv"
	kvpostgres "github.com/solace-journal/solace-server/internal/kv/postgres"
	kvsqlite "github.com/solace-journal/solace-server/internal/kv/sqlite"
)

// NewKV constructs the key-value client selected by cfg.KVDriver. One client
// instance is shared by every store for the lifetime of the process.
func NewKV(cfg *config.Config, log zerolog.Logger) (kv.KV, error) {
	switch cfg.KVDriver {
	case "postgres":
		db, err := kvpostgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Info().Msg("kv driver: postgres")
		return kvpostgres.New(db, cfg.OpTimeout())
	case "sqlite":
		db, err := kvsqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("kv driver: sqlite")
		return kvsqlite.New(db, cfg.OpTimeout())
	default:
		return nil, fmt.Errorf("unsupported kv driver: %s", cfg.KVDriver)
	}
}
