// main.go
//
// Process entry for the puzzle server.
// Responsibilities:
//   - Loading .env and the environment into config.Config.
//   - Setting the global zerolog level.
//   - Opening storage (SQLite file, or memory for STORAGE=memory) and migrating.
//   - Wiring sessions, completions and the HTTP server.

package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/completion"
	"github.com/twoworlds/puzzle-server/internal/config"
	"github.com/twoworlds/puzzle-server/internal/httpserver"
	"github.com/twoworlds/puzzle-server/internal/session"
	"github.com/twoworlds/puzzle-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, kv, err := openStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("open storage")
	}
	defer db.Close()

	results := completion.NewStore(db)
	sessions := session.NewRegistry(kv, session.WithFinishHook(results.RecordFinish))
	srv := httpserver.New(cfg, sessions, db, results)

	log.Info().Str("addr", cfg.Addr()).Str("storage", cfg.Storage).Msg("starting puzzle server")
	if err := srv.Start(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openStorage returns the database for accounts and completions, and the
// KV holding progress records.
func openStorage(cfg config.Config) (*sql.DB, store.KV, error) {
	var db *sql.DB
	var err error
	if cfg.Storage == config.StorageMemory {
		db, err = store.OpenMemoryDB()
	} else {
		db, err = store.OpenDB(cfg.DatabasePath)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if cfg.Storage == config.StorageMemory {
		return db, store.NewMemoryStore(), nil
	}
	return db, store.NewSQLiteStore(db), nil
}
