package devtools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/Yukasama/haus/internal/database"
	"github.com/Yukasama/haus/pkg/logger"
)

// Seeder reloads the development data
type Seeder interface {
	Populate(ctx context.Context) (int, error)
}

// Populator replaces the contents of the haus tables with the embedded seed
type Populator struct {
	db  bun.IDB
	log *slog.Logger
}

// NewPopulator creates a new populator
func NewPopulator(db bun.IDB, log *slog.Logger) *Populator {
	return &Populator{
		db:  db,
		log: log.With(logger.Scope("devtools")),
	}
}

// Populate truncates the tables and inserts the seed in one transaction.
// It returns the number of houses loaded.
func (p *Populator) Populate(ctx context.Context) (int, error) {
	haeuser, err := parseSeed(seedYAML)
	if err != nil {
		return 0, err
	}

	err = database.RunInTx(ctx, p.db, func(ctx context.Context, tx bun.IDB) error {
		// RESTART IDENTITY is the bun default for postgres
		if _, err := tx.NewTruncateTable().
			Table("person", "adresse", "haus").
			Cascade().
			Exec(ctx); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}

		for _, h := range haeuser {
			if _, err := tx.NewInsert().Model(h).Exec(ctx); err != nil {
				return fmt.Errorf("insert haus %d: %w", h.ID, err)
			}
			if _, err := tx.NewInsert().Model(h.Adresse).Exec(ctx); err != nil {
				return fmt.Errorf("insert adresse of haus %d: %w", h.ID, err)
			}
			if len(h.Personen) > 0 {
				if _, err := tx.NewInsert().Model(&h.Personen).Exec(ctx); err != nil {
					return fmt.Errorf("insert personen of haus %d: %w", h.ID, err)
				}
			}
		}

		// ids were supplied explicitly, move the sequence past them
		if _, err := tx.NewRaw(
			"SELECT setval(pg_get_serial_sequence('haus', 'id'), (SELECT max(id) FROM haus))",
		).Exec(ctx); err != nil {
			return fmt.Errorf("reset sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		p.log.Error("db populate failed", logger.Error(err))
		return 0, err
	}

	p.log.Info("db populated", slog.Int("haeuser", len(haeuser)))
	return len(haeuser), nil
}
