package haus

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/Yukasama/haus/internal/database"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
)

// Store is the persistence used by the read and write services
type Store interface {
	// FindByID returns nil without error when no house matches
	FindByID(ctx context.Context, id int64, withPersonen bool) (*Haus, error)
	Find(ctx context.Context, criteria Suchkriterien) ([]*Haus, error)
	// Create inserts the house with its address and persons
	Create(ctx context.Context, h *Haus) error
	// Update writes h if the stored version still equals expectedVersion
	Update(ctx context.Context, h *Haus, expectedVersion int) (bool, error)
	// Delete removes the address, the persons and the house
	Delete(ctx context.Context, h *Haus) (bool, error)
}

// Repository handles database operations for houses
type Repository struct {
	db  bun.IDB
	qb  *QueryBuilder
	log *slog.Logger
}

// NewRepository creates a new house repository
func NewRepository(db bun.IDB, qb *QueryBuilder, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		qb:  qb,
		log: log.With(logger.Scope("haus.repo")),
	}
}

// FindByID returns a house with its address and optionally its persons
func (r *Repository) FindByID(ctx context.Context, id int64, withPersonen bool) (*Haus, error) {
	h := new(Haus)
	err := r.qb.BuildID(h, id, withPersonen).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("failed to get haus", logger.Error(err), slog.Int64("id", id))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return h, nil
}

// Find returns every house matching criteria
func (r *Repository) Find(ctx context.Context, criteria Suchkriterien) ([]*Haus, error) {
	var list []*Haus
	if err := r.qb.Build(&list, criteria).Scan(ctx); err != nil {
		r.log.Error("failed to find haeuser", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return list, nil
}

// Create inserts h, its address and its persons in one transaction
func (r *Repository) Create(ctx context.Context, h *Haus) error {
	tx, err := database.BeginSafeTx(ctx, r.db)
	if err != nil {
		r.log.Error("failed to begin transaction", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.NewInsert().Model(h).Returning("id").Exec(ctx); err != nil {
		r.log.Error("failed to insert haus", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}

	if h.Adresse != nil {
		h.Adresse.HausID = h.ID
		if _, err := tx.NewInsert().Model(h.Adresse).Returning("id").Exec(ctx); err != nil {
			r.log.Error("failed to insert adresse", logger.Error(err), slog.Int64("haus_id", h.ID))
			return apperror.ErrDatabase.WithInternal(err)
		}
	}

	if len(h.Personen) > 0 {
		for _, p := range h.Personen {
			p.HausID = h.ID
		}
		if _, err := tx.NewInsert().Model(&h.Personen).Returning("id").Exec(ctx); err != nil {
			r.log.Error("failed to insert personen", logger.Error(err), slog.Int64("haus_id", h.ID))
			return apperror.ErrDatabase.WithInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.log.Error("failed to commit haus", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// Update writes the scalar columns of h. The version column guards the write,
// so a concurrent update that committed first makes this one a no-op.
func (r *Repository) Update(ctx context.Context, h *Haus, expectedVersion int) (bool, error) {
	if h.Aktualisiert.IsZero() {
		h.Aktualisiert = time.Now()
	}

	res, err := r.db.NewUpdate().
		Model(h).
		Column("version", "hausflaeche", "art", "preis", "verkaeuflich", "baudatum", "katalog", "features", "aktualisiert").
		WherePK().
		Where("haus.version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to update haus", logger.Error(err), slog.Int64("id", h.ID))
		return false, apperror.ErrDatabase.WithInternal(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return n > 0, nil
}

// Delete removes the address, each person and the house in one transaction
func (r *Repository) Delete(ctx context.Context, h *Haus) (bool, error) {
	var deleted bool

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx bun.IDB) error {
		if _, err := tx.NewDelete().
			Model((*Adresse)(nil)).
			Where("haus_id = ?", h.ID).
			Exec(ctx); err != nil {
			return err
		}

		for _, p := range h.Personen {
			if _, err := tx.NewDelete().Model(p).WherePK().Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().Model(h).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		r.log.Error("failed to delete haus", logger.Error(err), slog.Int64("id", h.ID))
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return deleted, nil
}
