package haus

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
	"github.com/Yukasama/haus/pkg/tracing"
)

// ReadService looks up houses
type ReadService struct {
	store Store
	log   *slog.Logger
}

// NewReadService creates a new read service
func NewReadService(store Store, log *slog.Logger) *ReadService {
	return &ReadService{
		store: store,
		log:   log.With(logger.Scope("haus.read")),
	}
}

// FindByID returns the house with id, including its persons when withPersonen is set
func (s *ReadService) FindByID(ctx context.Context, id int64, withPersonen bool) (*Haus, error) {
	ctx, span := tracing.Start(ctx, "haus.ReadService.FindByID",
		attribute.Int64("haus.id", id),
		attribute.Bool("haus.with_personen", withPersonen),
	)
	defer span.End()

	h, err := s.store.FindByID(ctx, id, withPersonen)
	if err != nil {
		return nil, tracing.RecordError(span, err)
	}
	if h == nil {
		return nil, apperror.ErrNotFound.WithMessagef("Es gibt kein Haus mit der ID %d.", id)
	}

	h.normalize()
	s.log.Debug("found haus", slog.Int64("id", id), slog.Int("version", h.Version))
	return h, nil
}

// Find returns the houses matching criteria. Empty criteria return every house.
func (s *ReadService) Find(ctx context.Context, criteria Suchkriterien) ([]*Haus, error) {
	ctx, span := tracing.Start(ctx, "haus.ReadService.Find",
		attribute.Int("haus.criteria", len(criteria)),
	)
	defer span.End()

	if invalid := criteria.InvalidKeys(); len(invalid) > 0 {
		s.log.Debug("invalid search criteria", slog.Any("keys", invalid))
		return nil, apperror.ErrInvalidCriteria.WithDetails(map[string]any{"keys": invalid})
	}

	list, err := s.store.Find(ctx, criteria)
	if err != nil {
		return nil, tracing.RecordError(span, err)
	}

	if len(list) == 0 && len(criteria) > 0 {
		raw, _ := json.Marshal(criteria)
		return nil, apperror.ErrNotFound.WithMessagef("Keine Haeuser gefunden: %s", raw)
	}

	for _, h := range list {
		h.normalize()
	}
	s.log.Debug("found haeuser", slog.Int("count", len(list)))
	return list, nil
}
