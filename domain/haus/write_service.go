package haus

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Yukasama/haus/domain/email"
	"github.com/Yukasama/haus/domain/events"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
	"github.com/Yukasama/haus/pkg/tracing"
)

// versionPattern matches an ETag style version such as "3"
var versionPattern = regexp.MustCompile(`^"(\d{1,3})"`)

// Mailer queues notification mails
type Mailer interface {
	Enqueue(job email.Job) string
}

// EventPublisher announces changes to other services
type EventPublisher interface {
	Publish(ctx context.Context, evt events.HausEvent)
}

// WriteService creates, updates and deletes houses
type WriteService struct {
	store     Store
	read      *ReadService
	mailer    Mailer
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewWriteService creates a new write service
func NewWriteService(store Store, read *ReadService, mailer Mailer, publisher EventPublisher, log *slog.Logger) *WriteService {
	return &WriteService{
		store:     store,
		read:      read,
		mailer:    mailer,
		publisher: publisher,
		log:       log.With(logger.Scope("haus.write")),
		now:       time.Now,
	}
}

// Create stores h with its address and persons and returns the new id.
// The notification mail is sent in the background and never fails the create.
func (s *WriteService) Create(ctx context.Context, h *Haus) (int64, error) {
	ctx, span := tracing.Start(ctx, "haus.WriteService.Create")
	defer span.End()

	now := s.now()
	h.ID = 0
	h.Version = 0
	h.Features = h.Features.Normalize()
	h.Erzeugt = now
	h.Aktualisiert = now

	if err := s.store.Create(ctx, h); err != nil {
		return 0, tracing.RecordError(span, err)
	}
	span.SetAttributes(attribute.Int64("haus.id", h.ID))
	s.log.Debug("created haus", slog.Int64("id", h.ID))

	s.sendMail(h)
	s.publisher.Publish(ctx, events.NewHausEvent(events.TypeCreated, h.ID, h.Version))
	return h.ID, nil
}

// Update merges patch onto the stored house when version is current and returns the new version
func (s *WriteService) Update(ctx context.Context, id *int64, patch *HausPatch, version string) (int, error) {
	if id == nil {
		return 0, apperror.ErrNotFound.WithMessage("Es gibt kein Haus mit der ID undefined.")
	}

	ctx, span := tracing.Start(ctx, "haus.WriteService.Update",
		attribute.Int64("haus.id", *id),
		attribute.String("haus.version", version),
	)
	defer span.End()

	expected, err := parseVersion(version)
	if err != nil {
		return 0, tracing.RecordError(span, err)
	}

	current, err := s.read.FindByID(ctx, *id, false)
	if err != nil {
		return 0, tracing.RecordError(span, err)
	}
	if expected < current.Version {
		s.log.Debug("outdated version",
			slog.Int64("id", *id),
			slog.Int("supplied", expected),
			slog.Int("stored", current.Version))
		return 0, tracing.RecordError(span, versionOutdated(expected))
	}

	stored := current.Version
	if patch != nil {
		patch.apply(current)
	}
	current.Version = stored + 1
	current.Aktualisiert = s.now()

	ok, err := s.store.Update(ctx, current, stored)
	if err != nil {
		return 0, tracing.RecordError(span, err)
	}
	if !ok {
		// another update committed between the read and the write
		return 0, tracing.RecordError(span, versionOutdated(expected))
	}

	s.log.Debug("updated haus", slog.Int64("id", *id), slog.Int("version", current.Version))
	s.publisher.Publish(ctx, events.NewHausEvent(events.TypeUpdated, current.ID, current.Version))
	return current.Version, nil
}

// Delete removes the house with id together with its address and persons.
// It reports false when there was nothing to delete.
func (s *WriteService) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.Start(ctx, "haus.WriteService.Delete", attribute.Int64("haus.id", id))
	defer span.End()

	h, err := s.store.FindByID(ctx, id, true)
	if err != nil {
		return false, tracing.RecordError(span, err)
	}
	if h == nil {
		return false, nil
	}

	deleted, err := s.store.Delete(ctx, h)
	if err != nil {
		return false, tracing.RecordError(span, err)
	}

	s.log.Debug("deleted haus", slog.Int64("id", id), slog.Bool("deleted", deleted))
	if deleted {
		s.publisher.Publish(ctx, events.NewHausEvent(events.TypeDeleted, id, h.Version))
	}
	return deleted, nil
}

func (s *WriteService) sendMail(h *Haus) {
	plz := "N/A"
	if h.Adresse != nil && h.Adresse.Plz != "" {
		plz = h.Adresse.Plz
	}

	jobID := s.mailer.Enqueue(email.Job{
		Template: email.TemplateHausCreated,
		Subject:  fmt.Sprintf("Neues Haus %d", h.ID),
		Data: email.TemplateContext{
			"id":  h.ID,
			"plz": plz,
		},
	})
	s.log.Debug("queued notification", slog.String("job_id", jobID), slog.Int64("id", h.ID))
}

// parseVersion extracts the number from a version token such as "3"
func parseVersion(token string) (int, error) {
	m := versionPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, apperror.ErrVersionInvalid.WithMessagef("Die Versionsnummer %s ist ungueltig.", token)
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, apperror.ErrVersionInvalid.WithMessagef("Die Versionsnummer %s ist ungueltig.", token)
	}
	return v, nil
}

func versionOutdated(v int) *apperror.Error {
	return apperror.ErrVersionOutdated.WithMessagef("Die Versionsnummer %d ist nicht mehr aktuell.", v)
}
