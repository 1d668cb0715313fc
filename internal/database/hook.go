package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Yukasama/haus/pkg/logger"
	"github.com/Yukasama/haus/pkg/tracing"
)

// slowQuery is the duration above which a statement is logged as a warning
const slowQuery = time.Second

// QueryHook opens a span per statement and logs failed and slow ones.
// Every statement is logged at debug level when verbose is set.
type QueryHook struct {
	log     *slog.Logger
	verbose bool
}

func NewQueryHook(log *slog.Logger, verbose bool) *QueryHook {
	return &QueryHook{log: log, verbose: verbose}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	ctx, _ = tracing.Start(ctx, "db."+operation(event),
		attribute.String("db.system", "postgresql"),
	)
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	elapsed := time.Since(event.StartTime)
	attrs := []any{
		slog.String("op", operation(event)),
		slog.String("query", event.Query),
		slog.Duration("duration", elapsed),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		_ = tracing.RecordError(span, event.Err)
		h.log.Error("query failed", append(attrs, logger.Error(event.Err))...)
	case elapsed > slowQuery:
		h.log.Warn("slow query", attrs...)
	case h.verbose:
		h.log.Debug("query", attrs...)
	}
}

func operation(event *bun.QueryEvent) string {
	if op := event.Operation(); op != "" {
		return op
	}
	return "QUERY"
}
