package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartWithoutProvider(t *testing.T) {
	ctx, span := Start(context.Background(), "test.span", attribute.String("k", "v"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestRecordErrorReturnsInput(t *testing.T) {
	_, span := Start(context.Background(), "test.error")
	defer span.End()

	err := errors.New("boom")
	assert.Same(t, err, RecordError(span, err))
	assert.NoError(t, RecordError(span, nil))
}
