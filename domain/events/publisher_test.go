package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHausEvent_Subject(t *testing.T) {
	tests := []struct {
		name   string
		typ    Type
		prefix string
		want   string
	}{
		{name: "created", typ: TypeCreated, prefix: "haus", want: "haus.created"},
		{name: "updated", typ: TypeUpdated, prefix: "haus", want: "haus.updated"},
		{name: "deleted", typ: TypeDeleted, prefix: "haus", want: "haus.deleted"},
		{name: "no prefix", typ: TypeCreated, prefix: "", want: "created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewHausEvent(tt.typ, 1, 0).Subject(tt.prefix))
		})
	}
}

func TestNewHausEvent(t *testing.T) {
	a := NewHausEvent(TypeUpdated, 30, 2)
	b := NewHausEvent(TypeUpdated, 30, 2)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(30), a.HausID)
	assert.Equal(t, 2, a.Version)
	assert.False(t, a.Timestamp.IsZero())
}

func TestNatsPublisher_Publish(t *testing.T) {
	c := &fakeConn{}
	pub := NewNatsPublisher(c, "haus", newTestLogger())

	pub.Publish(context.Background(), NewHausEvent(TypeCreated, 42, 0))

	require.Len(t, c.subjects, 1)
	assert.Equal(t, "haus.created", c.subjects[0])

	var got HausEvent
	require.NoError(t, json.Unmarshal(c.payloads[0], &got))
	assert.Equal(t, int64(42), got.HausID)
	assert.Equal(t, TypeCreated, got.Type)
}

func TestNatsPublisher_PublishErrorIsSwallowed(t *testing.T) {
	c := &fakeConn{err: errors.New("nats: connection closed")}
	pub := NewNatsPublisher(c, "haus", newTestLogger())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), NewHausEvent(TypeDeleted, 1, 3))
	})
	assert.Empty(t, c.subjects)
}

func TestNatsPublisher_Close(t *testing.T) {
	c := &fakeConn{}
	require.NoError(t, NewNatsPublisher(c, "haus", newTestLogger()).Close())
	assert.True(t, c.drained)
}
