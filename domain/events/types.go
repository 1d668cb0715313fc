package events

import (
	"time"

	"github.com/google/uuid"
)

// Type is the kind of change an event announces
type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// HausEvent is published after a house was written
type HausEvent struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	HausID    int64     `json:"hausId"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHausEvent creates an event with a fresh id
func NewHausEvent(t Type, hausID int64, version int) HausEvent {
	return HausEvent{
		ID:        uuid.NewString(),
		Type:      t,
		HausID:    hausID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// Subject returns the NATS subject of the event, e.g. "haus.created"
func (e HausEvent) Subject(prefix string) string {
	if prefix == "" {
		return string(e.Type)
	}
	return prefix + "." + string(e.Type)
}
