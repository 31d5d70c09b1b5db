package notify

import (
	"context"
	"encoding/json"
	"time"

	"estatehub/internal/logger"
	"estatehub/internal/websocket"

	"github.com/google/uuid"
)

const (
	EventReviewDecided      = "review.decided"
	EventListingSubmitted   = "listing.submitted"
	EventAppointmentCreated = "appointment.created"
	EventAppointmentUpdated = "appointment.updated"
	EventSessionTerminated  = "session.terminated"
)

// Event is published after a change has been committed.
type Event struct {
	Type      string          `json:"type"`
	Module    string          `json:"module,omitempty"`
	AdminID   *uuid.UUID      `json:"adminId,omitempty"`
	SessionID *uuid.UUID      `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	At        time.Time       `json:"at"`
}

// NewEvent builds an event, encoding data as JSON.
func NewEvent(eventType, module string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Module: module, Data: raw, At: time.Now().UTC()}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// HubPublisher delivers events straight to connected websocket clients.
type HubPublisher struct {
	hub *websocket.Hub
	log *logger.Logger
}

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub, log: logger.New("NOTIFY")}
}

func (p *HubPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return p.log.Error("failed to encode event %s", err, e.Type)
	}
	if e.Type == EventSessionTerminated && e.SessionID != nil {
		p.hub.DisconnectSession(*e.SessionID)
	}
	return p.hub.Broadcast(ctx, websocket.Message{Data: data, Module: e.Module, AdminID: e.AdminID})
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// PublishAfterCommit sends e and only logs failures; the change it describes
// is already durable.
func PublishAfterCommit(ctx context.Context, p Publisher, log *logger.Logger, eventType, module string, data interface{}) {
	e, err := NewEvent(eventType, module, data)
	if err != nil {
		log.Warn("event %s not encoded: %v", eventType, err)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn("event %s not published: %v", eventType, err)
	}
}
