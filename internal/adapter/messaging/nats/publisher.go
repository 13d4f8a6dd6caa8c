package nats

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event is the envelope published on property lifecycle changes.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Slug       string    `json:"slug"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventPropertyCreated = "property.created"
	EventPropertyUpdated = "property.updated"
	EventPropertyDeleted = "property.deleted"
)

type Publisher struct {
	conn *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) PublishPropertyEvent(eventType, slug string) error {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Slug:       slug,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(event.Type, data)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
