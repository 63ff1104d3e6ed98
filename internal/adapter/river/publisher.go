package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/modreg/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a registry audit event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the module at the time the event was published,
// so the worker never needs to query the database.
type EventJobArgs struct {
	Event     string `json:"event"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	IsCore    bool   `json:"is_core"`
	IsEnabled bool   `json:"is_enabled"`
	Status    string `json:"status"`
	Actor     string `json:"actor"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "module.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a registry event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, module domain.Module) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:     string(event),
		Key:       module.Key,
		Name:      module.DisplayName,
		IsCore:    module.IsCore,
		IsEnabled: module.IsEnabled,
		Status:    string(module.Status),
		Actor:     module.UpdatedBy,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
