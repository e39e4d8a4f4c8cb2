package broker

import (
	"context"
	"time"
)

// Change actions published when a config document is mutated.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent announces a config mutation to downstream consumers such as
// delivery workers that cache channel configs.
type ChangeEvent struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ConfigID   string    `json:"config_id"`
	ConfigType string    `json:"config_type"`
	Tenant     string    `json:"tenant,omitempty"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Producer interface {
	Publish(ctx context.Context, topic string, event ChangeEvent) error
	Close() error
}
