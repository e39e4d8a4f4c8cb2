package eventstore

import (
	"context"

	"notifstore/internal/access"
	"notifstore/internal/model"
)

// GetEventsQuery carries the search parameters of an event listing.
type GetEventsQuery struct {
	Filters   map[string]string
	Query     string
	TextQuery string
	SortField string
	SortOrder string
	FromIndex int64
	MaxItems  int64
}

// CreateEventRequest stores one event, optionally with a caller-chosen id.
type CreateEventRequest struct {
	EventID string
	Event   model.NotificationEvent
}

// Service is the access-controlled notification event store. Events are
// written by the delivery pipeline and read back by feature plugins.
type Service interface {
	Create(ctx context.Context, user *access.User, req CreateEventRequest) (string, error)
	Get(ctx context.Context, user *access.User, ids []string, q GetEventsQuery) (*model.EventSearchResult, error)
	Update(ctx context.Context, user *access.User, id string, event model.NotificationEvent) (string, error)
	Delete(ctx context.Context, user *access.User, ids []string) (map[string]string, error)
	RecordDeliveryStatus(ctx context.Context, user *access.User, id string, statuses []model.ChannelStatus) error
}
