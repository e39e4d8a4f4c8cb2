package configstore

import (
	"context"

	"notifstore/internal/access"
	"notifstore/internal/model"
)

// GetConfigsQuery carries the search parameters of a config listing.
// Filters hold external field names; unknown names are rejected.
type GetConfigsQuery struct {
	Filters   map[string]string
	Query     string
	TextQuery string
	SortField string
	SortOrder string
	FromIndex int64
	MaxItems  int64
}

// CreateConfigRequest creates one config, optionally with a caller-chosen id.
type CreateConfigRequest struct {
	ConfigID string
	Config   model.NotificationConfig
}

// Service is the access-controlled notification config store.
type Service interface {
	Create(ctx context.Context, user *access.User, req CreateConfigRequest) (string, error)
	Get(ctx context.Context, user *access.User, ids []string, q GetConfigsQuery) (*model.ConfigSearchResult, error)
	Update(ctx context.Context, user *access.User, id string, cfg model.NotificationConfig) (string, error)
	Delete(ctx context.Context, user *access.User, id string) error
	DeleteBulk(ctx context.Context, user *access.User, ids []string) (map[string]string, error)
	GetFeatureChannelList(ctx context.Context, user *access.User, feature string) (*model.ChannelList, error)
}
