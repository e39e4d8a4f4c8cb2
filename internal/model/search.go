package model

// NotificationConfigInfo is a stored config together with its server-managed
// identity and timestamps.
type NotificationConfigInfo struct {
	ConfigID       string             `json:"config_id"`
	LastUpdateTime int64              `json:"last_updated_time_ms"`
	CreatedTime    int64              `json:"created_time_ms"`
	Config         NotificationConfig `json:"config"`
}

// NotificationEventInfo is a stored event together with its server-managed
// identity and timestamps.
type NotificationEventInfo struct {
	EventID        string            `json:"event_id"`
	LastUpdateTime int64             `json:"last_updated_time_ms"`
	CreatedTime    int64             `json:"created_time_ms"`
	Event          NotificationEvent `json:"event"`
}

// TotalHitRelation mirrors search-engine hit accounting: "eq" when the total
// is exact, "gte" when it is a lower bound.
const (
	HitRelationEqual          = "eq"
	HitRelationGreaterOrEqual = "gte"
)

// ConfigSearchResult is a page of config search hits.
type ConfigSearchResult struct {
	StartIndex       int64                    `json:"start_index"`
	TotalHits        int64                    `json:"total_hits"`
	TotalHitRelation string                   `json:"total_hit_relation"`
	Items            []NotificationConfigInfo `json:"config_list"`
}

// EventSearchResult is a page of event search hits.
type EventSearchResult struct {
	StartIndex       int64                   `json:"start_index"`
	TotalHits        int64                   `json:"total_hits"`
	TotalHitRelation string                  `json:"total_hit_relation"`
	Items            []NotificationEventInfo `json:"event_list"`
}

// Channel is the reduced view of a channel-capable config returned to
// feature plugins picking a delivery target.
type Channel struct {
	ConfigID    string     `json:"config_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ConfigType  ConfigType `json:"config_type"`
	IsEnabled   bool       `json:"is_enabled"`
}

// ChannelList is the result of a feature channel listing.
type ChannelList struct {
	StartIndex       int64     `json:"start_index"`
	TotalHits        int64     `json:"total_hits"`
	TotalHitRelation string    `json:"total_hit_relation"`
	Channels         []Channel `json:"channel_list"`
}
