package model

// ConfigDoc is the persisted shape of a notification config: the payload
// nested under "config" with server-managed metadata alongside.
type ConfigDoc struct {
	Metadata DocMetadata        `bson:"metadata"`
	Config   NotificationConfig `bson:"config"`
}

// EventDoc is the persisted shape of a notification event.
type EventDoc struct {
	Metadata DocMetadata       `bson:"metadata"`
	Event    NotificationEvent `bson:"event"`
}

const (
	ConfigTag = "config"
	EventTag  = "event"
)
