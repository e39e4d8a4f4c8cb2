package constants

import "time"

const (
	ConfigCollection = "notification_configs"
	EventCollection  = "notification_events"
)

const (
	DefaultMongoDBName = "notifstore"
)

const (
	DefaultOperationTimeout = 10 * time.Second
	ShutdownTimeout         = 5 * time.Second
)

const (
	DefaultMaxItems = 20
	MaxMaxItems     = 1000
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixConfig = "config:"
)
