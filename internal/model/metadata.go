package model

import "time"

// DocMetadata is attached to every stored document under the "metadata"
// sub-path. It is never exposed to callers as a search criterion; access
// filtering happens server-side only.
type DocMetadata struct {
	LastUpdateTime time.Time `json:"last_update_time" bson:"last_update_time"`
	CreatedTime    time.Time `json:"created_time" bson:"created_time"`
	Tenant         string    `json:"-" bson:"tenant"`
	Access         []string  `json:"-" bson:"access"`
}

const (
	MetadataTag       = "metadata"
	AccessListTag     = "access"
	TenantTag         = "tenant"
	LastUpdateTimeTag = "last_update_time"
	CreatedTimeTag    = "created_time"
)

// MetadataField returns the full document path of a metadata field.
func MetadataField(name string) string {
	return MetadataTag + "." + name
}
