package eventstore

import (
	"notifstore/internal/model"
	"notifstore/internal/query"
)

func eventPath(name string) string {
	return model.EventTag + "." + name
}

const statusListPath = model.EventTag + ".status_list"

// eventFields is the closed set of filterable event fields. status_list
// entries are list elements, so their fields are nested and path-relative.
var eventFields = query.NewTable(
	model.MetadataField(model.LastUpdateTimeTag),
	map[string]query.FieldSpec{
		"last_updated_time_ms": {Class: query.ClassRange, Path: model.MetadataField(model.LastUpdateTimeTag), Sortable: true},
		"created_time_ms":      {Class: query.ClassRange, Path: model.MetadataField(model.CreatedTimeTag), Sortable: true},

		"event_source.reference_id": {Class: query.ClassKeyword, Path: eventPath("event_source.reference_id"), Sortable: true},
		"event_source.feature":      {Class: query.ClassKeyword, Path: eventPath("event_source.feature"), Sortable: true},
		"event_source.severity":     {Class: query.ClassKeyword, Path: eventPath("event_source.severity"), Sortable: true},

		"event_source.title": {Class: query.ClassText, Path: eventPath("event_source.title")},
		"event_source.tags":  {Class: query.ClassText, Path: eventPath("event_source.tags")},

		"status_list.config_id":   {Class: query.ClassNestedKeyword, Path: "config_id", NestedPath: statusListPath},
		"status_list.config_type": {Class: query.ClassNestedKeyword, Path: "config_type", NestedPath: statusListPath},
		"status_list.config_name": {Class: query.ClassNestedText, Path: "config_name", NestedPath: statusListPath},
		"status_list.delivery_status.status_code": {Class: query.ClassNestedKeyword,
			Path: "delivery_status.status_code", NestedPath: statusListPath},
		"status_list.delivery_status.status_text": {Class: query.ClassNestedText,
			Path: "delivery_status.status_text", NestedPath: statusListPath},
		"status_list.email_recipient_status.recipient": {Class: query.ClassNestedText,
			Path: "email_recipient_status.recipient", NestedPath: statusListPath},
		"status_list.email_recipient_status.delivery_status.status_code": {Class: query.ClassNestedKeyword,
			Path: "email_recipient_status.delivery_status.status_code", NestedPath: statusListPath},
		"status_list.email_recipient_status.delivery_status.status_text": {Class: query.ClassNestedText,
			Path: "email_recipient_status.delivery_status.status_text", NestedPath: statusListPath},
	},
)
