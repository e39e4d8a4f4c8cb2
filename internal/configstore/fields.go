package configstore

import (
	"notifstore/internal/model"
	"notifstore/internal/query"
)

func configPath(name string) string {
	return model.ConfigTag + "." + name
}

// configFields is the closed set of filterable config fields. External names
// follow the API surface, paths the stored document layout.
var configFields = query.NewTable(
	model.MetadataField(model.LastUpdateTimeTag),
	map[string]query.FieldSpec{
		"last_updated_time_ms": {Class: query.ClassRange, Path: model.MetadataField(model.LastUpdateTimeTag), Sortable: true},
		"created_time_ms":      {Class: query.ClassRange, Path: model.MetadataField(model.CreatedTimeTag), Sortable: true},

		"is_enabled": {Class: query.ClassBoolean, Path: configPath("is_enabled"), Sortable: true},

		"config_type":               {Class: query.ClassKeyword, Path: configPath("config_type"), Sortable: true},
		"feature_list":              {Class: query.ClassKeyword, Path: configPath("feature_list")},
		"email.email_account_id":    {Class: query.ClassKeyword, Path: configPath("email.email_account_id")},
		"email.email_group_id_list": {Class: query.ClassKeyword, Path: configPath("email.email_group_id_list")},
		"email.recipient_list":      {Class: query.ClassKeyword, Path: configPath("email.recipient_list")},
		"email_group.recipient_list": {Class: query.ClassKeyword,
			Path: configPath("email_group.recipient_list")},
		"smtp_account.method": {Class: query.ClassKeyword, Path: configPath("smtp_account.method")},

		"name":                      {Class: query.ClassText, Path: configPath("name"), Sortable: true},
		"description":               {Class: query.ClassText, Path: configPath("description")},
		"slack.url":                 {Class: query.ClassText, Path: configPath("slack.url")},
		"chime.url":                 {Class: query.ClassText, Path: configPath("chime.url")},
		"webhook.url":               {Class: query.ClassText, Path: configPath("webhook.url")},
		"smtp_account.host":         {Class: query.ClassText, Path: configPath("smtp_account.host")},
		"smtp_account.from_address": {Class: query.ClassText, Path: configPath("smtp_account.from_address")},
		"sns.topic_arn":             {Class: query.ClassText, Path: configPath("sns.topic_arn")},
		"sns.role_arn":              {Class: query.ClassText, Path: configPath("sns.role_arn")},
	},
)
