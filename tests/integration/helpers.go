package integration

import (
	"time"

	"notifstore/internal/access"
	"notifstore/internal/backend"
	"notifstore/internal/logger"
	"notifstore/internal/model"
)

const containerStartupTimeout = 60

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestIndex(infra *TestInfra, collection string) *backend.MongoIndex {
	return backend.NewMongoIndex(infra.MongoDB, collection, 10*time.Second, createTestLogger())
}

func createSlackConfig(name string) model.NotificationConfig {
	return model.NotificationConfig{
		Name:       name,
		ConfigType: model.ConfigTypeSlack,
		Features:   []string{"alerting"},
		IsEnabled:  true,
		Slack:      &model.Slack{URL: "https://hooks.slack.com/services/T1/B1/" + name},
	}
}

func createChannelConfig(name string, configType model.ConfigType) model.NotificationConfig {
	cfg := model.NotificationConfig{
		Name:       name,
		ConfigType: configType,
		Features:   []string{"alerting"},
		IsEnabled:  true,
	}
	switch configType {
	case model.ConfigTypeSlack:
		cfg.Slack = &model.Slack{URL: "https://hooks.slack.com/services/T1/B1/" + name}
	case model.ConfigTypeChime:
		cfg.Chime = &model.Chime{URL: "https://hooks.chime.aws/incomingwebhooks/" + name + "?token=abc"}
	case model.ConfigTypeWebhook:
		cfg.Webhook = &model.Webhook{URL: "https://example.com/hook/" + name}
	case model.ConfigTypeSmtpAccount:
		cfg.SmtpAccount = &model.SmtpAccount{
			Host: "smtp.example.com", Port: 587, Method: "start_tls", FromAddress: "noreply@example.com",
		}
	case model.ConfigTypeEmailGroup:
		cfg.EmailGroup = &model.EmailGroup{Recipients: []string{"group@example.com"}}
	}
	return cfg
}

func createTestEvent(title, feature string, severity model.Severity) model.NotificationEvent {
	return model.NotificationEvent{
		EventSource: model.EventSource{
			Title:       title,
			ReferenceID: "ref-" + title,
			Feature:     feature,
			Severity:    severity,
		},
		StatusList: []model.ChannelStatus{
			{
				ConfigID:       "chan-1",
				ConfigName:     "ops slack",
				ConfigType:     model.ConfigTypeSlack,
				DeliveryStatus: &model.DeliveryStatus{StatusCode: "200", StatusText: "Success"},
			},
		},
	}
}

func userWithAccess(name, tenant string, roles ...string) *access.User {
	return &access.User{Name: name, Tenant: tenant, Access: roles}
}
