package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSlackConfig() NotificationConfig {
	return NotificationConfig{
		Name:       "ops alerts",
		ConfigType: ConfigTypeSlack,
		Features:   []string{"alerting"},
		IsEnabled:  true,
		Slack:      &Slack{URL: "https://hooks.slack.com/services/T0/B0/XYZ"},
	}
}

func TestConfigValidateOK(t *testing.T) {
	cfg := validSlackConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateEmptyName(t *testing.T) {
	cfg := validSlackConfig()
	cfg.Name = "  "
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateNoneTypeRejected(t *testing.T) {
	cfg := validSlackConfig()
	cfg.ConfigType = ConfigTypeNone
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateNoPayload(t *testing.T) {
	cfg := validSlackConfig()
	cfg.Slack = nil
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateTwoPayloads(t *testing.T) {
	cfg := validSlackConfig()
	cfg.Chime = &Chime{URL: "https://hooks.chime.aws/incomingwebhooks/abc?token=def"}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidatePayloadTypeMismatch(t *testing.T) {
	cfg := validSlackConfig()
	cfg.ConfigType = ConfigTypeChime
	assert.Error(t, cfg.Validate())
}

func TestSlackURLValidation(t *testing.T) {
	s := &Slack{URL: "https://example.com/webhook"}
	assert.Error(t, s.Validate(), "slack url must point at hooks.slack.com/services")

	s.URL = "https://hooks.slack.com/services/T0/B0/XYZ"
	assert.NoError(t, s.Validate())

	s.URL = "ftp://hooks.slack.com/services/T0"
	assert.Error(t, s.Validate())
}

func TestChimeURLValidation(t *testing.T) {
	c := &Chime{URL: "https://hooks.chime.aws/incomingwebhooks/abc"}
	assert.Error(t, c.Validate(), "chime url requires a token parameter")

	c.URL = "https://hooks.chime.aws/incomingwebhooks/abc?token=def"
	assert.NoError(t, c.Validate())
}

func TestEmailSelfReferenceRejected(t *testing.T) {
	e := &Email{
		EmailAccountID:     "acct-1",
		DefaultEmailGroups: []string{"group-1", "acct-1"},
	}
	assert.Error(t, e.Validate(), "account id must not appear in the group list")
}

func TestEmailRecipientValidation(t *testing.T) {
	e := &Email{EmailAccountID: "acct-1", DefaultRecipients: []string{"not-an-address"}}
	assert.Error(t, e.Validate())

	e.DefaultRecipients = []string{"team@example.com"}
	assert.NoError(t, e.Validate())
}

func TestEmailReferencedConfigIDs(t *testing.T) {
	e := &Email{EmailAccountID: "acct-1", DefaultEmailGroups: []string{"g1", "g2"}}
	assert.Equal(t, []string{"acct-1", "g1", "g2"}, e.ReferencedConfigIDs())
}

func TestSmtpAccountValidation(t *testing.T) {
	s := &SmtpAccount{Host: "smtp.example.com", Port: 587, Method: "start_tls", FromAddress: "noreply@example.com"}
	require.NoError(t, s.Validate())

	s.Port = 0
	assert.Error(t, s.Validate())

	s.Port = 587
	s.Method = "tls"
	assert.Error(t, s.Validate())
}

func TestSNSValidation(t *testing.T) {
	s := &SNS{TopicARN: "arn:aws:sns:us-east-1:123456789012:alerts"}
	require.NoError(t, s.Validate())

	s.TopicARN = "alerts"
	assert.Error(t, s.Validate())
}
