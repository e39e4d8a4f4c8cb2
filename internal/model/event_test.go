package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() NotificationEvent {
	return NotificationEvent{
		EventSource: EventSource{
			Title:       "cpu usage above threshold",
			ReferenceID: "monitor-7",
			Feature:     "alerting",
			Severity:    SeverityHigh,
		},
		StatusList: []ChannelStatus{
			{
				ConfigID:       "cfg-1",
				ConfigName:     "ops slack",
				ConfigType:     ConfigTypeSlack,
				DeliveryStatus: &DeliveryStatus{StatusCode: "200", StatusText: "Success"},
			},
		},
	}
}

func TestEventValidateOK(t *testing.T) {
	e := validEvent()
	require.NoError(t, e.Validate())
}

func TestEventValidateEmptyTitle(t *testing.T) {
	e := validEvent()
	e.EventSource.Title = ""
	assert.Error(t, e.Validate())
}

func TestEventValidateEmptyStatusList(t *testing.T) {
	e := validEvent()
	e.StatusList = nil
	assert.Error(t, e.Validate())
}

func TestChannelStatusNonChannelTypeRejected(t *testing.T) {
	st := ChannelStatus{
		ConfigID:       "cfg-1",
		ConfigType:     ConfigTypeSmtpAccount,
		DeliveryStatus: &DeliveryStatus{StatusCode: "200", StatusText: "Success"},
	}
	assert.Error(t, st.Validate(), "supporting config types are not delivery channels")
}

func TestEmailChannelStatusRequiresRecipients(t *testing.T) {
	st := ChannelStatus{
		ConfigID:   "cfg-1",
		ConfigType: ConfigTypeEmail,
	}
	assert.Error(t, st.Validate())

	st.EmailRecipientStatus = []EmailRecipientStatus{
		{Recipient: "team@example.com", DeliveryStatus: DeliveryStatus{StatusCode: "200", StatusText: "Success"}},
	}
	assert.NoError(t, st.Validate())
}

func TestNonEmailChannelStatusRequiresDeliveryStatus(t *testing.T) {
	st := ChannelStatus{ConfigID: "cfg-1", ConfigType: ConfigTypeWebhook}
	assert.Error(t, st.Validate())

	st.DeliveryStatus = &DeliveryStatus{StatusCode: "500", StatusText: "Failed"}
	assert.NoError(t, st.Validate())
}
