package model

import (
	"fmt"
	"strings"
)

// Severity grades a notification event source.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityInfo     Severity = "info"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EventSource describes the plugin-side origin of a notification event.
type EventSource struct {
	Title       string   `json:"title" bson:"title"`
	ReferenceID string   `json:"reference_id" bson:"reference_id"`
	Feature     string   `json:"feature" bson:"feature"`
	Severity    Severity `json:"severity" bson:"severity"`
	Tags        []string `json:"tags,omitempty" bson:"tags"`
}

func (s *EventSource) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("event source title is empty")
	}
	if s.Feature == "" {
		return fmt.Errorf("event source feature is empty")
	}
	return nil
}

// DeliveryStatus records the outcome of one delivery attempt.
type DeliveryStatus struct {
	StatusCode string `json:"status_code" bson:"status_code"`
	StatusText string `json:"status_text" bson:"status_text"`
}

// EmailRecipientStatus records a per-recipient delivery outcome for email
// channels, which fan out to many addresses.
type EmailRecipientStatus struct {
	Recipient      string         `json:"recipient" bson:"recipient"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" bson:"delivery_status"`
}

// ChannelStatus records the delivery result for one channel of an event.
type ChannelStatus struct {
	ConfigID             string                 `json:"config_id" bson:"config_id"`
	ConfigName           string                 `json:"config_name" bson:"config_name"`
	ConfigType           ConfigType             `json:"config_type" bson:"config_type"`
	EmailRecipientStatus []EmailRecipientStatus `json:"email_recipient_status,omitempty" bson:"email_recipient_status,omitempty"`
	DeliveryStatus       *DeliveryStatus        `json:"delivery_status,omitempty" bson:"delivery_status,omitempty"`
}

func (s *ChannelStatus) Validate() error {
	if s.ConfigID == "" {
		return fmt.Errorf("channel status config id is empty")
	}
	if !ChannelConfigTypes[s.ConfigType] {
		return fmt.Errorf("invalid channel status config type: %s", s.ConfigType)
	}
	if s.ConfigType == ConfigTypeEmail {
		if len(s.EmailRecipientStatus) == 0 {
			return fmt.Errorf("email channel status requires recipient status list")
		}
		return nil
	}
	if s.DeliveryStatus == nil {
		return fmt.Errorf("channel status requires delivery status")
	}
	return nil
}

// NotificationEvent is the stored record of one notification send.
type NotificationEvent struct {
	EventSource EventSource     `json:"event_source" bson:"event_source"`
	StatusList  []ChannelStatus `json:"status_list" bson:"status_list"`
}

func (e *NotificationEvent) Validate() error {
	if err := e.EventSource.Validate(); err != nil {
		return err
	}
	if len(e.StatusList) == 0 {
		return fmt.Errorf("event status list is empty")
	}
	for i := range e.StatusList {
		if err := e.StatusList[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
