package model

import (
	"fmt"
	"net/url"
	"strings"
)

// ConfigType identifies the delivery payload a notification config carries.
type ConfigType string

const (
	ConfigTypeNone        ConfigType = "none"
	ConfigTypeSlack       ConfigType = "slack"
	ConfigTypeChime       ConfigType = "chime"
	ConfigTypeWebhook     ConfigType = "webhook"
	ConfigTypeEmail       ConfigType = "email"
	ConfigTypeSNS         ConfigType = "sns"
	ConfigTypeSmtpAccount ConfigType = "smtp_account"
	ConfigTypeEmailGroup  ConfigType = "email_group"
)

// ChannelConfigTypes are the config types that can act as delivery channels.
// Supporting types such as smtp_account and email_group are referenced by
// channels but are not channels themselves.
var ChannelConfigTypes = map[ConfigType]bool{
	ConfigTypeSlack:   true,
	ConfigTypeChime:   true,
	ConfigTypeWebhook: true,
	ConfigTypeEmail:   true,
}

var validConfigTypes = map[ConfigType]bool{
	ConfigTypeSlack:       true,
	ConfigTypeChime:       true,
	ConfigTypeWebhook:     true,
	ConfigTypeEmail:       true,
	ConfigTypeSNS:         true,
	ConfigTypeSmtpAccount: true,
	ConfigTypeEmailGroup:  true,
}

// IsValidConfigType reports whether t names a creatable config type.
// "none" is a sentinel for unparsed payloads and is never creatable.
func IsValidConfigType(t ConfigType) bool {
	return validConfigTypes[t]
}

// Slack delivers to a Slack incoming webhook.
type Slack struct {
	URL string `json:"url" bson:"url"`
}

func (s *Slack) Validate() error {
	if err := validateURL(s.URL); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if !strings.Contains(s.URL, "hooks.slack.com/services") {
		return fmt.Errorf("invalid Slack url: %s", s.URL)
	}
	return nil
}

// Chime delivers to an Amazon Chime incoming webhook.
type Chime struct {
	URL string `json:"url" bson:"url"`
}

func (c *Chime) Validate() error {
	if err := validateURL(c.URL); err != nil {
		return fmt.Errorf("chime: %w", err)
	}
	if !strings.Contains(c.URL, "hooks.chime.aws/incomingwebhooks/") || !strings.Contains(c.URL, "token=") {
		return fmt.Errorf("invalid Chime url: %s", c.URL)
	}
	return nil
}

// Webhook delivers to a generic HTTP endpoint.
type Webhook struct {
	URL          string            `json:"url" bson:"url"`
	HeaderParams map[string]string `json:"header_params,omitempty" bson:"header_params,omitempty"`
	Method       string            `json:"method,omitempty" bson:"method,omitempty"`
}

func (w *Webhook) Validate() error {
	if err := validateURL(w.URL); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// Email delivers through a configured SMTP account to a set of recipients
// and recipient groups. The account and groups are references to other
// configs by id.
type Email struct {
	EmailAccountID     string   `json:"email_account_id" bson:"email_account_id"`
	DefaultRecipients  []string `json:"recipient_list" bson:"recipient_list"`
	DefaultEmailGroups []string `json:"email_group_id_list" bson:"email_group_id_list"`
}

func (e *Email) Validate() error {
	if e.EmailAccountID == "" {
		return fmt.Errorf("email account id is empty")
	}
	for _, gid := range e.DefaultEmailGroups {
		if gid == e.EmailAccountID {
			return fmt.Errorf("config %s used both as account and as group", gid)
		}
	}
	for _, r := range e.DefaultRecipients {
		if err := validateEmailAddress(r); err != nil {
			return err
		}
	}
	return nil
}

// ReferencedConfigIDs returns the ids of all configs this email config
// depends on. The result is never nil.
func (e *Email) ReferencedConfigIDs() []string {
	ids := make([]string, 0, len(e.DefaultEmailGroups)+1)
	ids = append(ids, e.EmailAccountID)
	ids = append(ids, e.DefaultEmailGroups...)
	return ids
}

// SNS delivers to an AWS SNS topic.
type SNS struct {
	TopicARN string `json:"topic_arn" bson:"topic_arn"`
	RoleARN  string `json:"role_arn,omitempty" bson:"role_arn,omitempty"`
}

func (s *SNS) Validate() error {
	if !strings.HasPrefix(s.TopicARN, "arn:") {
		return fmt.Errorf("invalid topic arn: %s", s.TopicARN)
	}
	return nil
}

// SmtpAccount holds SMTP connection details used by email configs.
type SmtpAccount struct {
	Host        string `json:"host" bson:"host"`
	Port        int    `json:"port" bson:"port"`
	Method      string `json:"method" bson:"method"`
	FromAddress string `json:"from_address" bson:"from_address"`
}

var smtpMethods = map[string]bool{"none": true, "ssl": true, "start_tls": true}

func (s *SmtpAccount) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("smtp host is empty")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid smtp port: %d", s.Port)
	}
	if !smtpMethods[s.Method] {
		return fmt.Errorf("invalid smtp method: %s", s.Method)
	}
	return validateEmailAddress(s.FromAddress)
}

// EmailGroup names a reusable list of recipients.
type EmailGroup struct {
	Recipients []string `json:"recipient_list" bson:"recipient_list"`
}

func (g *EmailGroup) Validate() error {
	for _, r := range g.Recipients {
		if err := validateEmailAddress(r); err != nil {
			return err
		}
	}
	return nil
}

// NotificationConfig is the user-facing configuration document. Exactly one
// payload field must be set and it must match ConfigType.
type NotificationConfig struct {
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description,omitempty" bson:"description"`
	ConfigType  ConfigType `json:"config_type" bson:"config_type"`
	Features    []string   `json:"feature_list" bson:"feature_list"`
	IsEnabled   bool       `json:"is_enabled" bson:"is_enabled"`

	Slack       *Slack       `json:"slack,omitempty" bson:"slack,omitempty"`
	Chime       *Chime       `json:"chime,omitempty" bson:"chime,omitempty"`
	Webhook     *Webhook     `json:"webhook,omitempty" bson:"webhook,omitempty"`
	Email       *Email       `json:"email,omitempty" bson:"email,omitempty"`
	SNS         *SNS         `json:"sns,omitempty" bson:"sns,omitempty"`
	SmtpAccount *SmtpAccount `json:"smtp_account,omitempty" bson:"smtp_account,omitempty"`
	EmailGroup  *EmailGroup  `json:"email_group,omitempty" bson:"email_group,omitempty"`
}

// payloads returns every set payload keyed by its config type.
func (c *NotificationConfig) payloads() map[ConfigType]interface{ Validate() error } {
	set := make(map[ConfigType]interface{ Validate() error })
	if c.Slack != nil {
		set[ConfigTypeSlack] = c.Slack
	}
	if c.Chime != nil {
		set[ConfigTypeChime] = c.Chime
	}
	if c.Webhook != nil {
		set[ConfigTypeWebhook] = c.Webhook
	}
	if c.Email != nil {
		set[ConfigTypeEmail] = c.Email
	}
	if c.SNS != nil {
		set[ConfigTypeSNS] = c.SNS
	}
	if c.SmtpAccount != nil {
		set[ConfigTypeSmtpAccount] = c.SmtpAccount
	}
	if c.EmailGroup != nil {
		set[ConfigTypeEmailGroup] = c.EmailGroup
	}
	return set
}

// Validate checks structural invariants: non-empty name, a creatable config
// type, exactly one payload matching that type, and payload-specific rules.
func (c *NotificationConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("config name is empty")
	}
	if !IsValidConfigType(c.ConfigType) {
		return fmt.Errorf("invalid config type: %s", c.ConfigType)
	}
	set := c.payloads()
	if len(set) != 1 {
		return fmt.Errorf("config must carry exactly one payload, found %d", len(set))
	}
	payload, ok := set[c.ConfigType]
	if !ok {
		return fmt.Errorf("payload does not match config type %s", c.ConfigType)
	}
	return payload.Validate()
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url: %s", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme: %s", u.Scheme)
	}
	return nil
}

func validateEmailAddress(addr string) error {
	at := strings.Index(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return fmt.Errorf("invalid email address: %s", addr)
	}
	return nil
}
