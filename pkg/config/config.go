package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultSMTPHost is the relay every campaign submits through
	DefaultSMTPHost = "smtp.gmail.com"
	// DefaultSMTPPort is the relay's STARTTLS submission port
	DefaultSMTPPort = "587"
	// DefaultDelay is the pause between two consecutive sends
	DefaultDelay = 3 * time.Second
)

// ErrMissingField is returned by Validate when a required value is empty
var ErrMissingField = errors.New("missing required configuration")

// SMTPConfig holds the relay endpoint and the credentials used to authenticate
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Addr returns the host:port dial address of the relay
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CampaignConfig holds everything a single campaign run needs
type CampaignConfig struct {
	SenderEmail    string
	SenderPassword string
	CSVFile        string
	ResumeFile     string

	SMTPHost string
	SMTPPort string
	Delay    time.Duration
}

// Default returns a CampaignConfig with the fixed relay and pacing filled in
func Default() CampaignConfig {
	return CampaignConfig{
		SMTPHost: DefaultSMTPHost,
		SMTPPort: DefaultSMTPPort,
		Delay:    DefaultDelay,
	}
}

// SMTP returns the relay configuration, authenticating as the sender
func (c CampaignConfig) SMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SenderEmail,
		Password: c.SenderPassword,
	}
}

// Validate checks that every operator supplied value is present
func (c CampaignConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.SenderEmail) == "" {
		missing = append(missing, "sender_email")
	}
	if c.SenderPassword == "" {
		missing = append(missing, "gmail_password")
	}
	if strings.TrimSpace(c.CSVFile) == "" {
		missing = append(missing, "csv_file")
	}
	if strings.TrimSpace(c.ResumeFile) == "" {
		missing = append(missing, "resume_file")
	}
	if c.SMTPHost == "" || c.SMTPPort == "" {
		missing = append(missing, "smtp relay")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	return nil
}
