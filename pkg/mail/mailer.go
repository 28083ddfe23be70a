package mail

import (
	"context"
	"time"
)

// Message represents an email message
type Message struct {
	From       string
	To         string
	Subject    string
	Body       string // plain text
	Attachment *Attachment
	MessageID  string
	Date       time.Time
}

// Attachment is a file carried alongside the message body
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailer is the interface for sending emails
type Mailer interface {
	// Send submits the given message. A nil error means the relay
	// accepted it for delivery.
	Send(ctx context.Context, msg *Message) error
}
