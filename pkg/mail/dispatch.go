package mail

import (
	"context"
	"errors"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Request describes one message to dispatch
type Request struct {
	From           string
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// Result is the outcome of a single Dispatch
type Result struct {
	OK   bool
	Kind Kind
	Err  error
}

// Dispatch builds the message for req, attaches the file at
// req.AttachmentPath when it exists and makes exactly one send attempt.
// Failures are logged and reported in the Result, never returned.
func Dispatch(ctx context.Context, mailer Mailer, req Request) Result {
	logger := zerolog.Ctx(ctx)

	msg := NewMessage(req.From, req.To, req.Subject, req.Body)
	if req.AttachmentPath != "" {
		msg.Attachment = attach(ctx, req.AttachmentPath)
	}

	err := mailer.Send(ctx, msg)
	if err == nil {
		return Result{OK: true}
	}

	kind := KindOf(err)
	switch kind {
	case KindAuth:
		logger.Error().Err(err).Msg("Authentication failed. Check your Gmail app password.")
		logger.Info().Msg("Make sure you're using an App Password, not your regular password.")
	case KindRecipient:
		logger.Error().Err(err).Str("to", req.To).Msgf("Recipient email address rejected: %s", req.To)
	case KindRelay:
		logger.Error().Err(err).Msg("SMTP error")
	default:
		logger.Error().Err(err).Msg("Unexpected error sending email")
	}

	return Result{Kind: kind, Err: err}
}

// attach loads the attachment, returning nil when it is missing or
// unreadable so the message goes out without it.
func attach(ctx context.Context, path string) *Attachment {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("Attachment not found, sending without it")
		return nil
	}

	a, err := LoadAttachment(path)
	if err != nil {
		logger.Warn().Err(err).Msg("Warning: Could not attach file")
		return nil
	}

	logger.Info().
		Str("content_type", a.ContentType).
		Str("size", humanize.Bytes(uint64(len(a.Content)))).
		Msgf("Attached file: %s", a.Filename)
	return a
}
