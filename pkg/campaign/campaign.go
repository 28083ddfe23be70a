// Package campaign drives one run of application emails over a contact list.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pixelvide/resume-mailer/pkg/compose"
	"github.com/pixelvide/resume-mailer/pkg/config"
	"github.com/pixelvide/resume-mailer/pkg/contact"
	"github.com/pixelvide/resume-mailer/pkg/mail"
	"github.com/pixelvide/resume-mailer/pkg/telemetry"
)

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration)

// Summary tallies the outcome of a run
type Summary struct {
	Sent   int
	Failed int
	Total  int
}

// OK reports whether at least one email was accepted by the relay
func (s Summary) OK() bool {
	return s.Sent > 0
}

// Runner sends one email per contact, in order, pausing between sends
type Runner struct {
	Mailer         mail.Mailer
	From           string
	AttachmentPath string
	Delay          time.Duration
	Sleep          SleepFunc
	Tracer         trace.Tracer
}

// Option configures a Runner
type Option func(*Runner)

// WithSleep replaces the pause implementation
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) {
		r.Sleep = fn
	}
}

// WithTracer sets the tracer used for run and contact spans
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		r.Tracer = t
	}
}

// New creates a Runner for cfg that submits through mailer
func New(cfg config.CampaignConfig, mailer mail.Mailer, opts ...Option) *Runner {
	r := &Runner{
		Mailer:         mailer,
		From:           cfg.SenderEmail,
		AttachmentPath: cfg.ResumeFile,
		Delay:          cfg.Delay,
		Sleep:          sleep,
		Tracer:         noop.NewTracerProvider().Tracer("campaign"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run sends to every contact and returns the tally. A run over no
// contacts does nothing and is not OK.
func (r *Runner) Run(ctx context.Context, contacts []contact.Contact) Summary {
	logger := telemetry.LoggerFromContext(ctx).With().Str("run_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	summary := Summary{Total: len(contacts)}
	if len(contacts) == 0 {
		logger.Error().Msg("No contacts to send to, aborting campaign")
		return summary
	}

	ctx, span := r.Tracer.Start(ctx, "campaign.run", trace.WithAttributes(
		attribute.Int("campaign.total", len(contacts)),
	))
	defer span.End()

	logger.Info().
		Str("from", r.From).
		Str("resume", r.AttachmentPath).
		Msgf("Starting email campaign to %d HR contacts", len(contacts))

	for i, c := range contacts {
		if r.process(ctx, i+1, len(contacts), c) {
			summary.Sent++
		} else {
			summary.Failed++
		}

		if i < len(contacts)-1 {
			logger.Debug().Dur("delay", r.Delay).Msg("Waiting before next email")
			r.Sleep(ctx, r.Delay)
		}
	}

	span.SetAttributes(
		attribute.Int("campaign.sent", summary.Sent),
		attribute.Int("campaign.failed", summary.Failed),
	)
	if !summary.OK() {
		span.SetStatus(codes.Error, "no email sent")
	}

	r.report(ctx, summary)
	return summary
}

// process handles one contact. A panic is recovered and counts as a failure.
func (r *Runner) process(ctx context.Context, pos, total int, c contact.Contact) (ok bool) {
	logger := zerolog.Ctx(ctx).With().
		Int("position", pos).
		Int("total", total).
		Str("email", c.Email).
		Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := r.Tracer.Start(ctx, "campaign.contact", trace.WithAttributes(
		attribute.Int("campaign.position", pos),
		attribute.String("contact.company", c.Company),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			name := c.Name
			if name == "" {
				name = "Unknown"
			}
			logger.Error().Interface("panic", rec).Msgf("Error processing %s", name)
			span.SetStatus(codes.Error, fmt.Sprint(rec))
			ok = false
		}
	}()

	logger.Info().Msgf("[%d/%d] Processing %s at %s", pos, total, c.Name, c.Company)

	body, err := compose.Body(c.Name, c.Company)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate email content")
		span.SetStatus(codes.Error, err.Error())
		return false
	}

	logger.Info().Msg("Sending email...")
	res := mail.Dispatch(ctx, r.Mailer, mail.Request{
		From:           r.From,
		To:             c.Email,
		Subject:        compose.Subject(c.Company),
		Body:           body,
		AttachmentPath: r.AttachmentPath,
	})
	if !res.OK {
		logger.Error().Str("kind", res.Kind.String()).Msg("Email sending failed!")
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Kind.String())
		return false
	}

	logger.Info().Msg("Email sent successfully!")
	return true
}

func (r *Runner) report(ctx context.Context, s Summary) {
	logger := zerolog.Ctx(ctx)

	logger.Info().
		Int("sent", s.Sent).
		Int("failed", s.Failed).
		Int("total", s.Total).
		Msg("EMAIL CAMPAIGN SUMMARY")

	if s.Sent > 0 {
		logger.Info().Msgf("Successfully sent %d personalized emails!", s.Sent)
		logger.Info().Msg("Check your Gmail Sent folder to confirm delivery.")
	}
	if s.Failed > 0 {
		logger.Warn().Msgf("%d emails failed to send.", s.Failed)
		logger.Info().Msg("Check your internet connection and Gmail app password.")
	}
}
