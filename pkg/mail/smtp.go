package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/pixelvide/resume-mailer/pkg/config"
)

const dialTimeout = 30 * time.Second

// Client is the part of *smtp.Client the mailer drives
type Client interface {
	Extension(ext string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// DialFunc opens a client session with the relay at addr
type DialFunc func(ctx context.Context, addr, host string) (Client, error)

// SMTPMailer implements Mailer over STARTTLS with PLAIN authentication
type SMTPMailer struct {
	cfg  config.SMTPConfig
	dial DialFunc
}

// Option configures an SMTPMailer
type Option func(*SMTPMailer)

// WithDialer replaces the network dialer, mainly for tests
func WithDialer(dial DialFunc) Option {
	return func(m *SMTPMailer) {
		m.dial = dial
	}
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg config.SMTPConfig, opts ...Option) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, dial: dialRelay}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func dialRelay(ctx context.Context, addr, host string) (Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// Send submits msg to its single recipient. The returned error is a
// *SendError tagged with the failure kind.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if msg.From == "" {
		msg.From = m.cfg.Username
	}

	fromAddr, err := parseEmailAddress(msg.From)
	if err != nil {
		return &SendError{Kind: KindUnexpected, Stage: StageBuild, Err: fmt.Errorf("invalid from address: %w", err)}
	}

	body, err := msg.Bytes()
	if err != nil {
		return &SendError{Kind: KindUnexpected, Stage: StageBuild, Err: err}
	}

	client, err := m.dial(ctx, m.cfg.Addr(), m.cfg.Host)
	if err != nil {
		return classify(StageConnect, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return &SendError{Kind: KindRelay, Stage: StageStartTLS, Err: ErrNoStartTLS}
	}
	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
		return classify(StageStartTLS, err)
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return classify(StageAuth, err)
	}

	if err := client.Mail(fromAddr); err != nil {
		return classify(StageMail, err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return classify(StageRcpt, fmt.Errorf("failed to set recipient %s: %w", msg.To, err))
	}

	w, err := client.Data()
	if err != nil {
		return classify(StageData, err)
	}
	if _, err := w.Write(body); err != nil {
		return classify(StageData, fmt.Errorf("failed to write message: %w", err))
	}
	// the relay's verdict on the message arrives when the writer is closed
	if err := w.Close(); err != nil {
		return classify(StageData, err)
	}

	_ = client.Quit()
	return nil
}
