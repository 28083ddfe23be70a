package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelvide/resume-mailer/pkg/config"
)

// fakeClient records the SMTP conversation and fails the steps listed in errs
type fakeClient struct {
	noStartTLS bool
	errs       map[string]error
	calls      []string
	data       bytes.Buffer
	closed     bool
}

func (c *fakeClient) Extension(ext string) (bool, string) {
	if ext == "STARTTLS" {
		return !c.noStartTLS, ""
	}
	return false, ""
}

func (c *fakeClient) StartTLS(*tls.Config) error {
	c.calls = append(c.calls, "STARTTLS")
	return c.errs["STARTTLS"]
}

func (c *fakeClient) Auth(smtp.Auth) error {
	c.calls = append(c.calls, "AUTH")
	return c.errs["AUTH"]
}

func (c *fakeClient) Mail(from string) error {
	c.calls = append(c.calls, "MAIL "+from)
	return c.errs["MAIL"]
}

func (c *fakeClient) Rcpt(to string) error {
	c.calls = append(c.calls, "RCPT "+to)
	return c.errs["RCPT"]
}

type dataWriter struct {
	c *fakeClient
}

func (w dataWriter) Write(p []byte) (int, error) { return w.c.data.Write(p) }
func (w dataWriter) Close() error { return w.c.errs["DATA_END"] }

func (c *fakeClient) Data() (io.WriteCloser, error) {
	c.calls = append(c.calls, "DATA")
	if err := c.errs["DATA"]; err != nil {
		return nil, err
	}
	return dataWriter{c: c}, nil
}

func (c *fakeClient) Quit() error {
	c.calls = append(c.calls, "QUIT")
	return nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func testConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "me@example.com",
		Password: "app-pass",
	}
}

func newTestMailer(client *fakeClient) (*SMTPMailer, *[]string) {
	var dialed []string
	m := NewSMTPMailer(testConfig(), WithDialer(func(ctx context.Context, addr, host string) (Client, error) {
		dialed = append(dialed, addr+" "+host)
		return client, nil
	}))
	return m, &dialed
}

func testMessage() *Message {
	return NewMessage("Me <me@example.com>", "hr@acme.com", "Hello", "Body text")
}

func TestSMTPMailer_Send(t *testing.T) {
	client := &fakeClient{}
	m, dialed := newTestMailer(client)

	err := m.Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, []string{"smtp.example.com:587 smtp.example.com"}, *dialed)
	assert.Equal(t, []string{"STARTTLS", "AUTH", "MAIL me@example.com", "RCPT hr@acme.com", "DATA", "QUIT"}, client.calls)
	assert.True(t, client.closed)
	assert.Contains(t, client.data.String(), "To: hr@acme.com\r\n")
}

func TestSMTPMailer_SendDefaultsFrom(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestMailer(client)

	msg := &Message{To: "hr@acme.com", Subject: "Hi", Body: "Body"}
	require.NoError(t, m.Send(context.Background(), msg))

	assert.Equal(t, "me@example.com", msg.From)
	assert.Contains(t, client.calls, "MAIL me@example.com")
}

func TestSMTPMailer_SendFailures(t *testing.T) {
	relayErr := func(code int, msg string) error {
		return &textproto.Error{Code: code, Msg: msg}
	}

	tests := []struct {
		name      string
		client    *fakeClient
		wantKind  Kind
		wantStage Stage
		wantCalls int
	}{
		{
			name:      "no starttls",
			client:    &fakeClient{noStartTLS: true},
			wantKind:  KindRelay,
			wantStage: StageStartTLS,
			wantCalls: 0,
		},
		{
			name:      "starttls handshake",
			client:    &fakeClient{errs: map[string]error{"STARTTLS": errors.New("tls: handshake failure")}},
			wantKind:  KindUnexpected,
			wantStage: StageStartTLS,
			wantCalls: 1,
		},
		{
			name:      "credentials rejected",
			client:    &fakeClient{errs: map[string]error{"AUTH": relayErr(535, "5.7.8 Username and Password not accepted")}},
			wantKind:  KindAuth,
			wantStage: StageAuth,
			wantCalls: 2,
		},
		{
			name:      "sender refused",
			client:    &fakeClient{errs: map[string]error{"MAIL": relayErr(451, "try again later")}},
			wantKind:  KindRelay,
			wantStage: StageMail,
			wantCalls: 3,
		},
		{
			name:      "recipient refused",
			client:    &fakeClient{errs: map[string]error{"RCPT": relayErr(550, "5.1.1 user unknown")}},
			wantKind:  KindRecipient,
			wantStage: StageRcpt,
			wantCalls: 4,
		},
		{
			name:      "recipient network failure",
			client:    &fakeClient{errs: map[string]error{"RCPT": io.ErrUnexpectedEOF}},
			wantKind:  KindUnexpected,
			wantStage: StageRcpt,
			wantCalls: 4,
		},
		{
			name:      "message refused",
			client:    &fakeClient{errs: map[string]error{"DATA_END": relayErr(552, "message too large")}},
			wantKind:  KindRelay,
			wantStage: StageData,
			wantCalls: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMailer(tt.client)

			err := m.Send(context.Background(), testMessage())
			require.Error(t, err)

			var se *SendError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Len(t, tt.client.calls, tt.wantCalls)
			assert.NotContains(t, tt.client.calls, "QUIT")
			assert.True(t, tt.client.closed)
		})
	}
}

func TestSMTPMailer_SendDialFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{name: "network", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, wantKind: KindUnexpected},
		{name: "greeting", err: &textproto.Error{Code: 421, Msg: "service not available"}, wantKind: KindRelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSMTPMailer(testConfig(), WithDialer(func(context.Context, string, string) (Client, error) {
				return nil, tt.err
			}))

			err := m.Send(context.Background(), testMessage())
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestSMTPMailer_SendInvalidFrom(t *testing.T) {
	client := &fakeClient{}
	m, dialed := newTestMailer(client)

	msg := testMessage()
	msg.From = "Invalid <me@example.com"

	err := m.Send(context.Background(), msg)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.Empty(t, *dialed)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, KindAuth, KindOf(&SendError{Kind: KindAuth, Stage: StageAuth, Err: errors.New("no")}))
	assert.Equal(t, "recipient", KindRecipient.String())
}

func readMessage(t *testing.T, raw []byte) (*mail.Message, []*multipart.Part, [][]byte) {
	t.Helper()

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	var parts []*multipart.Part
	var bodies [][]byte
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, p)
		bodies = append(bodies, body)
	}
	return msg, parts, bodies
}

func TestMessage_Bytes(t *testing.T) {
	msg := NewMessage("me@example.com", "hr@acme.com", "Frontend Internship Application – Acme", "Dear Jane,\n• React\n")
	msg.Date = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msg.Attachment = &Attachment{
		Filename:    "resume.pdf",
		ContentType: "application/pdf",
		Content:     bytes.Repeat([]byte("%PDF-1.4 "), 20),
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, parts, bodies := readMessage(t, raw)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Frontend Internship Application – Acme", subject)
	assert.Equal(t, "me@example.com", parsed.Header.Get("From"))
	assert.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))
	assert.Equal(t, "Sun, 01 Mar 2026 09:00:00 +0000", parsed.Header.Get("Date"))
	assert.True(t, strings.HasSuffix(parsed.Header.Get("Message-ID"), "@example.com>"))

	require.Len(t, parts, 2)
	assert.Equal(t, "Dear Jane,\r\n• React\r\n", string(bodies[0]))

	assert.Equal(t, "application/pdf", parts[1].Header.Get("Content-Type"))
	assert.Equal(t, "resume.pdf", parts[1].FileName())
	decoded, err := base64.StdEncoding.DecodeString(string(bodies[1]))
	require.NoError(t, err)
	assert.Equal(t, msg.Attachment.Content, decoded)
	for _, line := range strings.Split(strings.TrimSpace(string(bodies[1])), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}

func TestMessage_BytesWithoutAttachment(t *testing.T) {
	raw, err := testMessage().Bytes()
	require.NoError(t, err)

	_, parts, _ := readMessage(t, raw)
	assert.Len(t, parts, 1)
}

func TestMessage_BytesSanitization(t *testing.T) {
	msg := testMessage()
	msg.To = "hr@acme.com\r\nBcc: victim@example.com"

	raw, err := msg.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "\r\nBcc:")
}

func TestMessage_BytesNoRecipient(t *testing.T) {
	_, err := (&Message{From: "me@example.com"}).Bytes()
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"resume.pdf", "application/pdf"},
		{"photo.png", "image/png"},
		{"resume.pdf.gz", "application/octet-stream"},
		{"resume", "application/octet-stream"},
		{"resume.nosuchext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, guessContentType(tt.path))
		})
	}
}

func TestLoadAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	a, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, &Attachment{Filename: "resume.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}, a)

	_, err = LoadAttachment(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
