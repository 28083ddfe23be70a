package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultContentType = "application/octet-stream"

// compressed extensions make the guessed type describe the decoded file,
// not the bytes being sent
var compressedExts = map[string]bool{
	".gz":  true,
	".bz2": true,
	".xz":  true,
	".br":  true,
	".Z":   true,
}

// NewMessage creates a message with a fresh Message-ID and the current date
func NewMessage(from, to, subject, body string) *Message {
	return &Message{
		From:      from,
		To:        to,
		Subject:   subject,
		Body:      body,
		MessageID: newMessageID(from),
		Date:      time.Now(),
	}
}

func newMessageID(from string) string {
	domain := "localhost"
	if addr, err := parseEmailAddress(from); err == nil {
		if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
			domain = addr[at+1:]
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// LoadAttachment reads the file at path and guesses its content type
// from the extension.
func LoadAttachment(path string) (*Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return &Attachment{
		Filename:    filepath.Base(path),
		ContentType: guessContentType(path),
		Content:     content,
	}, nil
}

func guessContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" || compressedExts[ext] {
		return defaultContentType
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil || !strings.Contains(mediaType, "/") {
		return defaultContentType
	}
	return mediaType
}

// sanitize strips CR and LF so header values cannot inject new headers
func sanitize(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", "")
}

// Bytes renders the message as a multipart/mixed MIME document
func (m *Message) Bytes() ([]byte, error) {
	if m.To == "" {
		return nil, ErrNoRecipient
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var headers []string
	headers = append(headers, fmt.Sprintf("From: %s", sanitize(m.From)))
	headers = append(headers, fmt.Sprintf("To: %s", sanitize(m.To)))
	headers = append(headers, fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", sanitize(m.Subject))))
	headers = append(headers, fmt.Sprintf("Date: %s", date.Format(time.RFC1123Z)))
	if m.MessageID != "" {
		headers = append(headers, fmt.Sprintf("Message-ID: %s", sanitize(m.MessageID)))
	}
	headers = append(headers, "MIME-Version: 1.0")
	headers = append(headers, fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", mw.Boundary()))

	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")

	if err := writeTextPart(mw, m.Body); err != nil {
		return nil, err
	}
	if m.Attachment != nil {
		if err := writeAttachmentPart(mw, m.Attachment); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writeTextPart(mw *multipart.Writer, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", "text/plain; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create text part: %w", err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to write text part: %w", err)
	}
	return qp.Close()
}

func writeAttachmentPart(mw *multipart.Writer, a *Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", sanitize(contentType))
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": sanitize(a.Filename),
	}))

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(a.Content)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:76]); err != nil {
			return fmt.Errorf("failed to write attachment: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := fmt.Fprintf(part, "%s\r\n", encoded); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	return nil
}

// parseEmailAddress extracts the address part using net/mail
func parseEmailAddress(input string) (string, error) {
	addr, err := mail.ParseAddress(input)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}
