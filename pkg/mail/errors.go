package mail

import (
	"errors"
	"fmt"
	"net/textproto"
)

var (
	// ErrNoStartTLS indicates the relay does not offer STARTTLS
	ErrNoStartTLS = errors.New("relay does not support STARTTLS")

	// ErrNoRecipient indicates the message has no recipient address
	ErrNoRecipient = errors.New("email must have a recipient")
)

// Kind classifies why a send failed
type Kind int

const (
	KindNone Kind = iota
	// KindAuth means the relay rejected the credentials
	KindAuth
	// KindRecipient means the relay refused the destination address
	KindRecipient
	// KindRelay is any other failure reported by the relay
	KindRelay
	// KindUnexpected covers local and network failures
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindRecipient:
		return "recipient"
	case KindRelay:
		return "relay"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Stage names the step of the SMTP conversation a failure happened in
type Stage string

const (
	StageBuild    Stage = "build"
	StageConnect  Stage = "connect"
	StageStartTLS Stage = "starttls"
	StageAuth     Stage = "auth"
	StageMail     Stage = "mail"
	StageRcpt     Stage = "rcpt"
	StageData     Stage = "data"
)

// SendError is returned by SMTPMailer.Send
type SendError struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("smtp %s failed: %v", e.Stage, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err. Errors that were not
// produced by a Mailer are unexpected.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// classify tags err based on the stage it happened in and whether the
// relay itself reported it.
func classify(stage Stage, err error) *SendError {
	var tpErr *textproto.Error
	kind := KindUnexpected
	if errors.As(err, &tpErr) {
		switch stage {
		case StageAuth:
			kind = KindAuth
		case StageRcpt:
			kind = KindRecipient
		default:
			kind = KindRelay
		}
	}
	return &SendError{Kind: kind, Stage: stage, Err: err}
}
