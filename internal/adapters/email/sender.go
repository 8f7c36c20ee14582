// Package email delivers change notices to conference staff.
package email

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Message is one rendered change notice.
type Message struct {
	From    string
	ReplyTo string
	To      []string
	Subject string
	HTML    string
	Text    string
	// Tags label the message for provider-side filtering, e.g. category=room.
	Tags map[string]string
	// Ref identifies the audit event the notice was rendered from.
	Ref string
}

// Receipt is the provider's acknowledgement of a message.
type Receipt struct {
	ID       string
	Accepted time.Time
}

// Sender hands messages to a delivery provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// LogSender writes messages to the log instead of delivering them.
// main falls back to it when no provider key is configured.
type LogSender struct {
	now func() time.Time
}

func NewLogSender() *LogSender {
	return &LogSender{now: time.Now}
}

// Send logs msg and acknowledges it with a local id.
func (s *LogSender) Send(_ context.Context, msg Message) (Receipt, error) {
	at := s.now()
	slog.Info("notice_event", "event", "not_delivered", "to", msg.To, "subject", msg.Subject, "ref", msg.Ref)
	return Receipt{ID: "log-" + strconv.FormatInt(at.UnixNano(), 36), Accepted: at}, nil
}
