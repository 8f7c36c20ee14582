package email

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client      *resend.Client
	defaultFrom string
}

// NewResendSender creates a ResendSender. defaultFrom is used for messages without a From.
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, defaultFrom string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), defaultFrom: defaultFrom}
}

func toResend(msg Message, defaultFrom string) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if req.From == "" {
		req.From = defaultFrom
	}
	if msg.Ref != "" {
		// A unique reference keeps mail clients from threading unrelated notices.
		req.Headers = map[string]string{"X-Entity-Ref-ID": msg.Ref}
	}
	names := make([]string, 0, len(msg.Tags))
	for name := range msg.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: msg.Tags[name]})
	}
	return req
}

// Send submits msg to Resend.
// PRE: msg has at least one recipient
// POST: Returns the Resend email id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, toResend(msg, s.defaultFrom))
	if err != nil {
		slog.Error("notice_event", "event", "send_failed", "provider", "resend", "ref", msg.Ref, "error", err)
		return Receipt{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("notice_event", "event", "sent", "provider", "resend", "id", sent.Id, "ref", msg.Ref, "recipients", len(msg.To))
	return Receipt{ID: sent.Id, Accepted: time.Now()}, nil
}
