package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"confsched/internal/domain/audit"
)

var noticeTemplate = template.Must(template.New("notice").Parse(`<p>{{.Actor}} {{.Verb}} {{.Resource}}{{if .ID}} #{{.ID}}{{end}}.</p>
{{if .Description}}<p>{{.Description}}</p>
{{end}}<p style="color:#666">{{.When}}</p>
`))

var noticeText = textTemplate.Must(textTemplate.New("notice").Parse(`{{.Actor}} {{.Verb}} {{.Resource}}{{if .ID}} #{{.ID}}{{end}}.
{{if .Description}}
{{.Description}}
{{end}}
{{.When}}
`))

// Notifier emails staff when a schedule resource changes.
// A Notifier with no recipients is silent.
type Notifier struct {
	sender     Sender
	from       string
	replyTo    string
	recipients []string
}

// NewNotifier creates a Notifier.
// PRE: sender is non-nil
func NewNotifier(sender Sender, from, replyTo string, recipients []string) *Notifier {
	return &Notifier{sender: sender, from: from, replyTo: replyTo, recipients: recipients}
}

// Enabled reports whether notices will be sent.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.recipients) > 0
}

// NotifyChange sends one notice describing event.
// POST: no-op when the notifier is disabled or event does not change schedule data
func (n *Notifier) NotifyChange(ctx context.Context, event audit.Event) error {
	if !n.Enabled() || !event.Action.Mutating() {
		return nil
	}
	req, err := n.render(event)
	if err != nil {
		return err
	}
	if _, err := n.sender.Send(ctx, req); err != nil {
		return fmt.Errorf("notify %s %s: %w", event.Action, event.Category, err)
	}
	return nil
}

func (n *Notifier) render(event audit.Event) (Message, error) {
	resource := event.Category.Label()
	verb := event.Action.PastTense()

	data := map[string]string{
		"Actor":       event.ActorEmail,
		"Verb":        verb,
		"Resource":    resource,
		"ID":          event.ResourceID,
		"Description": event.Description,
		"When":        event.Timestamp.UTC().Format("2 Jan 2006 15:04 MST"),
	}
	var html, text bytes.Buffer
	if err := noticeTemplate.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render notice: %w", err)
	}
	if err := noticeText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render notice: %w", err)
	}

	subject := fmt.Sprintf("[schedule] %s %s", resource, verb)
	if event.ResourceID != "" {
		subject += " #" + event.ResourceID
	}
	return Message{
		From:    n.from,
		ReplyTo: n.replyTo,
		To:      n.recipients,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
		Tags:    map[string]string{"category": string(event.Category), "action": string(event.Action)},
		Ref:     event.ID,
	}, nil
}
