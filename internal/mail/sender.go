package mail

import "log/slog"

type Message struct {
	From    string
	To      []string
	Cc      []string
	Subject string
	Body    string
	IsHTML  bool
}

type MailSender interface {
	Send(message *Message) error
}

// LogMailSender writes messages to the structured log instead of delivering them.
type LogMailSender struct{}

func (LogMailSender) Send(message *Message) error {
	slog.Warn("Mail not delivered, no mail backend configured",
		"to", message.To,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
