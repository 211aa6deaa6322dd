package mail

import (
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"text/template"

	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"github.com/valyala/bytebufferpool"
)

//go:embed templates/*.txt
var templateFS embed.FS

var alertTemplate = template.Must(template.New("audit-alert.txt").
	Funcs(template.FuncMap{
		"deref": func(s *string) string { return *s },
	}).
	ParseFS(templateFS, "templates/audit-alert.txt"))

type alertData struct {
	Entry      *model.AuditLog
	WriteError string
	Time       string
}

func renderAlert(entry *model.AuditLog, writeErr error) (string, error) {
	data := alertData{
		Entry: entry,
		Time:  entry.CreatedAt.In(params.ReportLocation).Format("2006-01-02 15:04:05"),
	}
	if writeErr != nil {
		data.WriteError = writeErr.Error()
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := alertTemplate.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func alertSubject(entry *model.AuditLog, writeErr error) string {
	if writeErr != nil {
		return fmt.Sprintf("[klms] audit write failed: %s", entry.EventType)
	}
	return fmt.Sprintf("[klms] %s event: %s", entry.Severity, entry.EventType)
}

// AlertNotifier mails operator alerts for audit entries. Delivery runs in the background.
type AlertNotifier struct {
	sender MailSender
	to     []string
	wg     sync.WaitGroup
}

func (n *AlertNotifier) Notify(entry *model.AuditLog, writeErr error) {
	if len(n.to) == 0 {
		return
	}
	body, err := renderAlert(entry, writeErr)
	if err != nil {
		slog.Error("Failed to render audit alert", "eventType", entry.EventType, "error", err)
		return
	}
	msg := &Message{
		To:      n.to,
		Subject: alertSubject(entry, writeErr),
		Body:    body,
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.sender.Send(msg); err != nil {
			slog.Error("Failed to send audit alert", "eventType", entry.EventType, "error", err)
		}
	}()
}

// Wait blocks until all pending alerts are delivered or have failed.
func (n *AlertNotifier) Wait() {
	n.wg.Wait()
}

func NewAlertNotifier(sender MailSender, to []string) *AlertNotifier {
	return &AlertNotifier{
		sender: sender,
		to:     to,
	}
}
