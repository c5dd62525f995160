package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

//go:embed template.html
var templateFS embed.FS

var alertTemplate = template.Must(template.ParseFS(templateFS, "template.html"))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPNotifier sends alert batches as an HTML email.
type SMTPNotifier struct {
	cfg      SMTPConfig
	sendMail sendFunc
	now      func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
}

type templateData struct {
	Subject     string
	GeneratedAt string
	Overdue     int
	DueSoon     int
	Alerts      []AlertItem
}

func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject string, alerts []AlertItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipients := splitRecipients(recipient)
	if len(recipients) == 0 {
		return fmt.Errorf("no notification recipient")
	}

	body, err := renderAlerts(subject, n.now(), alerts)
	if err != nil {
		return err
	}

	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&message, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&message, "Subject: %s\r\n", subject)
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.sendMail(addr, auth, n.cfg.From, recipients, message.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func renderAlerts(subject string, generatedAt time.Time, alerts []AlertItem) (string, error) {
	data := templateData{
		Subject:     subject,
		GeneratedAt: generatedAt.Format("2006-01-02 15:04 MST"),
		Alerts:      alerts,
	}
	for _, alert := range alerts {
		if alert.Severity == "OVERDUE" {
			data.Overdue++
		} else {
			data.DueSoon++
		}
	}

	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}

func splitRecipients(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
