package alerts

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/torstats/torstats/server/internal/config"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// mailer delivers alert notifications over SMTP.
type mailer struct {
	from   string
	to     []string
	sender mailSender
}

func newMailer(cfg *config.EmailConfig) *mailer {
	if cfg == nil {
		return nil
	}
	return &mailer{
		from:   cfg.From,
		to:     cfg.To,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password()),
	}
}

func (m *mailer) send(a *Alert) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", fmt.Sprintf("%s torstats alert: %s", label(a), a.RuleName))
	msg.SetBody("text/plain", mailBody(a))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func mailBody(a *Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.Message)
	fmt.Fprintf(&b, "Rule:      %s\n", a.RuleName)
	fmt.Fprintf(&b, "Condition: %s\n", a.Condition)
	fmt.Fprintf(&b, "Severity:  %s\n", a.Severity)
	fmt.Fprintf(&b, "Value:     %.2f\n", a.Value)
	fmt.Fprintf(&b, "Fired at:  %s\n", a.FiredAt.UTC().Format("2006-01-02 15:04:05 MST"))
	if a.ResolvedAt != nil {
		fmt.Fprintf(&b, "Resolved:  %s\n", a.ResolvedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}
