package infra

import (
	"fmt"
	"net/smtp"

	"eventpay/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends confirmation emails and receipt attachments through a plain
// SMTP relay. Delivery runs inside the email worker behind the circuit
// breaker; Mailer itself does no retrying.
type Mailer struct {
	cfg  *config.Config
	addr string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Send delivers a plain-text email, attaching the file at pdfPath when given.
func (m *Mailer) Send(to, subject, body, pdfPath string) error {
	msg := email.NewEmail()
	msg.From = m.cfg.SMTPUser
	msg.To = []string{to}
	msg.Subject = subject
	msg.Text = []byte(body)

	if pdfPath != "" {
		if _, err := msg.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("attach %s: %w", pdfPath, err)
		}
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	return msg.Send(m.addr, auth)
}
