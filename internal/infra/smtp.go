package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailDisabled is returned by SendInvoice when no SMTP host is configured.
var ErrMailDisabled = errors.New("mailer: smtp not configured")

// Mailer sends rendered invoices to customers as PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		send:     func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// SendInvoice mails body to `to` with the PDF at pdfPath attached. Servers
// without auth get a nil smtp.Auth.
func (m *Mailer) SendInvoice(to, subject, body, pdfPath string) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	e, err := m.compose(to, subject, body, pdfPath)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := m.send(e, m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) compose(to, subject, body, pdfPath string) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return nil, fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}
	return e, nil
}
