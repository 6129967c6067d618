// FilePath: internal/report/mailer.go
package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sensormagics/telemetry-hub/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a finished report to a recipient. Tests substitute a spy.
type Mailer interface {
	Send(to, subject, body, filename string, attachment []byte) error
}

// SMTPMailer sends reports over SMTP.
type SMTPMailer struct {
	cfg config.ReportConfig
}

func NewSMTPMailer(cfg config.ReportConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, body, filename string, attachment []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(attachment))
		return err
	}))

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send report mail to %s: %w", to, err)
	}
	return nil
}
