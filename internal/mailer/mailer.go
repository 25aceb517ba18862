package mailer

import (
	"fmt"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailService delivers one-time codes over plain SMTP. Sends are awaited by
// the caller; a delivery failure fails the whole operation.
type EmailService struct {
	config SMTPConfig
}

func NewEmailService(config SMTPConfig) *EmailService {
	return &EmailService{config: config}
}

func (e *EmailService) Send(to, subject, body string) error {
	message := fmt.Appendf(nil, "To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body)

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	addr := e.config.Host + ":" + e.config.Port

	if err := smtp.SendMail(addr, auth, e.config.From, []string{to}, message); err != nil {
		return fmt.Errorf("error sending email to %s: %w", to, err)
	}
	return nil
}
