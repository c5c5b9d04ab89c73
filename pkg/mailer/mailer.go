// Package mailer sends transactional email over SMTP.
//
// Any SMTP relay works; development setups typically point it at a sandbox inbox such as
// Mailtrap (smtp.mailtrap.io:2525).
package mailer

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Mailer sends email through one SMTP relay.
type Mailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New validates cfg and returns a Mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("SMTP host and port must be provided")
	}
	if cfg.From == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers one message. The Content-Type is text/html when the body contains an
// <html> or <p> tag and text/plain otherwise.
func (m *Mailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return errors.New("recipient email address cannot be empty")
	}
	if subject == "" {
		return errors.New("email subject cannot be empty")
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{recipient}, BuildMessage(recipient, m.cfg.From, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// BuildMessage renders the headers and body of a message.
func BuildMessage(recipient, sender, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, sender, subject, contentType, body))
}
