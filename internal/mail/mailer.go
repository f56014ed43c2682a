// Package mail is the email collaborator. Sends are fire-and-forget side
// effects: failures are logged and never propagate to the write that
// triggered them.
package mail

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/sirupsen/logrus"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay configured from the
// environment (SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM).
type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USERNAME"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: os.Getenv("SMTP_FROM"),
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("SMTP_HOST not configured")
	}
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	if err := smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender logs messages instead of delivering them. Used in development and
// whenever no SMTP relay is configured.
type LogSender struct {
	Log *logrus.Logger
}

func (s *LogSender) Send(to, subject, body string) error {
	s.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail (not delivered, log sender)")
	return nil
}

// FromEnv returns an SMTP sender when SMTP_HOST is set, otherwise a log sender.
func FromEnv(log *logrus.Logger) Sender {
	if os.Getenv("SMTP_HOST") != "" {
		return NewSMTPSender()
	}
	return &LogSender{Log: log}
}
