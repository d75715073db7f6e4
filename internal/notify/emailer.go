// README: Outbound email senders. SMTP when configured, log-only otherwise.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Emailer interface {
	Send(e Email) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

func (s *SMTPSender) Send(e Email) error {
	if e.To == "" {
		return fmt.Errorf("send email: empty recipient")
	}
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + e.To,
		"Subject: " + e.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		e.Body,
	}, "\r\n")
	return smtp.SendMail(s.addr, nil, s.from, []string{e.To}, []byte(msg))
}

// LogSender stands in when no SMTP relay is configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(e Email) error {
	s.log.Info("email (log-only sender)", "to", e.To, "subject", e.Subject)
	return nil
}
