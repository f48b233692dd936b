package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSender delivers messages over SMTP with plain auth.
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string

	// sendMail is swappable for tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates a sender for the given SMTP server and recipient.
func NewEmailSender(host string, port int, username, password, from, to string) *EmailSender {
	return &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
	}
}

// Name implements Sender.
func (s *EmailSender) Name() string { return "email" }

// Send delivers one plain-text message. The context carries only the
// dispatcher deadline; net/smtp has no context support, so cancellation is
// checked before dialing.
func (s *EmailSender) Send(ctx context.Context, subject, message string) error {
	if s.to == "" || s.host == "" {
		return fmt.Errorf("email: transport not configured")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	msg := buildMessage(s.from, s.to, subject, message)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := s.sendMail(addr, auth, s.from, []string{s.to}, msg); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
