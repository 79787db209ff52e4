package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers contact-form messages to a fixed recipient through a
// plain SMTP relay.
type Mailer struct {
	Addr string
	From string
	To   string
}

func (m *Mailer) Send(name, replyTo, subject, body string) error {
	if m == nil || m.Addr == "" {
		return fmt.Errorf("mailer not configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	fmt.Fprintf(&b, "Subject: [contact] %s\r\n", subject)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "From %s <%s>:\r\n\r\n%s\r\n", name, replyTo, body)

	return smtp.SendMail(m.Addr, nil, m.From, []string{m.To}, []byte(b.String()))
}
