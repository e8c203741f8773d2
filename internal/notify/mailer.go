package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// Message is one outbound notification. Attachment is optional (rendered
// certificate or report document).
type Message struct {
	Recipient      string
	Subject        string
	HTMLBody       string
	Attachment     []byte
	AttachmentName string
}

// Mailer performs best-effort delivery. Failures are recorded and logged,
// never retried and never propagated into the transaction that queued them.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
}

func (s *SMTPMailer) Send(_ context.Context, m Message) error {
	if s.Addr == "" {
		return fmt.Errorf("smtp relay not configured")
	}
	var b strings.Builder
	boundary := "olympiad-part"
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", s.From, m.Recipient, m.Subject)
	if len(m.Attachment) == 0 {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(m.HTMLBody)
	} else {
		fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, m.HTMLBody)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: application/octet-stream\r\nContent-Disposition: attachment; filename=%q\r\n\r\n", boundary, m.AttachmentName)
		b.Write(m.Attachment)
		fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	}
	return smtp.SendMail(s.Addr, nil, s.From, []string{m.Recipient}, []byte(b.String()))
}

// LogMailer is the offline/dev stand-in: delivery succeeds without leaving
// the process.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, m)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (l *LogMailer) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.sent...)
}
