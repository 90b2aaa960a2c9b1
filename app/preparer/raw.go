package preparer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/mail"
	"strings"
)

type RawPreparer struct {
	source     string
	senderName string
}

// NewRawPreparer creates a preparer that builds a raw MIME message.
func NewRawPreparer(source string, senderName string) *RawPreparer {
	return &RawPreparer{source: source, senderName: senderName}
}

// Prepare builds an HTML message, or multipart/alternative when a text part
// is present.
func (p *RawPreparer) Prepare(_ context.Context, msg *Message) error {
	if strings.TrimSpace(p.source) == "" {
		return fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	if strings.ContainsAny(msg.Recipient, "\r\n") {
		return fmt.Errorf("recipient contains invalid characters")
	}

	from := (&mail.Address{Name: p.senderName, Address: p.source}).String()

	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(from)
	b.WriteString("\r\n")
	b.WriteString("To: ")
	b.WriteString(msg.Recipient)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.Text == "" {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
		b.WriteString("\r\n")
		b.WriteString(msg.HTML)
		msg.Raw = []byte(b.String())
		return nil
	}

	boundary, err := newBoundary()
	if err != nil {
		return err
	}
	b.WriteString("Content-Type: multipart/alternative; boundary=\"")
	b.WriteString(boundary)
	b.WriteString("\"\r\n\r\n")
	writePart(&b, boundary, "text/plain", msg.Text)
	writePart(&b, boundary, "text/html", msg.HTML)
	b.WriteString("--")
	b.WriteString(boundary)
	b.WriteString("--\r\n")

	msg.Raw = []byte(b.String())
	return nil
}

func writePart(b *strings.Builder, boundary string, contentType string, body string) {
	b.WriteString("--")
	b.WriteString(boundary)
	b.WriteString("\r\n")
	b.WriteString("Content-Type: ")
	b.WriteString(contentType)
	b.WriteString("; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
}

func newBoundary() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "dispatch-" + hex.EncodeToString(buf), nil
}
