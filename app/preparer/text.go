package preparer

import (
	"context"
	"strings"

	"github.com/jaytaylor/html2text"
)

// TextPreparer derives the plain-text alternative from the HTML body.
type TextPreparer struct{}

// NewTextPreparer creates the plain-text step.
func NewTextPreparer() *TextPreparer {
	return &TextPreparer{}
}

// Prepare fills msg.Text unless it is already set.
func (p *TextPreparer) Prepare(_ context.Context, msg *Message) error {
	if msg.Text != "" || strings.TrimSpace(msg.HTML) == "" {
		return nil
	}
	text, err := html2text.FromString(msg.HTML, html2text.Options{PrettyTables: true})
	if err != nil {
		// Without a text part the message is still deliverable as HTML only.
		return nil
	}
	msg.Text = strings.TrimSpace(text)
	return nil
}
