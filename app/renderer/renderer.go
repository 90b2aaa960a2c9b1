package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gotemplate "github.com/goliatone/go-template"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrEmptyContent     = errors.New("rendered content is empty")
)

// Template is a subject/body pair in pongo2 syntax.
type Template struct {
	Subject string
	HTML    string
}

// Content is a rendered message ready for MIME preparation.
type Content struct {
	Subject string
	HTML    string
}

type Renderer struct {
	engine    *gotemplate.Engine
	mu        sync.Mutex
	templates map[string]Template
}

// New builds a renderer seeded with the given templates.
func New(templates map[string]Template) (*Renderer, error) {
	engine, err := gotemplate.NewRenderer(gotemplate.WithBaseDir("."))
	if err != nil {
		return nil, fmt.Errorf("build template engine: %w", err)
	}

	registry := make(map[string]Template, len(templates))
	for id, tpl := range templates {
		registry[id] = tpl
	}

	return &Renderer{engine: engine, templates: registry}, nil
}

// Render resolves templateID and executes it against payload.
func (r *Renderer) Render(ctx context.Context, templateID string, payload map[string]any) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	tpl, ok := r.templates[templateID]
	if !ok {
		return Content{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	// The pongo2 engine shares parser state between calls.
	r.mu.Lock()
	defer r.mu.Unlock()

	subject, err := r.engine.RenderString(tpl.Subject, payload)
	if err != nil {
		return Content{}, fmt.Errorf("render subject for %s: %w", templateID, err)
	}
	html, err := r.engine.RenderString(tpl.HTML, payload)
	if err != nil {
		return Content{}, fmt.Errorf("render body for %s: %w", templateID, err)
	}

	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(html) == "" {
		return Content{}, fmt.Errorf("%w: %s", ErrEmptyContent, templateID)
	}

	return Content{Subject: subject, HTML: html}, nil
}
