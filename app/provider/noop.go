package provider

import (
	"context"

	"github.com/sirupsen/logrus"
)

// NoopProvider pretends to send emails and logs the attempt.
type NoopProvider struct {
	logger logrus.FieldLogger
}

// NewNoopProvider constructs a no-op email provider.
func NewNoopProvider(logger logrus.FieldLogger) *NoopProvider {
	return &NoopProvider{logger: logger}
}

// SendRaw returns nil without sending.
func (p *NoopProvider) SendRaw(_ context.Context, recipient string, raw []byte) error {
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"recipient": recipient, "bytes": len(raw)}).Debug("noop provider dropped email")
	}
	return nil
}
