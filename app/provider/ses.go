package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
)

// SES error codes that will not succeed on retry.
var permanentSESCodes = map[string]struct{}{
	"MessageRejected":                    {},
	"MailFromDomainNotVerifiedException": {},
	"AccountSuspendedException":          {},
	"BadRequestException":                {},
	"NotFoundException":                  {},
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESProvider struct {
	client sesAPI
	source string
}

// NewSESProvider builds a provider that sends email via AWS SES.
func NewSESProvider(cfg aws.Config, source string) *SESProvider {
	return &SESProvider{
		client: sesv2.NewFromConfig(cfg),
		source: source,
	}
}

// SendRaw sends a raw MIME email via SES and classifies failures.
func (p *SESProvider) SendRaw(ctx context.Context, recipient string, raw []byte) error {
	if recipient == "" {
		return Permanent(fmt.Errorf("recipient is required"))
	}
	if len(raw) == 0 {
		return Permanent(fmt.Errorf("raw content is required"))
	}

	_, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.source),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return classifySESError(fmt.Errorf("ses send raw email: %w", err))
	}

	return nil
}

func classifySESError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := permanentSESCodes[apiErr.ErrorCode()]; ok {
			return Permanent(err)
		}
	}
	return Transient(err)
}
