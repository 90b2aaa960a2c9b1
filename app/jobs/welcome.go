package jobs

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/renderer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
)

// WelcomeJob greets every active recipient whose welcome status is pending.
type WelcomeJob struct {
	recipients RecipientStore
	site       Site
}

func NewWelcomeJob(recipients RecipientStore, site Site) *WelcomeJob {
	return &WelcomeJob{recipients: recipients, site: site}
}

func (j *WelcomeJob) Type() entity.JobType {
	return entity.JobWelcome
}

func (j *WelcomeJob) Eligible(ctx context.Context) ([]service.Target, error) {
	recipients, err := j.recipients.ListPendingWelcome(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]service.Target, 0, len(recipients))
	for _, recipient := range recipients {
		targets = append(targets, j.target(recipient))
	}
	return targets, nil
}

func (j *WelcomeJob) Lookup(ctx context.Context, recordID int64) (service.Target, entity.SkipReason, error) {
	recipient, err := j.recipients.FindByID(ctx, recordID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return service.Target{}, entity.SkipNotFound, nil
	}
	if err != nil {
		return service.Target{}, entity.SkipNone, err
	}
	if recipient.WelcomeStatus != entity.WelcomeStatusPending {
		return service.Target{}, entity.SkipAlreadyProcessed, nil
	}
	if !recipient.Active {
		return service.Target{}, entity.SkipPreconditionUnmet, nil
	}
	return j.target(*recipient), entity.SkipNone, nil
}

func (j *WelcomeJob) MarkSent(ctx context.Context, recordID int64) (bool, error) {
	return j.recipients.MarkWelcomeSent(ctx, recordID)
}

func (j *WelcomeJob) target(recipient entity.Recipient) service.Target {
	return service.Target{
		RecordID:   recipient.ID,
		Recipient:  recipient.Email,
		TemplateID: renderer.TemplateWelcome,
		Payload:    j.site.payload(recipient.Name),
	}
}
