package jobs

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/renderer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
)

const defaultSampleSize = 3

// PromotionJob broadcasts a random product sample to every active recipient.
// It keeps no per-recipient flag: each run sends again.
type PromotionJob struct {
	recipients RecipientStore
	products   ProductStore
	site       Site
	sampleSize int
}

func NewPromotionJob(recipients RecipientStore, products ProductStore, site Site, sampleSize int) *PromotionJob {
	if sampleSize < 1 {
		sampleSize = defaultSampleSize
	}
	return &PromotionJob{recipients: recipients, products: products, site: site, sampleSize: sampleSize}
}

func (j *PromotionJob) Type() entity.JobType {
	return entity.JobPromotion
}

// Eligible samples products once, so every recipient of a run sees the same picks.
func (j *PromotionJob) Eligible(ctx context.Context) ([]service.Target, error) {
	products, err := j.products.SampleActive(ctx, j.sampleSize)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	recipients, err := j.recipients.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	picks := j.picks(products)
	targets := make([]service.Target, 0, len(recipients))
	for _, recipient := range recipients {
		targets = append(targets, j.target(recipient, picks))
	}
	return targets, nil
}

func (j *PromotionJob) Lookup(ctx context.Context, recordID int64) (service.Target, entity.SkipReason, error) {
	recipient, err := j.recipients.FindByID(ctx, recordID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return service.Target{}, entity.SkipNotFound, nil
	}
	if err != nil {
		return service.Target{}, entity.SkipNone, err
	}
	if !recipient.Active {
		return service.Target{}, entity.SkipPreconditionUnmet, nil
	}

	products, err := j.products.SampleActive(ctx, j.sampleSize)
	if err != nil {
		return service.Target{}, entity.SkipNone, err
	}
	if len(products) == 0 {
		return service.Target{}, entity.SkipPreconditionUnmet, nil
	}
	return j.target(*recipient, j.picks(products)), entity.SkipNone, nil
}

// MarkSent always reports a win: there is no flag to commit.
func (j *PromotionJob) MarkSent(context.Context, int64) (bool, error) {
	return true, nil
}

func (j *PromotionJob) picks(products []entity.Product) []map[string]any {
	picks := make([]map[string]any, 0, len(products))
	for _, product := range products {
		picks = append(picks, map[string]any{
			"name":  product.Name,
			"price": formatMoney(product.PriceCents, product.Currency),
			"url":   j.site.link("products", product.ID),
			"image": product.ImageURL,
		})
	}
	return picks
}

func (j *PromotionJob) target(recipient entity.Recipient, picks []map[string]any) service.Target {
	payload := j.site.payload(recipient.Name)
	payload["products"] = picks
	return service.Target{
		RecordID:   recipient.ID,
		Recipient:  recipient.Email,
		TemplateID: renderer.TemplatePromotion,
		Payload:    payload,
	}
}
