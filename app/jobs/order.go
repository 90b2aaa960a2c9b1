package jobs

import (
	"context"
	"errors"
	"slices"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/renderer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
)

// orderJob is shared by the order-driven jobs: each one watches a set of
// fulfillment statuses and owns one notification flag on the order.
type orderJob struct {
	jobType    entity.JobType
	templateID string
	flag       repository.NotificationFlag
	statuses   []entity.FulfillmentStatus
	orders     OrderStore
	site       Site
}

// NewPendingOrderJob reminds customers about orders that are still waiting
// for confirmation.
func NewPendingOrderJob(orders OrderStore, site Site) service.Job {
	return &orderJob{
		jobType:    entity.JobPendingReminder,
		templateID: renderer.TemplatePendingReminder,
		flag:       repository.FlagPendingReminder,
		statuses:   []entity.FulfillmentStatus{entity.FulfillmentPlaced, entity.FulfillmentPendingConfirmation},
		orders:     orders,
		site:       site,
	}
}

// NewDeliveredOrderJob tells customers their order arrived.
func NewDeliveredOrderJob(orders OrderStore, site Site) service.Job {
	return &orderJob{
		jobType:    entity.JobDeliveredNotice,
		templateID: renderer.TemplateDeliveredNotice,
		flag:       repository.FlagDeliveredNotice,
		statuses:   []entity.FulfillmentStatus{entity.FulfillmentDelivered},
		orders:     orders,
		site:       site,
	}
}

func (j *orderJob) Type() entity.JobType {
	return j.jobType
}

func (j *orderJob) Eligible(ctx context.Context) ([]service.Target, error) {
	orders, err := j.orders.ListUnflagged(ctx, j.flag, j.statuses...)
	if err != nil {
		return nil, err
	}
	targets := make([]service.Target, 0, len(orders))
	for _, order := range orders {
		targets = append(targets, j.target(order))
	}
	return targets, nil
}

func (j *orderJob) Lookup(ctx context.Context, recordID int64) (service.Target, entity.SkipReason, error) {
	order, err := j.orders.FindByID(ctx, recordID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return service.Target{}, entity.SkipNotFound, nil
	}
	if err != nil {
		return service.Target{}, entity.SkipNone, err
	}
	if j.flagged(*order) {
		return service.Target{}, entity.SkipAlreadyProcessed, nil
	}
	if !slices.Contains(j.statuses, order.Status) {
		return service.Target{}, entity.SkipPreconditionUnmet, nil
	}
	return j.target(*order), entity.SkipNone, nil
}

func (j *orderJob) MarkSent(ctx context.Context, recordID int64) (bool, error) {
	return j.orders.MarkFlag(ctx, j.flag, recordID)
}

func (j *orderJob) flagged(order entity.Order) bool {
	if j.flag == repository.FlagDeliveredNotice {
		return order.DeliveredNoticeSent
	}
	return order.PendingReminderSent
}

func (j *orderJob) target(order entity.Order) service.Target {
	payload := j.site.payload(order.RecipientName)
	payload["order_id"] = order.ID
	payload["total"] = formatMoney(order.TotalCents, order.Currency)
	payload["order_url"] = j.site.link("orders", order.ID)

	return service.Target{
		RecordID:   order.ID,
		Recipient:  order.RecipientEmail,
		TemplateID: j.templateID,
		Payload:    payload,
	}
}
