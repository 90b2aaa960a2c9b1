// Package jobs holds the four storefront notification jobs run by the
// dispatcher: welcome, pending order reminder, delivered order notice and the
// monthly promotion.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
)

// Site is the storefront identity rendered into every email.
type Site struct {
	Name string
	URL  string
}

func (s Site) link(parts ...any) string {
	base := strings.TrimRight(s.URL, "/")
	for _, part := range parts {
		base += "/" + fmt.Sprint(part)
	}
	return base
}

func (s Site) payload(name string) map[string]any {
	return map[string]any{
		"name":       name,
		"store_name": s.Name,
		"store_url":  s.URL,
	}
}

type RecipientStore interface {
	ListPendingWelcome(ctx context.Context) ([]entity.Recipient, error)
	ListActive(ctx context.Context) ([]entity.Recipient, error)
	FindByID(ctx context.Context, id int64) (*entity.Recipient, error)
	MarkWelcomeSent(ctx context.Context, id int64) (bool, error)
}

type OrderStore interface {
	ListUnflagged(ctx context.Context, flag repository.NotificationFlag, statuses ...entity.FulfillmentStatus) ([]entity.Order, error)
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	MarkFlag(ctx context.Context, flag repository.NotificationFlag, id int64) (bool, error)
}

type ProductStore interface {
	SampleActive(ctx context.Context, limit int) ([]entity.Product, error)
}

// formatMoney renders minor units as "12.34 EUR".
func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	amount := fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	if currency == "" {
		return amount
	}
	return amount + " " + strings.ToUpper(currency)
}
