package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

// NotificationFlag names a per-job boolean column on the orders table.
type NotificationFlag string

const (
	FlagPendingReminder NotificationFlag = "pending_reminder_sent"
	FlagDeliveredNotice NotificationFlag = "delivered_notice_sent"
)

func (f NotificationFlag) valid() bool {
	return f == FlagPendingReminder || f == FlagDeliveredNotice
}

const orderColumns = `
	o.id, o.user_id, o.status, o.total_cents, o.currency,
	o.pending_reminder_sent, o.delivered_notice_sent, u.email, u.name
`

type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository constructs a repository over orders joined to their owner.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// ListUnflagged returns orders whose flag is still unset and whose status is one
// of statuses, in id order.
func (r *OrderRepository) ListUnflagged(ctx context.Context, flag NotificationFlag, statuses ...entity.FulfillmentStatus) ([]entity.Order, error) {
	if !flag.valid() {
		return nil, fmt.Errorf("unknown notification flag %q", flag)
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("at least one fulfillment status is required")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.` + string(flag) + ` = 0 AND o.status IN (` + placeholders + `)
		ORDER BY o.id
	`
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// FindByID loads one order with its owner's address or returns ErrRecordNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = ?
	`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkFlag sets flag on the order only if it is still unset. It reports false
// when another writer set it first.
func (r *OrderRepository) MarkFlag(ctx context.Context, flag NotificationFlag, id int64) (bool, error) {
	if !flag.valid() {
		return false, fmt.Errorf("unknown notification flag %q", flag)
	}
	query := `
		UPDATE orders
		SET ` + string(flag) + ` = 1
		WHERE id = ? AND ` + string(flag) + ` = 0
	`
	return execConditional(ctx, r.db, query, id)
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		order  entity.Order
		status string
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&status,
		&order.TotalCents,
		&order.Currency,
		&order.PendingReminderSent,
		&order.DeliveredNoticeSent,
		&order.RecipientEmail,
		&order.RecipientName,
	); err != nil {
		return nil, err
	}
	order.Status = entity.FulfillmentStatus(status)
	return &order, nil
}
