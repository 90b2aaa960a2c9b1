package entity

type FulfillmentStatus string

const (
	FulfillmentPlaced              FulfillmentStatus = "placed"
	FulfillmentPendingConfirmation FulfillmentStatus = "pending-confirmation"
	FulfillmentShipped             FulfillmentStatus = "shipped"
	FulfillmentDelivered           FulfillmentStatus = "delivered"
	FulfillmentCancelled           FulfillmentStatus = "cancelled"
)

// Order carries the fulfillment status and the per-job notification flags.
// RecipientEmail and RecipientName come from the owning user.
type Order struct {
	ID                  int64
	UserID              int64
	Status              FulfillmentStatus
	TotalCents          int64
	Currency            string
	PendingReminderSent bool
	DeliveredNoticeSent bool
	RecipientEmail      string
	RecipientName       string
}
