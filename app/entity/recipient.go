package entity

type WelcomeStatus string

const (
	WelcomeStatusPending WelcomeStatus = "pending"
	WelcomeStatusSent    WelcomeStatus = "sent"
)

// Recipient is a storefront user account as seen by the dispatcher.
type Recipient struct {
	ID            int64
	Email         string
	Name          string
	WelcomeStatus WelcomeStatus
	Active        bool
}
