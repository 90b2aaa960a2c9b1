package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

type EmailProvider interface {
	SendRaw(ctx context.Context, recipient string, raw []byte) error
}

// DeliveryError is a transport failure tagged as transient or permanent.
type DeliveryError struct {
	Kind entity.ErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failure: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a failure expected to heal on a later sweep.
func Transient(err error) error {
	return &DeliveryError{Kind: entity.ErrorKindTransient, Err: err}
}

// Permanent wraps err as a failure that needs investigation.
func Permanent(err error) error {
	return &DeliveryError{Kind: entity.ErrorKindPermanent, Err: err}
}

// Classify returns the error kind of a transport error. Deadline and
// cancellation errors are transient, as is anything unclassified.
func Classify(err error) entity.ErrorKind {
	if err == nil {
		return entity.ErrorKindNone
	}
	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Kind
	}
	return entity.ErrorKindTransient
}
