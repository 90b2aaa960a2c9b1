package dto

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	ErrMissingUserID  = errors.New("userId is required")
	ErrMissingOrderID = errors.New("orderId is required")
	ErrInvalidID      = errors.New("id must be a positive integer")
)

// TriggerRequest is the body of the on-demand send endpoints. Ids may be sent
// as JSON numbers or numeric strings.
type TriggerRequest struct {
	UserID  json.Number `json:"userId"`
	OrderID json.Number `json:"orderId"`
}

// FromEchoContext binds and normalizes a request from Echo.
func FromEchoContext(ctx echo.Context) (TriggerRequest, error) {
	var req TriggerRequest
	if err := ctx.Bind(&req); err != nil {
		return TriggerRequest{}, err
	}
	req.normalize()
	return req, nil
}

// WelcomeRecipient returns the validated user id.
func (r TriggerRequest) WelcomeRecipient() (int64, error) {
	if r.UserID == "" {
		return 0, ErrMissingUserID
	}
	return parseID(string(r.UserID))
}

// PendingOrder returns the validated order id.
func (r TriggerRequest) PendingOrder() (int64, error) {
	if r.OrderID == "" {
		return 0, ErrMissingOrderID
	}
	return parseID(string(r.OrderID))
}

// IDFromGRPC validates an id carried in a protobuf wrapper.
func IDFromGRPC(value *wrapperspb.Int64Value) (int64, error) {
	if value == nil {
		return 0, ErrInvalidID
	}
	if value.GetValue() <= 0 {
		return 0, ErrInvalidID
	}
	return value.GetValue(), nil
}

func (r *TriggerRequest) normalize() {
	r.UserID = json.Number(strings.TrimSpace(string(r.UserID)))
	r.OrderID = json.Number(strings.TrimSpace(string(r.OrderID)))
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
