package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NotificationRequest is the transient dispatch input. It carries no
// identity and is never persisted as-is.
type NotificationRequest struct {
	CustomerID     int64           `json:"customerId"`
	OrderID        int64           `json:"orderId"`
	ProductID      int64           `json:"productId,omitempty"`
	OrderReference string          `json:"orderReference,omitempty"`
	Message        string          `json:"message"`
	Email          string          `json:"email"`
	Address        string          `json:"address,omitempty"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Channel        Channel         `json:"channel"`
}

func (r *NotificationRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("%w: customer id is required", ErrValidation)
	}
	if !r.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, r.Channel)
	}
	if r.Channel == ChannelEmail && strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("%w: email address is required for email notifications", ErrValidation)
	}
	return nil
}
