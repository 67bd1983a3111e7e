package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// UnknownProduct is the product name recorded when enrichment could not
// resolve the product. It never blocks persistence.
const UnknownProduct = "Unknown Product"

// Notification is the persisted record of a dispatch attempt. Values are
// immutable by convention: state transitions go through the With* copy
// constructors, never through field mutation visible to callers.
type Notification struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	CustomerID     int64           `gorm:"not null"`
	OrderID        int64           `gorm:"not null"`
	ProductID      int64           `gorm:""`
	OrderReference string          `gorm:"type:varchar(64)"`
	Message        string          `gorm:"type:text"`
	Email          string          `gorm:"type:varchar(255)"`
	Address        string          `gorm:"type:varchar(255)"`
	PaymentMethod  string          `gorm:"type:varchar(40)"`
	Price          decimal.Decimal `gorm:"type:numeric(14,2)"`
	Quantity       int             `gorm:"not null;default:0"`
	ProductName    string          `gorm:"type:varchar(255)"`
	Channel        Channel         `gorm:"type:varchar(10);not null"`
	Sent           bool            `gorm:"not null;default:false"`
	SentAt         time.Time       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (n *Notification) Validate() error {
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}
	if n.Channel == ChannelEmail && strings.TrimSpace(n.Email) == "" {
		return fmt.Errorf("%w: email address is required for email notifications", ErrValidation)
	}
	return nil
}

// WithSent returns a copy marked as delivered at the given time.
func (n Notification) WithSent(at time.Time) Notification {
	n.Sent = true
	n.SentAt = at
	return n
}

// WithMessage returns a copy carrying a new message body, channel and
// send timestamp. Used by resend flows; the copy starts unsent.
func (n Notification) WithMessage(message string, channel Channel, at time.Time) Notification {
	n.Message = message
	n.Channel = channel
	n.Sent = false
	n.SentAt = at
	return n
}
