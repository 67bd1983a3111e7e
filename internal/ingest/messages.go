package ingest

import (
	"fmt"
	"strings"

	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is the raw order event published when an order is
// accepted upstream.
type OrderPlacedEvent struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customerId"`
	ProductID      int64           `json:"productId"`
	ProductName    string          `json:"productName"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	OrderReference string          `json:"orderReference"`
	PaymentMethod  string          `json:"paymentMethod"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
}

// ToRequest maps an order event onto a dispatch request. Order events
// always notify over email.
func (e OrderPlacedEvent) ToRequest() domain.NotificationRequest {
	return domain.NotificationRequest{
		CustomerID:     e.CustomerID,
		OrderID:        e.ID,
		ProductID:      e.ProductID,
		OrderReference: e.OrderReference,
		Message:        fmt.Sprintf("Your order %s has been placed.", e.OrderReference),
		Email:          e.Email,
		Address:        e.Address,
		PaymentMethod:  e.PaymentMethod,
		Price:          e.Price,
		Quantity:       e.Quantity,
		Channel:        domain.ChannelEmail,
	}
}

// validateRequest performs the adapter's minimal structural check; full
// validation belongs to the orchestrator.
func validateRequest(req domain.NotificationRequest) error {
	if req.CustomerID <= 0 {
		return fmt.Errorf("customerId is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
