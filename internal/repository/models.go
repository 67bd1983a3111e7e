package repository

import (
	"time"

	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/shopspring/decimal"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
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
	Channel        domain.Channel  `gorm:"type:varchar(10);not null"`
	Sent           bool            `gorm:"not null;default:false"`
	SentAt         time.Time       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:             n.ID,
		CustomerID:     n.CustomerID,
		OrderID:        n.OrderID,
		ProductID:      n.ProductID,
		OrderReference: n.OrderReference,
		Message:        n.Message,
		Email:          n.Email,
		Address:        n.Address,
		PaymentMethod:  n.PaymentMethod,
		Price:          n.Price,
		Quantity:       n.Quantity,
		ProductName:    n.ProductName,
		Channel:        n.Channel,
		Sent:           n.Sent,
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:             m.ID,
		CustomerID:     m.CustomerID,
		OrderID:        m.OrderID,
		ProductID:      m.ProductID,
		OrderReference: m.OrderReference,
		Message:        m.Message,
		Email:          m.Email,
		Address:        m.Address,
		PaymentMethod:  m.PaymentMethod,
		Price:          m.Price,
		Quantity:       m.Quantity,
		ProductName:    m.ProductName,
		Channel:        m.Channel,
		Sent:           m.Sent,
		SentAt:         m.SentAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
