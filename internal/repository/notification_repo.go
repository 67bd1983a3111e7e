package repository

import (
	"context"
	"errors"

	"github.com/ordercore/notification-orchestrator/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository is the store boundary for notification records.
// Replace persists a full copy-on-write successor of an existing record;
// a write either fully succeeds or the prior record stands.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	Replace(ctx context.Context, id string, value domain.Notification) (*domain.Notification, error)
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	GetByCustomerID(ctx context.Context, customerID int64) ([]domain.Notification, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Notification, error)
	GetByOrderReference(ctx context.Context, orderReference string) ([]domain.Notification, error)
	GetByChannel(ctx context.Context, channel domain.Channel) ([]domain.Notification, error)
	GetUnsent(ctx context.Context) ([]domain.Notification, error)
	GetAll(ctx context.Context) ([]domain.Notification, error)
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) Replace(ctx context.Context, id string, value domain.Notification) (*domain.Notification, error) {
	value.ID = id
	model := notificationModelFromDomain(&value)

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) GetByCustomerID(ctx context.Context, customerID int64) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sent_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

// GetByOrderID returns the most recent record for the order, ordered by
// recorded send timestamp. Concurrent writers on the same order resolve
// last-write-wins.
func (r *GormNotificationRepo) GetByOrderID(ctx context.Context, orderID int64) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sent_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) GetByOrderReference(ctx context.Context, orderReference string) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("order_reference = ?", orderReference).
		Order("sent_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

func (r *GormNotificationRepo) GetByChannel(ctx context.Context, channel domain.Channel) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("channel = ?", channel).
		Order("sent_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

func (r *GormNotificationRepo) GetUnsent(ctx context.Context) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("sent = ?", false).
		Order("sent_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

func (r *GormNotificationRepo) GetAll(ctx context.Context) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Order("sent_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

func toDomainSlice(models []NotificationModel) []domain.Notification {
	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}
	return notifications
}
