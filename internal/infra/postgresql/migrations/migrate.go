package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/ordercore/notification-orchestrator/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_notifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_notifications_order_sent_at ON notifications (order_id, sent_at DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_customer_id ON notifications (customer_id)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_channel ON notifications (channel)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_unsent ON notifications (sent_at) WHERE sent = false`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_order_reference ON notifications (order_reference)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationModel{})
			},
		},
	})

	return m.Migrate()
}
