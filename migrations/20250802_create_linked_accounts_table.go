package migrations

import (
	"time"

	"gorm.io/gorm"
)

// LinkedAccount модель для міграції
type LinkedAccount struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	UserID            string `gorm:"size:255;not null;index"`
	Provider          string `gorm:"size:64;not null"`
	ProviderAccountID string `gorm:"size:255;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName явно задає ім'я таблиці для GORM
func (LinkedAccount) TableName() string {
	return "linked_accounts"
}

// CreateLinkedAccountsTable створює таблицю linked_accounts
func CreateLinkedAccountsTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&LinkedAccount{})
}

// DropLinkedAccountsTable видаляє таблицю linked_accounts
func DropLinkedAccountsTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("linked_accounts")
}
