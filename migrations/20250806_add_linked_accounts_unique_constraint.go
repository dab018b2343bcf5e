package migrations

import (
	"gorm.io/gorm"
)

// AddLinkedAccountsUniqueConstraint додає унікальний індекс на (provider, provider_account_id)
func AddLinkedAccountsUniqueConstraint(tx *gorm.DB) error {
	// Один федеративний акаунт може належати тільки одному користувачу
	return tx.Exec(`
		CREATE UNIQUE INDEX CONCURRENTLY IF NOT EXISTS idx_linked_accounts_provider_account
		ON linked_accounts (provider, provider_account_id)
	`).Error
}

// DropLinkedAccountsUniqueConstraint видаляє унікальний індекс
func DropLinkedAccountsUniqueConstraint(tx *gorm.DB) error {
	return tx.Exec(`DROP INDEX IF EXISTS idx_linked_accounts_provider_account`).Error
}
