package migrations

import "gorm.io/gorm"

// AddUsersRoleColumn додає колонку role (ADMIN | USER) до users
func AddUsersRoleColumn(tx *gorm.DB) error {
	return tx.Exec(`ALTER TABLE users ADD COLUMN IF NOT EXISTS role VARCHAR(16) NOT NULL DEFAULT 'USER'`).Error
}

// DropUsersRoleColumn видаляє колонку role
func DropUsersRoleColumn(tx *gorm.DB) error {
	return tx.Exec(`ALTER TABLE users DROP COLUMN IF EXISTS role`).Error
}
