package migrations

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration одна міграція схеми
type Migration struct {
	ID   string
	Up   func(tx *gorm.DB) error
	Down func(tx *gorm.DB) error
}

// SchemaMigration запис про застосовану міграцію
type SchemaMigration struct {
	ID        string `gorm:"primaryKey;size:255"`
	AppliedAt time.Time
}

// TableName явно задає ім'я таблиці для GORM
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// All повертає міграції в порядку застосування
func All() []Migration {
	return []Migration{
		{ID: "20250801_create_users_table", Up: CreateUsersTable, Down: DropUsersTable},
		{ID: "20250802_create_linked_accounts_table", Up: CreateLinkedAccountsTable, Down: DropLinkedAccountsTable},
		{ID: "20250806_add_linked_accounts_unique_constraint", Up: AddLinkedAccountsUniqueConstraint, Down: DropLinkedAccountsUniqueConstraint},
		{ID: "20250810_add_users_role_column", Up: AddUsersRoleColumn, Down: DropUsersRoleColumn},
	}
}

// Run застосовує ще не застосовані міграції.
// Міграції виконуються поза транзакцією (CREATE INDEX CONCURRENTLY).
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var applied []SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.ID] = true
	}

	for _, m := range All() {
		if done[m.ID] {
			continue
		}

		logrus.WithField("migration", m.ID).Info("🛠️  Applying migration")
		if err := m.Up(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.ID, err)
		}
		if err := db.Create(&SchemaMigration{ID: m.ID, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}

	return nil
}

// Rollback відкочує останню застосовану міграцію
func Rollback(db *gorm.DB) error {
	var last SchemaMigration
	if err := db.Order("id DESC").First(&last).Error; err != nil {
		return fmt.Errorf("no migration to roll back: %w", err)
	}

	for _, m := range All() {
		if m.ID != last.ID {
			continue
		}

		logrus.WithField("migration", m.ID).Info("Rolling back migration")
		if err := m.Down(db); err != nil {
			return fmt.Errorf("rollback %s failed: %w", m.ID, err)
		}
		return db.Delete(&SchemaMigration{}, "id = ?", m.ID).Error
	}

	return fmt.Errorf("unknown migration: %s", last.ID)
}
