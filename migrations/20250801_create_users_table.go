package migrations

import (
	"time"

	"gorm.io/gorm"
)

// User модель для міграції
type User struct {
	ID           string `gorm:"primaryKey;size:255"`
	Email        string `gorm:"uniqueIndex;not null;size:255"`
	Name         string `gorm:"not null;size:255"`
	PasswordHash string `gorm:"size:255"`
	Picture      string `gorm:"size:500"`
	IsActive     bool   `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName явно задає ім'я таблиці для GORM
func (User) TableName() string {
	return "users"
}

// CreateUsersTable створює таблицю users
func CreateUsersTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&User{})
}

// DropUsersTable видаляє таблицю users
func DropUsersTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("users")
}
