package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"signa-backend/pkg/utils"
)

// UserModel is the database model of the local user mirror.
type UserModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username       string     `gorm:"type:varchar(8);not null;uniqueIndex"`
	Name           string     `gorm:"type:varchar(150);not null;default:''"`
	Email          *string    `gorm:"type:varchar(255);uniqueIndex"`
	CPF            *string    `gorm:"type:varchar(11);uniqueIndex"`
	PasswordHashed string     `gorm:"type:varchar(255);not null;default:''"`
	LastLogin      *time.Time `gorm:"type:timestamp"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// BeforeSave hashes the password whenever the stored value does not already
// look like a hash, so no persistence path can commit a plaintext password.
func (u *UserModel) BeforeSave(_ *gorm.DB) error {
	hashed, err := utils.EnsureHashed(u.PasswordHashed)
	if err != nil {
		return err
	}
	u.PasswordHashed = hashed
	return nil
}

// EmailChangeModel is the database model of a pending email change.
type EmailChangeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	NewEmail  string    `gorm:"type:varchar(255);not null"`
	Token     string    `gorm:"type:varchar(36);not null;uniqueIndex"`
	Used      bool      `gorm:"default:false;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (EmailChangeModel) TableName() string {
	return "email_change_requests"
}
