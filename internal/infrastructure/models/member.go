package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Member struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name                    string     `gorm:"type:varchar(100);not null"`
	Email                   string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash            string     `gorm:"type:varchar(255);not null"`
	Children                int        `gorm:"not null;default:0"`
	CertificateID           uuid.UUID  `gorm:"type:uuid;not null"`
	CertificateStatus       string     `gorm:"type:varchar(50);not null;default:'pending_payment'"`
	CertificateExpiryDate   *time.Time `gorm:"type:timestamp"`
	MedicalAnswersEncrypted string     `gorm:"type:text"`
	StripeCustomerID        *string    `gorm:"type:varchar(255)"`
	StripeSubscriptionID    *string    `gorm:"type:varchar(255);index"`
	SubscriptionStatus      string     `gorm:"type:varchar(50);not null;default:'incomplete'"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
	DeletedAt               gorm.DeletedAt `gorm:"index"`
}
