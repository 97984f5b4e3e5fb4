package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ProductID string                      `gorm:"type:varchar(64);primaryKey"`
	Name      string                      `gorm:"type:varchar(255);not null;index"`
	Synonyms  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt              `gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

type UserAccess struct {
	TelegramUserID int64                       `gorm:"primaryKey;autoIncrement:false"`
	Name           string                      `gorm:"type:varchar(255)"`
	TradePoints    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	WorkerID       int64                       `gorm:"not null;default:0"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime"`
}

func (UserAccess) TableName() string {
	return "user_access"
}
