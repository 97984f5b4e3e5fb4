package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceSubmission struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FormID        string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	SessionID     string          `gorm:"type:varchar(64);index"`
	ChatID        int64           `gorm:"not null;index"`
	DraftID       *string         `gorm:"type:varchar(64)"`
	DocumentID    *string         `gorm:"type:varchar(64)"`
	TradePointKey string          `gorm:"type:varchar(100);not null"`
	Supplier      string          `gorm:"type:varchar(255)"`
	WorkerID      int64           `gorm:"not null;default:0"`
	Stage         string          `gorm:"type:varchar(30);not null;index"`
	FailedStep    *string         `gorm:"type:varchar(20)"`
	ErrorMessage  *string         `gorm:"type:text"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Items         datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index"`
}

func (InvoiceSubmission) TableName() string {
	return "invoice_submissions"
}
