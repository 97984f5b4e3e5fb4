package specification

import "gorm.io/gorm"

type ByProductID struct {
	ProductID string
}

func (s ByProductID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id = ?", s.ProductID)
}

type ByProductIDs struct {
	ProductIDs []string
}

func (s ByProductIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id IN ?", s.ProductIDs)
}

type ByTelegramUserID struct {
	UserID int64
}

func (s ByTelegramUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("telegram_user_id = ?", s.UserID)
}

type ByFormID struct {
	FormID string
}

func (s ByFormID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("form_id = ?", s.FormID)
}

type ByChatID struct {
	ChatID int64
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// FailedSubmissions keeps attempts that stopped before commit.
type FailedSubmissions struct{}

func (s FailedSubmissions) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage LIKE ?", "failed_at_%")
}
