package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserCode     string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_code"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	PhoneNumber  string    `gorm:"type:varchar(15)" json:"phone_number,omitempty"`
	AvatarURL    string    `gorm:"type:varchar(512)" json:"avatar_url,omitempty"`
	IsVerified   bool      `gorm:"default:false" json:"is_verified"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	EmailVerificationCode   string     `gorm:"type:varchar(64);index" json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`
	PasswordResetCode       string     `gorm:"type:varchar(64);index" json:"-"`
	PasswordResetExpiry     *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// ScoreRecord is one append-only ledger row: a single score submission.
// Rows are never updated or deleted except by account cascade delete;
// corrections happen by appending new rows.
type ScoreRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserCode  string    `gorm:"type:varchar(36);not null;index:idx_score_records_user_game" json:"user_code"`
	GameID    string    `gorm:"type:varchar(50);not null;index:idx_score_records_user_game;index:idx_score_records_game_time,priority:1" json:"game_id"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `gorm:"index:idx_score_records_game_time,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ScoreRecord) TableName() string {
	return "score_records"
}
