package model

import (
	"time"

	"dailytrack/pkg/amount"
)

// RewardAccount is the login streak record of one account.
// A missing row is the NeverLoggedIn state (streak 0, last login 0).
// LastLogin is unix seconds.
type RewardAccount struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Account      string        `gorm:"type:varchar(42);uniqueIndex;not null" json:"account"`
	Streak       uint64        `gorm:"not null;default:0" json:"streak"`
	LastLogin    int64         `gorm:"not null;default:0" json:"last_login"`
	TotalClaimed amount.Amount `gorm:"type:varchar(78);not null" json:"total_claimed"`
	Version      int           `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RewardAccount) TableName() string {
	return "reward_account"
}
