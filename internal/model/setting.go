package model

import (
	"time"

	"dailytrack/pkg/amount"
)

const (
	ComponentRewardTracker  = "reward_tracker"
	ComponentExchangeEscrow = "exchange_escrow"
)

// ComponentSetting holds the deploy-time configuration of a component.
// Owner, Token and Address are written once; DailyReward and FeePercent are
// the only owner-mutable fields.
type ComponentSetting struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Component   string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"component"`
	Owner       string        `gorm:"type:varchar(42);not null" json:"owner"`
	Token       string        `gorm:"type:varchar(32);not null" json:"token"`
	Address     string        `gorm:"type:varchar(42);not null" json:"address"`
	DailyReward amount.Amount `gorm:"type:varchar(78);not null" json:"daily_reward"`
	FeePercent  uint32        `gorm:"not null;default:0" json:"fee_percent"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ComponentSetting) TableName() string {
	return "component_setting"
}

const SequenceListing = "listing"

// Sequence is a named monotonic counter. NextValue is the value the next
// allocation returns.
type Sequence struct {
	Name      string `gorm:"type:varchar(64);primaryKey" json:"name"`
	NextValue uint64 `gorm:"not null;default:0" json:"next_value"`
}

func (Sequence) TableName() string {
	return "sequence"
}
