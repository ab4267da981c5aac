package model

import (
	"time"

	"dailytrack/pkg/amount"
)

// TokenBalance is one holder's balance of one token. Version is an optimistic
// lock: every write must match the version that was read.
type TokenBalance struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string        `gorm:"type:varchar(32);uniqueIndex:uk_balance_token_owner;not null" json:"token"`
	Owner     string        `gorm:"type:varchar(42);uniqueIndex:uk_balance_token_owner;not null" json:"owner"`
	Amount    amount.Amount `gorm:"type:varchar(78);not null" json:"amount"`
	Version   int           `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenBalance) TableName() string {
	return "token_balance"
}

// TokenAllowance is the amount Spender may pull from Owner with transferFrom.
type TokenAllowance struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string        `gorm:"type:varchar(32);uniqueIndex:uk_allowance_pair;not null" json:"token"`
	Owner     string        `gorm:"type:varchar(42);uniqueIndex:uk_allowance_pair;not null" json:"owner"`
	Spender   string        `gorm:"type:varchar(42);uniqueIndex:uk_allowance_pair;not null" json:"spender"`
	Amount    amount.Amount `gorm:"type:varchar(78);not null" json:"amount"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenAllowance) TableName() string {
	return "token_allowance"
}
