package model

import (
	"time"

	"dailytrack/pkg/amount"
)

const (
	ListingStatusActive    = "ACTIVE"
	ListingStatusSold      = "SOLD"
	ListingStatusCancelled = "CANCELLED"
)

// SOLD and CANCELLED are terminal.
var ValidListingTransitions = map[string][]string{
	ListingStatusActive: {ListingStatusSold, ListingStatusCancelled},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidListingTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Listing is an offer to sell one asset for Price in the payment token.
// ListingID is allocated from the listing sequence and starts at 0; ID is only
// the row key.
type Listing struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"-"`
	ListingID     uint64        `gorm:"uniqueIndex;not null" json:"listing_id"`
	AssetContract string        `gorm:"type:varchar(42);index:idx_listing_asset;not null" json:"asset_contract"`
	AssetID       uint64        `gorm:"index:idx_listing_asset;not null" json:"asset_id"`
	Seller        string        `gorm:"type:varchar(42);index;not null" json:"seller"`
	Price         amount.Amount `gorm:"type:varchar(78);not null" json:"price"`
	IsActive      bool          `gorm:"index;not null" json:"is_active"`
	Status        string        `gorm:"type:varchar(20);not null" json:"status"`
	Buyer         string        `gorm:"type:varchar(42);not null;default:''" json:"buyer,omitempty"`
	Fee           amount.Amount `gorm:"type:varchar(78);not null" json:"fee"`
	SoldAt        *time.Time    `json:"sold_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listing"
}
