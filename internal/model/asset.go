package model

import "time"

// Asset is a non-fungible asset identified by (Contract, AssetID). Approved is
// the single operator allowed to move this asset, empty when none.
type Asset struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Contract  string    `gorm:"type:varchar(42);uniqueIndex:uk_asset_contract_id;not null" json:"contract"`
	AssetID   uint64    `gorm:"uniqueIndex:uk_asset_contract_id;not null" json:"asset_id"`
	Owner     string    `gorm:"type:varchar(42);index;not null" json:"owner"`
	Approved  string    `gorm:"type:varchar(42);not null;default:''" json:"approved"`
	URI       string    `gorm:"type:varchar(512)" json:"uri"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Asset) TableName() string {
	return "asset"
}

// AssetOperator grants Operator the right to move every asset of Owner in
// Contract. Revoking deletes the row.
type AssetOperator struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Contract  string    `gorm:"type:varchar(42);uniqueIndex:uk_operator_grant;not null" json:"contract"`
	Owner     string    `gorm:"type:varchar(42);uniqueIndex:uk_operator_grant;not null" json:"owner"`
	Operator  string    `gorm:"type:varchar(42);uniqueIndex:uk_operator_grant;not null" json:"operator"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AssetOperator) TableName() string {
	return "asset_operator"
}
