package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAssetNotFound  = errors.New("asset not found")
	ErrAssetDuplicate = errors.New("asset already exists")
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Get(ctx context.Context, tx *gorm.DB, contract string, assetID uint64) (*model.Asset, error) {
	if tx == nil {
		tx = r.db
	}
	var asset model.Asset
	err := tx.WithContext(ctx).Where("contract = ? AND asset_id = ?", contract, assetID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, contract string, assetID uint64) (*model.Asset, error) {
	var asset model.Asset
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract = ? AND asset_id = ?", contract, assetID).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) Create(ctx context.Context, tx *gorm.DB, asset *model.Asset) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(asset)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssetDuplicate
	}
	return nil
}

// SetApproved replaces the single-asset approval. An empty operator clears it.
func (r *AssetRepository) SetApproved(ctx context.Context, tx *gorm.DB, id int64, operator string) error {
	return tx.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id = ?", id).
		Update("approved", operator).Error
}

// MoveOwner changes the owner only if it is still from, and clears the
// single-asset approval.
func (r *AssetRepository) MoveOwner(ctx context.Context, tx *gorm.DB, id int64, from, to string) error {
	result := tx.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id = ? AND owner = ?", id, from).
		Updates(map[string]interface{}{
			"owner":    to,
			"approved": "",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (r *AssetRepository) ListByOwner(ctx context.Context, owner string) ([]*model.Asset, error) {
	var assets []*model.Asset
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("contract ASC, asset_id ASC").
		Find(&assets).Error
	return assets, err
}

func (r *AssetRepository) IsOperator(ctx context.Context, tx *gorm.DB, contract, owner, operator string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.AssetOperator{}).
		Where("contract = ? AND owner = ? AND operator = ?", contract, owner, operator).
		Count(&count).Error
	return count > 0, err
}

func (r *AssetRepository) SetOperator(ctx context.Context, tx *gorm.DB, contract, owner, operator string, approved bool) error {
	if tx == nil {
		tx = r.db
	}
	if !approved {
		return tx.WithContext(ctx).
			Where("contract = ? AND owner = ? AND operator = ?", contract, owner, operator).
			Delete(&model.AssetOperator{}).Error
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.AssetOperator{Contract: contract, Owner: owner, Operator: operator}).Error
}
