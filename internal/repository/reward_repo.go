package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Get returns nil, nil for an account that never logged in.
func (r *RewardRepository) Get(ctx context.Context, tx *gorm.DB, account string) (*model.RewardAccount, error) {
	if tx == nil {
		tx = r.db
	}
	var acc model.RewardAccount
	err := tx.WithContext(ctx).Where("account = ?", account).First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

func (r *RewardRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, account string) (*model.RewardAccount, error) {
	var acc model.RewardAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", account).
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// Save inserts a new record (ID == 0) or updates one read at acc.Version.
func (r *RewardRepository) Save(ctx context.Context, tx *gorm.DB, acc *model.RewardAccount) error {
	if acc.ID == 0 {
		return tx.WithContext(ctx).Create(acc).Error
	}

	result := tx.WithContext(ctx).
		Model(&model.RewardAccount{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]interface{}{
			"streak":        acc.Streak,
			"last_login":    acc.LastLogin,
			"total_claimed": acc.TotalClaimed,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	acc.Version++
	return nil
}
