package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBalanceNotFound = errors.New("balance not found")
	ErrOptimisticLock  = errors.New("optimistic lock conflict, retry")
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Get(ctx context.Context, tx *gorm.DB, token, owner string) (*model.TokenBalance, error) {
	if tx == nil {
		tx = r.db
	}
	var balance model.TokenBalance
	err := tx.WithContext(ctx).Where("token = ? AND owner = ?", token, owner).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// GetOrCreateForUpdate locks the (token, owner) row, inserting a zero balance
// first when the holder has never been seen.
func (r *BalanceRepository) GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, token, owner string) (*model.TokenBalance, error) {
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}, {Name: "owner"}},
			DoNothing: true,
		}).
		Create(&model.TokenBalance{Token: token, Owner: owner, Amount: amount.Zero()}).Error
	if err != nil {
		return nil, err
	}

	var balance model.TokenBalance
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ? AND owner = ?", token, owner).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// Save writes a new amount for a row read at version.
func (r *BalanceRepository) Save(ctx context.Context, tx *gorm.DB, id int64, newAmount amount.Amount, version int) error {
	result := tx.WithContext(ctx).
		Model(&model.TokenBalance{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"amount":  newAmount,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (r *BalanceRepository) ListByToken(ctx context.Context, token string) ([]*model.TokenBalance, error) {
	var balances []*model.TokenBalance
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Order("id ASC").
		Find(&balances).Error
	return balances, err
}
