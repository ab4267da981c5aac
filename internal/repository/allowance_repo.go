package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AllowanceRepository struct {
	db *gorm.DB
}

func NewAllowanceRepository(db *gorm.DB) *AllowanceRepository {
	return &AllowanceRepository{db: db}
}

// Get returns zero when no allowance was ever granted.
func (r *AllowanceRepository) Get(ctx context.Context, tx *gorm.DB, token, owner, spender string) (amount.Amount, error) {
	if tx == nil {
		tx = r.db
	}
	var allowance model.TokenAllowance
	err := tx.WithContext(ctx).
		Where("token = ? AND owner = ? AND spender = ?", token, owner, spender).
		First(&allowance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return amount.Zero(), nil
		}
		return amount.Zero(), err
	}
	return allowance.Amount, nil
}

// Set overwrites the allowance of spender over owner's tokens.
func (r *AllowanceRepository) Set(ctx context.Context, tx *gorm.DB, token, owner, spender string, value amount.Amount) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}, {Name: "owner"}, {Name: "spender"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&model.TokenAllowance{Token: token, Owner: owner, Spender: spender, Amount: value}).Error
}
