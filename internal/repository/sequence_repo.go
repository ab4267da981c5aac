package repository

import (
	"context"

	"dailytrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next allocates the next value of the named sequence. The first value is 0.
// The allocation belongs to tx, so a rolled back transaction does not consume
// a value.
func (r *SequenceRepository) Next(ctx context.Context, tx *gorm.DB, name string) (uint64, error) {
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Sequence{Name: name, NextValue: 0}).Error
	if err != nil {
		return 0, err
	}

	var seq model.Sequence
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&seq).Error
	if err != nil {
		return 0, err
	}

	result := tx.WithContext(ctx).
		Model(&model.Sequence{}).
		Where("name = ? AND next_value = ?", name, seq.NextValue).
		Update("next_value", seq.NextValue+1)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrOptimisticLock
	}
	return seq.NextValue, nil
}

// Peek returns the value the next allocation would return.
func (r *SequenceRepository) Peek(ctx context.Context, name string) (uint64, error) {
	var seq model.Sequence
	err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&seq).Error
	return seq.NextValue, err
}
