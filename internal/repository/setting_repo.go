package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("component setting not found")

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, tx *gorm.DB, component string) (*model.ComponentSetting, error) {
	if tx == nil {
		tx = r.db
	}
	var setting model.ComponentSetting
	err := tx.WithContext(ctx).Where("component = ?", component).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepository) List(ctx context.Context, tx *gorm.DB) ([]*model.ComponentSetting, error) {
	if tx == nil {
		tx = r.db
	}
	var settings []*model.ComponentSetting
	err := tx.WithContext(ctx).Order("id ASC").Find(&settings).Error
	return settings, err
}

// FindByAddress returns the setting of another component deployed at
// address, or nil.
func (r *SettingRepository) FindByAddress(ctx context.Context, tx *gorm.DB, address, excludeComponent string) (*model.ComponentSetting, error) {
	if tx == nil {
		tx = r.db
	}
	var setting model.ComponentSetting
	err := tx.WithContext(ctx).
		Where("address = ? AND component <> ?", address, excludeComponent).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// CreateIfAbsent seeds the setting on first deployment. An existing row is
// left untouched and returned.
func (r *SettingRepository) CreateIfAbsent(ctx context.Context, setting *model.ComponentSetting) (*model.ComponentSetting, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "component"}},
			DoNothing: true,
		}).
		Create(setting)
	if result.Error != nil {
		return nil, false, result.Error
	}

	stored, err := r.Get(ctx, nil, setting.Component)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected > 0, nil
}

func (r *SettingRepository) UpdateDailyReward(ctx context.Context, tx *gorm.DB, component string, value amount.Amount) error {
	return r.update(ctx, tx, component, "daily_reward", value)
}

func (r *SettingRepository) UpdateFeePercent(ctx context.Context, tx *gorm.DB, component string, feePercent uint32) error {
	return r.update(ctx, tx, component, "fee_percent", feePercent)
}

func (r *SettingRepository) update(ctx context.Context, tx *gorm.DB, component, column string, value interface{}) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.ComponentSetting{}).
		Where("component = ?", component).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// mysql reports changed rows, not matched ones
	var count int64
	if err := tx.WithContext(ctx).
		Model(&model.ComponentSetting{}).
		Where("component = ?", component).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSettingNotFound
	}
	return nil
}
