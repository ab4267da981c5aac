package repository

import (
	"context"
	"errors"
	"time"

	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrListingStatusInvalid = errors.New("listing status invalid")
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, tx *gorm.DB, listing *model.Listing) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(listing).Error
}

func (r *ListingRepository) Get(ctx context.Context, tx *gorm.DB, listingID uint64) (*model.Listing, error) {
	if tx == nil {
		tx = r.db
	}
	var listing model.Listing
	err := tx.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, listingID uint64) (*model.Listing, error) {
	var listing model.Listing
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// MarkSold moves an ACTIVE listing to SOLD.
func (r *ListingRepository) MarkSold(ctx context.Context, tx *gorm.DB, listingID uint64, buyer string, fee amount.Amount, at time.Time) error {
	return r.updateStatus(ctx, tx, listingID, model.ListingStatusActive, model.ListingStatusSold, map[string]interface{}{
		"buyer":   buyer,
		"fee":     fee,
		"sold_at": &at,
	})
}

// MarkCancelled moves an ACTIVE listing to CANCELLED.
func (r *ListingRepository) MarkCancelled(ctx context.Context, tx *gorm.DB, listingID uint64, at time.Time) error {
	return r.updateStatus(ctx, tx, listingID, model.ListingStatusActive, model.ListingStatusCancelled, map[string]interface{}{
		"cancelled_at": &at,
	})
}

func (r *ListingRepository) updateStatus(ctx context.Context, tx *gorm.DB, listingID uint64, fromStatus, toStatus string, extra map[string]interface{}) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrListingStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status":    toStatus,
		"is_active": false,
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.WithContext(ctx).
		Model(&model.Listing{}).
		Where("listing_id = ? AND status = ? AND is_active = ?", listingID, fromStatus, true).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrListingStatusInvalid
	}

	return nil
}

type ListingFilter struct {
	ActiveOnly bool
	Seller     string
}

func (r *ListingRepository) List(ctx context.Context, filter ListingFilter, page, pageSize int) ([]*model.Listing, int64, error) {
	var listings []*model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Seller != "" {
		query = query.Where("seller = ?", filter.Seller)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("listing_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error

	return listings, total, err
}
