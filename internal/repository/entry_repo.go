package repository

import (
	"context"
	"errors"

	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"gorm.io/gorm"
)

var ErrEntryOverflow = errors.New("journal totals overflow")

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *EntryRepository) ListByAccount(ctx context.Context, token, account string, page, pageSize int) ([]*model.LedgerEntry, int64, error) {
	var entries []*model.LedgerEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("token = ? AND account = ?", token, account)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}

// Last returns the most recent entry of the account, nil when it has none.
func (r *EntryRepository) Last(ctx context.Context, token, account string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("token = ? AND account = ?", token, account).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Totals sums every credit and debit ever journaled for the account.
// Amounts are stored as decimal strings, so the sum is done here rather than
// in SQL.
func (r *EntryRepository) Totals(ctx context.Context, token, account string) (credits, debits amount.Amount, err error) {
	var batch []*model.LedgerEntry
	var overflow bool
	result := r.db.WithContext(ctx).
		Where("token = ? AND account = ?", token, account).
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, e := range batch {
				var of bool
				switch e.Direction {
				case model.EntryDirectionCredit:
					credits, of = credits.Add(e.Amount)
				case model.EntryDirectionDebit:
					debits, of = debits.Add(e.Amount)
				}
				if of {
					overflow = true
					return ErrEntryOverflow
				}
			}
			return nil
		})
	if overflow {
		return amount.Zero(), amount.Zero(), ErrEntryOverflow
	}
	if result.Error != nil {
		return amount.Zero(), amount.Zero(), result.Error
	}
	return credits, debits, nil
}
