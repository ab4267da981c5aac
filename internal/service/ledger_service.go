package service

import (
	"context"
	"time"

	"dailytrack/internal/ledger"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

const componentLedger = "ledger"

// LedgerService exposes the token ledger and asset registry to account
// holders. Writes go through the executor like every other operation.
type LedgerService struct {
	exec     *Executor
	token    *ledger.Token
	registry *ledger.Registry
	entries  *repository.EntryRepository
	settings *repository.SettingRepository
}

func NewLedgerService(exec *Executor, token *ledger.Token, registry *ledger.Registry) *LedgerService {
	return &LedgerService{
		exec:     exec,
		token:    token,
		registry: registry,
		entries:  repository.NewEntryRepository(exec.DB()),
		settings: repository.NewSettingRepository(exec.DB()),
	}
}

// guardCustody rejects callers that are a deployed component's custody
// account. Those balances leave only through the component's own operations.
func (s *LedgerService) guardCustody(ctx context.Context, tx *gorm.DB, caller common.Address) error {
	settings, err := s.settings.List(ctx, tx)
	if err != nil {
		return err
	}
	for _, setting := range settings {
		if setting.Address == caller.Hex() {
			return ErrCustodyCaller
		}
	}
	return nil
}

func (s *LedgerService) BalanceOf(ctx context.Context, token string, account common.Address) (amount.Amount, error) {
	return s.token.BalanceOf(ctx, nil, token, account)
}

func (s *LedgerService) Allowance(ctx context.Context, token string, owner, spender common.Address) (amount.Amount, error) {
	return s.token.Allowance(ctx, nil, token, owner, spender)
}

func (s *LedgerService) Approve(ctx context.Context, caller common.Address, token string, spender common.Address, value amount.Amount) error {
	return s.exec.Run(ctx, componentLedger, "approve", func(tx *gorm.DB, _ time.Time) error {
		if err := s.guardCustody(ctx, tx, caller); err != nil {
			return err
		}
		return fromLedger(s.token.Approve(ctx, tx, token, caller, spender, value))
	})
}

func (s *LedgerService) Transfer(ctx context.Context, caller common.Address, token string, to common.Address, value amount.Amount) error {
	return s.exec.Run(ctx, componentLedger, "transfer", func(tx *gorm.DB, _ time.Time) error {
		if err := s.guardCustody(ctx, tx, caller); err != nil {
			return err
		}
		return fromLedger(s.token.Transfer(ctx, tx, token, caller, to, value, "ledger:transfer"))
	})
}

func (s *LedgerService) Mint(ctx context.Context, caller common.Address, token string, to common.Address, value amount.Amount) error {
	return s.exec.Run(ctx, componentLedger, "mint", func(tx *gorm.DB, _ time.Time) error {
		return fromLedger(s.token.Mint(ctx, tx, token, caller, to, value))
	})
}

func (s *LedgerService) Entries(ctx context.Context, token string, account common.Address, page, pageSize int) ([]*model.LedgerEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.entries.ListByAccount(ctx, token, account.Hex(), page, pageSize)
}

func (s *LedgerService) Asset(ctx context.Context, contract common.Address, assetID uint64) (*model.Asset, error) {
	asset, err := s.registry.Get(ctx, nil, contract, assetID)
	if err != nil {
		return nil, fromLedger(err)
	}
	return asset, nil
}

func (s *LedgerService) AssetsOf(ctx context.Context, owner common.Address) ([]*model.Asset, error) {
	return s.registry.ListOwned(ctx, owner)
}

func (s *LedgerService) ApproveAsset(ctx context.Context, caller, contract common.Address, assetID uint64, operator common.Address) error {
	return s.exec.Run(ctx, componentLedger, "approve_asset", func(tx *gorm.DB, _ time.Time) error {
		if err := s.guardCustody(ctx, tx, caller); err != nil {
			return err
		}
		return fromLedger(s.registry.Approve(ctx, tx, caller, contract, assetID, operator))
	})
}

func (s *LedgerService) SetApprovalForAll(ctx context.Context, caller, contract, operator common.Address, approved bool) error {
	return s.exec.Run(ctx, componentLedger, "set_approval_for_all", func(tx *gorm.DB, _ time.Time) error {
		if err := s.guardCustody(ctx, tx, caller); err != nil {
			return err
		}
		return fromLedger(s.registry.SetApprovalForAll(ctx, tx, caller, contract, operator, approved))
	})
}

func (s *LedgerService) MintAsset(ctx context.Context, caller, contract common.Address, assetID uint64, to common.Address, uri string) (*model.Asset, error) {
	var asset *model.Asset
	err := s.exec.Run(ctx, componentLedger, "mint_asset", func(tx *gorm.DB, _ time.Time) error {
		minted, err := s.registry.Mint(ctx, tx, caller, contract, assetID, to, uri)
		if err != nil {
			return fromLedger(err)
		}
		asset = minted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}
