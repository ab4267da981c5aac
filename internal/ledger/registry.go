package ledger

import (
	"context"
	"errors"

	"dailytrack/internal/model"
	"dailytrack/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Registry records ownership of non-fungible assets, keyed by
// (contract, asset id). An operator may move an asset when it holds the
// single-asset approval or an approval for all of the owner's assets in that
// contract.
type Registry struct {
	db     *gorm.DB
	issuer common.Address
	assets *repository.AssetRepository
}

func NewRegistry(db *gorm.DB, issuer common.Address) *Registry {
	return &Registry{
		db:     db,
		issuer: issuer,
		assets: repository.NewAssetRepository(db),
	}
}

func (r *Registry) Get(ctx context.Context, tx *gorm.DB, contract common.Address, assetID uint64) (*model.Asset, error) {
	asset, err := r.assets.Get(ctx, tx, contract.Hex(), assetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return asset, nil
}

func (r *Registry) OwnerOf(ctx context.Context, tx *gorm.DB, contract common.Address, assetID uint64) (common.Address, error) {
	asset, err := r.Get(ctx, tx, contract, assetID)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(asset.Owner), nil
}

func (r *Registry) IsApprovedForTransfer(ctx context.Context, tx *gorm.DB, contract common.Address, assetID uint64, operator common.Address) (bool, error) {
	asset, err := r.Get(ctx, tx, contract, assetID)
	if err != nil {
		return false, err
	}
	return r.canMove(ctx, tx, asset, operator)
}

func (r *Registry) canMove(ctx context.Context, tx *gorm.DB, asset *model.Asset, operator common.Address) (bool, error) {
	if asset.Owner == operator.Hex() || (asset.Approved != "" && asset.Approved == operator.Hex()) {
		return true, nil
	}
	return r.assets.IsOperator(ctx, tx, asset.Contract, asset.Owner, operator.Hex())
}

func (r *Registry) IsApprovedForAll(ctx context.Context, tx *gorm.DB, contract, owner, operator common.Address) (bool, error) {
	return r.assets.IsOperator(ctx, tx, contract.Hex(), owner.Hex(), operator.Hex())
}

// Approve sets the single-asset approval. The zero address clears it. The
// caller must be the owner or one of the owner's operators.
func (r *Registry) Approve(ctx context.Context, tx *gorm.DB, caller, contract common.Address, assetID uint64, operator common.Address) error {
	return r.inTx(tx, func(tx *gorm.DB) error {
		asset, err := r.getForUpdate(ctx, tx, contract, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != caller.Hex() {
			isOp, err := r.assets.IsOperator(ctx, tx, asset.Contract, asset.Owner, caller.Hex())
			if err != nil {
				return err
			}
			if !isOp {
				return ErrNotOwner
			}
		}
		approved := ""
		if operator != (common.Address{}) {
			approved = operator.Hex()
		}
		return r.assets.SetApproved(ctx, tx, asset.ID, approved)
	})
}

func (r *Registry) SetApprovalForAll(ctx context.Context, tx *gorm.DB, owner, contract, operator common.Address, approved bool) error {
	if operator == (common.Address{}) || operator == owner {
		return ErrInvalidOperator
	}
	return r.assets.SetOperator(ctx, tx, contract.Hex(), owner.Hex(), operator.Hex(), approved)
}

// TransferOwnership moves the asset from from to to on behalf of operator and
// clears its single-asset approval.
func (r *Registry) TransferOwnership(ctx context.Context, tx *gorm.DB, contract common.Address, assetID uint64, operator, from, to common.Address) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	return r.inTx(tx, func(tx *gorm.DB) error {
		asset, err := r.getForUpdate(ctx, tx, contract, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != from.Hex() {
			return ErrNotOwner
		}
		ok, err := r.canMove(ctx, tx, asset, operator)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotApproved
		}
		if err := r.assets.MoveOwner(ctx, tx, asset.ID, from.Hex(), to.Hex()); err != nil {
			if errors.Is(err, repository.ErrOptimisticLock) {
				return ErrNotOwner
			}
			return err
		}
		return nil
	})
}

// Mint registers a new asset owned by to. Only the issuer may mint.
func (r *Registry) Mint(ctx context.Context, tx *gorm.DB, caller, contract common.Address, assetID uint64, to common.Address, uri string) (*model.Asset, error) {
	if caller != r.issuer {
		return nil, ErrIssuerOnly
	}
	if to == (common.Address{}) {
		return nil, ErrInvalidRecipient
	}
	asset := &model.Asset{
		Contract: contract.Hex(),
		AssetID:  assetID,
		Owner:    to.Hex(),
		URI:      uri,
	}
	if err := r.assets.Create(ctx, tx, asset); err != nil {
		if errors.Is(err, repository.ErrAssetDuplicate) {
			return nil, ErrAssetExists
		}
		return nil, err
	}
	return asset, nil
}

func (r *Registry) ListOwned(ctx context.Context, owner common.Address) ([]*model.Asset, error) {
	return r.assets.ListByOwner(ctx, owner.Hex())
}

func (r *Registry) getForUpdate(ctx context.Context, tx *gorm.DB, contract common.Address, assetID uint64) (*model.Asset, error) {
	asset, err := r.assets.GetForUpdate(ctx, tx, contract.Hex(), assetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return asset, nil
}

func (r *Registry) inTx(tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return r.db.Transaction(fn)
}
