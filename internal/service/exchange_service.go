package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailytrack/internal/ledger"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ============================================================================
// Exchange escrow
// ============================================================================
//
// Sellers list assets they own and have approved the escrow to move. The
// asset stays with the seller until it is bought; cancelling only
// deactivates the listing.
//
// A purchase is, in this order and inside one transaction:
//
//   1. pull price from the buyer into the escrow (buyer's allowance)
//   2. pay price - fee to the seller, the fee stays with the escrow
//   3. move the asset from seller to buyer (escrow's approval)
//   4. mark the listing SOLD
//
// Any failure rolls back every earlier step.
//
// ============================================================================

type ExchangeService struct {
	exec      *Executor
	events    *EventWriter
	token     *ledger.Token
	registry  *ledger.Registry
	settings  *repository.SettingRepository
	listings  *repository.ListingRepository
	sequences *repository.SequenceRepository
	log       *logrus.Entry
}

func NewExchangeService(exec *Executor, token *ledger.Token, registry *ledger.Registry, events *EventWriter) *ExchangeService {
	db := exec.DB()
	return &ExchangeService{
		exec:      exec,
		events:    events,
		token:     token,
		registry:  registry,
		settings:  repository.NewSettingRepository(db),
		listings:  repository.NewListingRepository(db),
		sequences: repository.NewSequenceRepository(db),
		log:       logrus.WithField("component", model.ComponentExchangeEscrow),
	}
}

type ExchangeDeployment struct {
	Owner        common.Address
	PaymentToken string
	Address      common.Address
	FeePercent   uint32
}

type ExchangeConfig struct {
	Owner              string `json:"owner"`
	PaymentToken       string `json:"payment_token"`
	Address            string `json:"address"`
	PlatformFeePercent uint32 `json:"platform_fee_percent"`
}

type PurchaseReceipt struct {
	ListingID uint64        `json:"listing_id"`
	Buyer     string        `json:"buyer"`
	Seller    string        `json:"seller"`
	Price     amount.Amount `json:"price"`
	Fee       amount.Amount `json:"fee"`
	Proceeds  amount.Amount `json:"proceeds"`
}

type Quote struct {
	ListingID          uint64        `json:"listing_id"`
	Price              amount.Amount `json:"price"`
	PlatformFeePercent uint32        `json:"platform_fee_percent"`
	Fee                amount.Amount `json:"fee"`
	Proceeds           amount.Amount `json:"proceeds"`
}

// splitPrice returns the platform fee, rounded down, and what the seller
// receives. fee + proceeds == price.
func splitPrice(price amount.Amount, feePercent uint32) (fee, proceeds amount.Amount) {
	fee = price.Bps(uint64(feePercent))
	proceeds, _ = price.Sub(fee)
	return fee, proceeds
}

func (s *ExchangeService) Bootstrap(ctx context.Context, d ExchangeDeployment) (*ExchangeConfig, error) {
	if d.Owner == (common.Address{}) || d.Address == (common.Address{}) || d.PaymentToken == "" {
		return nil, fmt.Errorf("exchange escrow deployment needs owner, address and payment token")
	}
	if d.FeePercent > amount.BasisPoints {
		return nil, ErrInvalidFeePercent
	}

	if other, err := s.settings.FindByAddress(ctx, nil, d.Address.Hex(), model.ComponentExchangeEscrow); err != nil {
		return nil, fmt.Errorf("deploy exchange escrow: %w", err)
	} else if other != nil {
		return nil, ErrAddressInUse.wrap(fmt.Errorf("%s already uses %s", other.Component, other.Address))
	}

	setting, created, err := s.settings.CreateIfAbsent(ctx, &model.ComponentSetting{
		Component:   model.ComponentExchangeEscrow,
		Owner:       d.Owner.Hex(),
		Token:       d.PaymentToken,
		Address:     d.Address.Hex(),
		DailyReward: amount.Zero(),
		FeePercent:  d.FeePercent,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy exchange escrow: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"owner":       setting.Owner,
		"address":     setting.Address,
		"token":       setting.Token,
		"fee_percent": setting.FeePercent,
		"created":     created,
	}).Info("exchange escrow ready")
	return exchangeConfig(setting), nil
}

func (s *ExchangeService) config(ctx context.Context, tx *gorm.DB) (*model.ComponentSetting, error) {
	setting, err := s.settings.Get(ctx, tx, model.ComponentExchangeEscrow)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return nil, ErrNotConfigured.wrap(err)
		}
		return nil, err
	}
	return setting, nil
}

func (s *ExchangeService) ListNFT(ctx context.Context, caller, assetContract common.Address, assetID uint64, price amount.Amount) (*model.Listing, error) {
	if price.IsZero() {
		return nil, ErrInvalidPrice
	}

	var listing *model.Listing
	err := s.exec.Run(ctx, model.ComponentExchangeEscrow, "list_nft", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}

		owner, err := s.registry.OwnerOf(ctx, tx, assetContract, assetID)
		if err != nil {
			if errors.Is(err, ledger.ErrAssetNotFound) {
				return ErrNotOwner.wrap(err)
			}
			return err
		}
		if owner != caller {
			return ErrNotOwner
		}

		approved, err := s.registry.IsApprovedForTransfer(ctx, tx, assetContract, assetID, common.HexToAddress(cfg.Address))
		if err != nil {
			return err
		}
		if !approved {
			return ErrNotApproved
		}

		listingID, err := s.sequences.Next(ctx, tx, model.SequenceListing)
		if err != nil {
			return fmt.Errorf("allocate listing id: %w", err)
		}

		listing = &model.Listing{
			ListingID:     listingID,
			AssetContract: assetContract.Hex(),
			AssetID:       assetID,
			Seller:        caller.Hex(),
			Price:         price,
			IsActive:      true,
			Status:        model.ListingStatusActive,
			Fee:           amount.Zero(),
		}
		if err := s.listings.Create(ctx, tx, listing); err != nil {
			return fmt.Errorf("create listing: %w", err)
		}

		return s.events.Emit(ctx, tx, EventNFTListed, now, map[string]interface{}{
			"listing_id":     listingID,
			"asset_contract": listing.AssetContract,
			"asset_id":       assetID,
			"seller":         listing.Seller,
			"price":          price,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": listing.ListingID,
		"seller":     listing.Seller,
		"price":      listing.Price.String(),
	}).Info("nft listed")
	return listing, nil
}

func (s *ExchangeService) PurchaseNFT(ctx context.Context, caller common.Address, listingID uint64) (*PurchaseReceipt, error) {
	var receipt *PurchaseReceipt
	err := s.exec.Run(ctx, model.ComponentExchangeEscrow, "purchase_nft", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}

		listing, err := s.listings.GetForUpdate(ctx, tx, listingID)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				return ErrListingNotActive.wrap(err)
			}
			return err
		}
		if !listing.IsActive {
			return ErrListingNotActive
		}
		if listing.Seller == caller.Hex() {
			return ErrSelfPurchase
		}

		escrow := common.HexToAddress(cfg.Address)
		seller := common.HexToAddress(listing.Seller)
		fee, proceeds := splitPrice(listing.Price, cfg.FeePercent)
		ref := fmt.Sprintf("exchange:purchase:%d", listing.ListingID)

		if err := s.token.TransferFrom(ctx, tx, cfg.Token, escrow, caller, escrow, listing.Price, ref); err != nil {
			return pullRejected(err, ErrPaymentRejected)
		}
		if err := s.token.Transfer(ctx, tx, cfg.Token, escrow, seller, proceeds, ref); err != nil {
			return custodyPayout(err)
		}
		if err := s.registry.TransferOwnership(ctx, tx, common.HexToAddress(listing.AssetContract), listing.AssetID, escrow, seller, caller); err != nil {
			if errors.Is(err, ledger.ErrAssetNotFound) {
				return ErrNotOwner.wrap(err)
			}
			return fromLedger(err)
		}

		if err := s.listings.MarkSold(ctx, tx, listing.ListingID, caller.Hex(), fee, now); err != nil {
			if errors.Is(err, repository.ErrListingStatusInvalid) {
				return ErrListingNotActive.wrap(err)
			}
			return err
		}

		if err := s.events.Emit(ctx, tx, EventNFTPurchased, now, map[string]interface{}{
			"listing_id": listing.ListingID,
			"buyer":      caller.Hex(),
			"price":      listing.Price,
			"seller":     listing.Seller,
			"fee":        fee,
		}); err != nil {
			return err
		}

		receipt = &PurchaseReceipt{
			ListingID: listing.ListingID,
			Buyer:     caller.Hex(),
			Seller:    listing.Seller,
			Price:     listing.Price,
			Fee:       fee,
			Proceeds:  proceeds,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": receipt.ListingID,
		"buyer":      receipt.Buyer,
		"price":      receipt.Price.String(),
		"fee":        receipt.Fee.String(),
	}).Info("nft purchased")
	return receipt, nil
}

// CancelListing deactivates an active listing. The asset never left the
// seller, so nothing is moved.
func (s *ExchangeService) CancelListing(ctx context.Context, caller common.Address, listingID uint64) error {
	return s.exec.Run(ctx, model.ComponentExchangeEscrow, "cancel_listing", func(tx *gorm.DB, now time.Time) error {
		listing, err := s.listings.GetForUpdate(ctx, tx, listingID)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				return ErrListingNotActive.wrap(err)
			}
			return err
		}
		if listing.Seller != caller.Hex() {
			return ErrNotSeller
		}
		if !listing.IsActive {
			return ErrListingNotActive
		}

		if err := s.listings.MarkCancelled(ctx, tx, listingID, now); err != nil {
			if errors.Is(err, repository.ErrListingStatusInvalid) {
				return ErrListingNotActive.wrap(err)
			}
			return err
		}
		return s.events.Emit(ctx, tx, EventListingCancelled, now, map[string]interface{}{
			"listing_id": listingID,
		})
	})
}

func (s *ExchangeService) UpdatePlatformFee(ctx context.Context, caller common.Address, feePercent uint32) error {
	return s.exec.Run(ctx, model.ComponentExchangeEscrow, "update_platform_fee", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}
		if cfg.Owner != caller.Hex() {
			return ErrUnauthorized
		}
		if feePercent > amount.BasisPoints {
			return ErrInvalidFeePercent
		}
		if err := s.settings.UpdateFeePercent(ctx, tx, model.ComponentExchangeEscrow, feePercent); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, EventPlatformFeeUpdated, now, map[string]interface{}{
			"new_fee_percent": feePercent,
		})
	})
}

// WithdrawFees sends the escrow's whole custody balance to the owner and
// returns the amount sent.
func (s *ExchangeService) WithdrawFees(ctx context.Context, caller common.Address) (amount.Amount, error) {
	var withdrawn amount.Amount
	err := s.exec.Run(ctx, model.ComponentExchangeEscrow, "withdraw_fees", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}
		if cfg.Owner != caller.Hex() {
			return ErrUnauthorized
		}

		escrow := common.HexToAddress(cfg.Address)
		balance, err := s.token.BalanceOf(ctx, tx, cfg.Token, escrow)
		if err != nil {
			return err
		}
		ref := fmt.Sprintf("exchange:withdraw:%d", now.UnixNano())
		if err := s.token.Transfer(ctx, tx, cfg.Token, escrow, common.HexToAddress(cfg.Owner), balance, ref); err != nil {
			return custodyPayout(err)
		}

		withdrawn = balance
		return s.events.Emit(ctx, tx, EventFeeWithdrawn, now, map[string]interface{}{
			"amount": balance,
		})
	})
	if err != nil {
		return amount.Zero(), err
	}

	s.log.WithField("amount", withdrawn.String()).Info("fees withdrawn")
	return withdrawn, nil
}

func (s *ExchangeService) GetConfig(ctx context.Context) (*ExchangeConfig, error) {
	cfg, err := s.config(ctx, nil)
	if err != nil {
		return nil, err
	}
	return exchangeConfig(cfg), nil
}

func (s *ExchangeService) GetListing(ctx context.Context, listingID uint64) (*model.Listing, error) {
	listing, err := s.listings.Get(ctx, nil, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound.wrap(err)
		}
		return nil, err
	}
	return listing, nil
}

func (s *ExchangeService) ListListings(ctx context.Context, filter repository.ListingFilter, page, pageSize int) ([]*model.Listing, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.listings.List(ctx, filter, page, pageSize)
}

// AccumulatedFees is the escrow's custody balance of the payment token.
func (s *ExchangeService) AccumulatedFees(ctx context.Context) (amount.Amount, error) {
	cfg, err := s.config(ctx, nil)
	if err != nil {
		return amount.Zero(), err
	}
	return s.token.BalanceOf(ctx, nil, cfg.Token, common.HexToAddress(cfg.Address))
}

// Quote previews the fee split of an active listing at the current fee rate.
func (s *ExchangeService) Quote(ctx context.Context, listingID uint64) (*Quote, error) {
	cfg, err := s.config(ctx, nil)
	if err != nil {
		return nil, err
	}
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive {
		return nil, ErrListingNotActive
	}
	fee, proceeds := splitPrice(listing.Price, cfg.FeePercent)
	return &Quote{
		ListingID:          listing.ListingID,
		Price:              listing.Price,
		PlatformFeePercent: cfg.FeePercent,
		Fee:                fee,
		Proceeds:           proceeds,
	}, nil
}

func exchangeConfig(s *model.ComponentSetting) *ExchangeConfig {
	return &ExchangeConfig{
		Owner:              s.Owner,
		PaymentToken:       s.Token,
		Address:            s.Address,
		PlatformFeePercent: s.FeePercent,
	}
}
