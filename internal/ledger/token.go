package ledger

import (
	"context"
	"errors"
	"fmt"

	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"
	"dailytrack/pkg/idgen"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ============================================================================
// Token ledger
// ============================================================================
//
// Balances of every fungible token held by this service. Every method takes
// an optional tx: callers that need several ledger calls to commit or fail
// together pass their own transaction, a nil tx runs the call on its own.
//
// Each balance movement writes a DEBIT entry for the payer and a CREDIT entry
// for the payee, so the journal alone can rebuild any balance.
//
// ============================================================================

type Token struct {
	db         *gorm.DB
	issuer     common.Address
	balances   *repository.BalanceRepository
	allowances *repository.AllowanceRepository
	entries    *repository.EntryRepository
}

func NewToken(db *gorm.DB, issuer common.Address) *Token {
	return &Token{
		db:         db,
		issuer:     issuer,
		balances:   repository.NewBalanceRepository(db),
		allowances: repository.NewAllowanceRepository(db),
		entries:    repository.NewEntryRepository(db),
	}
}

func (t *Token) Issuer() common.Address { return t.issuer }

func (t *Token) BalanceOf(ctx context.Context, tx *gorm.DB, token string, account common.Address) (amount.Amount, error) {
	balance, err := t.balances.Get(ctx, tx, token, account.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return amount.Zero(), nil
		}
		return amount.Zero(), err
	}
	return balance.Amount, nil
}

func (t *Token) Allowance(ctx context.Context, tx *gorm.DB, token string, owner, spender common.Address) (amount.Amount, error) {
	return t.allowances.Get(ctx, tx, token, owner.Hex(), spender.Hex())
}

// Approve sets the allowance of spender over owner's balance. amount.Max()
// grants an allowance that transferFrom never decrements.
func (t *Token) Approve(ctx context.Context, tx *gorm.DB, token string, owner, spender common.Address, value amount.Amount) error {
	if spender == (common.Address{}) {
		return ErrInvalidRecipient
	}
	return t.allowances.Set(ctx, tx, token, owner.Hex(), spender.Hex(), value)
}

// Transfer moves value from the caller's own balance.
func (t *Token) Transfer(ctx context.Context, tx *gorm.DB, token string, from, to common.Address, value amount.Amount, ref string) error {
	return t.inTx(tx, func(tx *gorm.DB) error {
		return t.move(ctx, tx, token, from, to, value, model.EntryTypeTransfer, ref)
	})
}

// TransferFrom moves value from one holder to another on the authority of
// spender's allowance.
func (t *Token) TransferFrom(ctx context.Context, tx *gorm.DB, token string, spender, from, to common.Address, value amount.Amount, ref string) error {
	return t.inTx(tx, func(tx *gorm.DB) error {
		allowed, err := t.allowances.Get(ctx, tx, token, from.Hex(), spender.Hex())
		if err != nil {
			return err
		}
		if allowed.LessThan(value) {
			return ErrInsufficientAllowance
		}

		if err := t.move(ctx, tx, token, from, to, value, model.EntryTypeTransferFrom, ref); err != nil {
			return err
		}

		if allowed.IsMax() || value.IsZero() {
			return nil
		}
		remaining, _ := allowed.Sub(value)
		return t.allowances.Set(ctx, tx, token, from.Hex(), spender.Hex(), remaining)
	})
}

// Mint creates value new tokens for to. Only the issuer may mint.
func (t *Token) Mint(ctx context.Context, tx *gorm.DB, token string, caller, to common.Address, value amount.Amount) error {
	if caller != t.issuer {
		return ErrIssuerOnly
	}
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if value.IsZero() {
		return nil
	}
	return t.inTx(tx, func(tx *gorm.DB) error {
		bal, err := t.balances.GetOrCreateForUpdate(ctx, tx, token, to.Hex())
		if err != nil {
			return err
		}
		after, overflow := bal.Amount.Add(value)
		if overflow {
			return ErrOverflow
		}
		if err := t.balances.Save(ctx, tx, bal.ID, after, bal.Version); err != nil {
			return err
		}
		return t.entries.Create(ctx, tx, &model.LedgerEntry{
			EntryNo:       idgen.GenerateEntryNo(),
			Token:         token,
			Account:       to.Hex(),
			Counterparty:  common.Address{}.Hex(),
			Direction:     model.EntryDirectionCredit,
			Type:          model.EntryTypeMint,
			Amount:        value,
			BalanceBefore: bal.Amount,
			BalanceAfter:  after,
		})
	})
}

func (t *Token) move(ctx context.Context, tx *gorm.DB, token string, from, to common.Address, value amount.Amount, entryType, ref string) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}

	fromBal, err := t.balances.GetOrCreateForUpdate(ctx, tx, token, from.Hex())
	if err != nil {
		return fmt.Errorf("load payer balance: %w", err)
	}
	if fromBal.Amount.LessThan(value) {
		return ErrInsufficientBalance
	}
	if value.IsZero() || from == to {
		return nil
	}

	toBal, err := t.balances.GetOrCreateForUpdate(ctx, tx, token, to.Hex())
	if err != nil {
		return fmt.Errorf("load payee balance: %w", err)
	}

	fromAfter, _ := fromBal.Amount.Sub(value)
	toAfter, overflow := toBal.Amount.Add(value)
	if overflow {
		return ErrOverflow
	}

	if err := t.balances.Save(ctx, tx, fromBal.ID, fromAfter, fromBal.Version); err != nil {
		return err
	}
	if err := t.balances.Save(ctx, tx, toBal.ID, toAfter, toBal.Version); err != nil {
		return err
	}

	debit := &model.LedgerEntry{
		EntryNo:       idgen.GenerateEntryNo(),
		Token:         token,
		Account:       from.Hex(),
		Counterparty:  to.Hex(),
		Direction:     model.EntryDirectionDebit,
		Type:          entryType,
		Amount:        value,
		BalanceBefore: fromBal.Amount,
		BalanceAfter:  fromAfter,
		Reference:     ref,
	}
	if err := t.entries.Create(ctx, tx, debit); err != nil {
		return fmt.Errorf("write debit entry: %w", err)
	}

	credit := &model.LedgerEntry{
		EntryNo:       idgen.GenerateEntryNo(),
		Token:         token,
		Account:       to.Hex(),
		Counterparty:  from.Hex(),
		Direction:     model.EntryDirectionCredit,
		Type:          entryType,
		Amount:        value,
		BalanceBefore: toBal.Amount,
		BalanceAfter:  toAfter,
		Reference:     ref,
	}
	if err := t.entries.Create(ctx, tx, credit); err != nil {
		return fmt.Errorf("write credit entry: %w", err)
	}
	return nil
}

func (t *Token) inTx(tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return t.db.Transaction(fn)
}
