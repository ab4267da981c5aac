package ledger

import (
	"context"
	"testing"

	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/database"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const hto = "HTO"

var (
	issuer   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	escrow   = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	nftToken = common.HexToAddress("0x0000000000000000000000000000000000000721")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	return db
}

func balance(t *testing.T, tok *Token, who common.Address) string {
	t.Helper()
	b, err := tok.BalanceOf(context.Background(), nil, hto, who)
	require.NoError(t, err)
	return b.String()
}

func TestMintIsIssuerOnly(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(newTestDB(t), issuer)

	err := tok.Mint(ctx, nil, hto, alice, alice, amount.New(5))
	require.ErrorIs(t, err, ErrIssuerOnly)

	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(5)))
	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(7)))
	assert.Equal(t, "12", balance(t, tok, alice))

	err = tok.Mint(ctx, nil, hto, issuer, common.Address{}, amount.New(1))
	require.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestTransferMovesBalanceAndJournals(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tok := NewToken(db, issuer)
	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(10)))

	require.NoError(t, tok.Transfer(ctx, nil, hto, alice, bob, amount.New(4), "ref-1"))
	assert.Equal(t, "6", balance(t, tok, alice))
	assert.Equal(t, "4", balance(t, tok, bob))

	err := tok.Transfer(ctx, nil, hto, alice, bob, amount.New(7), "ref-2")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "6", balance(t, tok, alice))

	err = tok.Transfer(ctx, nil, hto, alice, common.Address{}, amount.New(1), "")
	require.ErrorIs(t, err, ErrInvalidRecipient)

	entries := repository.NewEntryRepository(db)
	credits, debits, err := entries.Totals(ctx, hto, alice.Hex())
	require.NoError(t, err)
	assert.Equal(t, "10", credits.String())
	assert.Equal(t, "4", debits.String())

	last, err := entries.Last(ctx, hto, bob.Hex())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, model.EntryDirectionCredit, last.Direction)
	assert.Equal(t, "4", last.BalanceAfter.String())
	assert.Equal(t, "ref-1", last.Reference)
}

func TestZeroTransferIsNoop(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tok := NewToken(db, issuer)

	require.NoError(t, tok.Transfer(ctx, nil, hto, alice, bob, amount.Zero(), ""))
	assert.Equal(t, "0", balance(t, tok, bob))

	last, err := repository.NewEntryRepository(db).Last(ctx, hto, bob.Hex())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(newTestDB(t), issuer)
	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(100)))

	err := tok.TransferFrom(ctx, nil, hto, escrow, alice, bob, amount.New(1), "")
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, tok.Approve(ctx, nil, hto, alice, escrow, amount.New(30)))
	require.NoError(t, tok.TransferFrom(ctx, nil, hto, escrow, alice, bob, amount.New(20), ""))

	left, err := tok.Allowance(ctx, nil, hto, alice, escrow)
	require.NoError(t, err)
	assert.Equal(t, "10", left.String())
	assert.Equal(t, "80", balance(t, tok, alice))
	assert.Equal(t, "20", balance(t, tok, bob))

	err = tok.TransferFrom(ctx, nil, hto, escrow, alice, bob, amount.New(11), "")
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromUnlimitedAllowance(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(newTestDB(t), issuer)
	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(5)))
	require.NoError(t, tok.Approve(ctx, nil, hto, alice, escrow, amount.Max()))

	require.NoError(t, tok.TransferFrom(ctx, nil, hto, escrow, alice, bob, amount.New(3), ""))
	left, err := tok.Allowance(ctx, nil, hto, alice, escrow)
	require.NoError(t, err)
	assert.True(t, left.IsMax())

	err = tok.TransferFrom(ctx, nil, hto, escrow, alice, bob, amount.New(3), "")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "2", balance(t, tok, alice))
}

func TestFailedCallInsideTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tok := NewToken(db, issuer)
	require.NoError(t, tok.Mint(ctx, nil, hto, issuer, alice, amount.New(10)))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tok.Transfer(ctx, tx, hto, alice, bob, amount.New(6), ""); err != nil {
			return err
		}
		return tok.Transfer(ctx, tx, hto, alice, bob, amount.New(6), "")
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "10", balance(t, tok, alice))
	assert.Equal(t, "0", balance(t, tok, bob))
}

func TestRegistryOwnershipAndApprovals(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newTestDB(t), issuer)

	_, err := reg.Mint(ctx, nil, alice, nftToken, 1, alice, "")
	require.ErrorIs(t, err, ErrIssuerOnly)

	_, err = reg.Mint(ctx, nil, issuer, nftToken, 1, alice, "ipfs://1")
	require.NoError(t, err)
	_, err = reg.Mint(ctx, nil, issuer, nftToken, 1, bob, "")
	require.ErrorIs(t, err, ErrAssetExists)

	owner, err := reg.OwnerOf(ctx, nil, nftToken, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	_, err = reg.OwnerOf(ctx, nil, nftToken, 2)
	require.ErrorIs(t, err, ErrAssetNotFound)

	ok, err := reg.IsApprovedForTransfer(ctx, nil, nftToken, 1, escrow)
	require.NoError(t, err)
	assert.False(t, ok)

	err = reg.TransferOwnership(ctx, nil, nftToken, 1, escrow, alice, bob)
	require.ErrorIs(t, err, ErrNotApproved)

	require.ErrorIs(t, reg.Approve(ctx, nil, bob, nftToken, 1, escrow), ErrNotOwner)
	require.NoError(t, reg.Approve(ctx, nil, alice, nftToken, 1, escrow))

	ok, err = reg.IsApprovedForTransfer(ctx, nil, nftToken, 1, escrow)
	require.NoError(t, err)
	assert.True(t, ok)

	err = reg.TransferOwnership(ctx, nil, nftToken, 1, escrow, bob, alice)
	require.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, reg.TransferOwnership(ctx, nil, nftToken, 1, escrow, alice, bob))
	owner, err = reg.OwnerOf(ctx, nil, nftToken, 1)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	// approval does not survive a transfer
	ok, err = reg.IsApprovedForTransfer(ctx, nil, nftToken, 1, escrow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryOperatorApproval(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newTestDB(t), issuer)
	_, err := reg.Mint(ctx, nil, issuer, nftToken, 7, alice, "")
	require.NoError(t, err)

	require.ErrorIs(t, reg.SetApprovalForAll(ctx, nil, alice, nftToken, alice, true), ErrInvalidOperator)
	require.NoError(t, reg.SetApprovalForAll(ctx, nil, alice, nftToken, escrow, true))
	require.NoError(t, reg.SetApprovalForAll(ctx, nil, alice, nftToken, escrow, true))

	ok, err := reg.IsApprovedForTransfer(ctx, nil, nftToken, 7, escrow)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, reg.SetApprovalForAll(ctx, nil, alice, nftToken, escrow, false))
	ok, err = reg.IsApprovedForTransfer(ctx, nil, nftToken, 7, escrow)
	require.NoError(t, err)
	assert.False(t, ok)
}
