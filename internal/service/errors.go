package service

import (
	"errors"
	"fmt"

	"dailytrack/internal/ledger"
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindNotOwner          Kind = "NOT_OWNER"
	KindNotApproved       Kind = "NOT_APPROVED"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindInternal          Kind = "INTERNAL"
)

// Error is a failure reported to the caller. Two errors match under
// errors.Is when their codes are equal, so wrapped copies still match the
// sentinel they came from.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// KindOf reports the kind of err, KindInternal for errors not raised by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUnauthorized  = newError(KindUnauthorized, "UNAUTHORIZED", "caller is not the owner")
	ErrNotSeller     = newError(KindUnauthorized, "NOT_SELLER", "caller is not the seller")
	ErrIssuerOnly    = newError(KindUnauthorized, "ISSUER_ONLY", "caller is not the issuer")
	ErrCustodyCaller = newError(KindUnauthorized, "UNAUTHORIZED", "custody accounts move funds only through their component")

	ErrZeroAmount        = newError(KindInvalidArgument, "ZERO_AMOUNT", "amount must be greater than zero")
	ErrInvalidPrice      = newError(KindInvalidArgument, "INVALID_PRICE", "price must be greater than zero")
	ErrSelfPurchase      = newError(KindInvalidArgument, "SELF_PURCHASE", "seller cannot buy own listing")
	ErrInvalidFeePercent = newError(KindInvalidArgument, "INVALID_FEE_PERCENT", "fee percent exceeds 10000 basis points")
	ErrInvalidRecipient  = newError(KindInvalidArgument, "INVALID_RECIPIENT", "recipient is the zero address")
	ErrInvalidOperator   = newError(KindInvalidArgument, "INVALID_OPERATOR", "operator is the zero address or the owner")
	ErrOverflow          = newError(KindInvalidArgument, "OVERFLOW", "amount overflows")
	ErrAddressInUse      = newError(KindInvalidArgument, "ADDRESS_IN_USE", "address is already the custody account of another component")

	ErrNotOwner    = newError(KindNotOwner, "NOT_OWNER", "caller does not own the asset")
	ErrNotApproved = newError(KindNotApproved, "NOT_APPROVED", "escrow is not approved for the asset")

	ErrListingNotFound = newError(KindNotFound, "LISTING_NOT_FOUND", "listing not found")
	ErrAssetNotFound   = newError(KindNotFound, "ASSET_NOT_FOUND", "asset not found")

	ErrAlreadyClaimedToday = newError(KindInvalidState, "ALREADY_CLAIMED_TODAY", "daily reward already claimed")
	ErrListingNotActive    = newError(KindInvalidState, "LISTING_NOT_ACTIVE", "listing is not active")
	ErrAssetExists         = newError(KindInvalidState, "ASSET_EXISTS", "asset already minted")

	ErrInsufficientCustodyFunds = newError(KindInsufficientFunds, "INSUFFICIENT_CUSTODY_FUNDS", "custody balance too low")
	ErrTransferRejected         = newError(KindInsufficientFunds, "TRANSFER_REJECTED", "token transfer rejected")
	ErrPaymentRejected          = newError(KindInsufficientFunds, "PAYMENT_REJECTED", "payment rejected")
	ErrInsufficientBalance      = newError(KindInsufficientFunds, "INSUFFICIENT_BALANCE", "insufficient balance")
	ErrInsufficientAllowance    = newError(KindNotApproved, "INSUFFICIENT_ALLOWANCE", "insufficient allowance")

	ErrNotConfigured = newError(KindInternal, "NOT_CONFIGURED", "component is not deployed")
	ErrBusy          = newError(KindInternal, "BUSY", "system busy, retry later")
)

// fromLedger translates ledger and registry failures.
func fromLedger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return ErrInsufficientBalance.wrap(err)
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return ErrInsufficientAllowance.wrap(err)
	case errors.Is(err, ledger.ErrInvalidRecipient):
		return ErrInvalidRecipient.wrap(err)
	case errors.Is(err, ledger.ErrOverflow):
		return ErrOverflow.wrap(err)
	case errors.Is(err, ledger.ErrIssuerOnly):
		return ErrIssuerOnly.wrap(err)
	case errors.Is(err, ledger.ErrAssetNotFound):
		return ErrAssetNotFound.wrap(err)
	case errors.Is(err, ledger.ErrAssetExists):
		return ErrAssetExists.wrap(err)
	case errors.Is(err, ledger.ErrNotOwner):
		return ErrNotOwner.wrap(err)
	case errors.Is(err, ledger.ErrNotApproved):
		return ErrNotApproved.wrap(err)
	case errors.Is(err, ledger.ErrInvalidOperator):
		return ErrInvalidOperator.wrap(err)
	default:
		return err
	}
}

// custodyPayout maps failures of a transfer out of a component's own balance.
func custodyPayout(err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return ErrInsufficientCustodyFunds.wrap(err)
	}
	return fromLedger(err)
}

// pullRejected maps failures of a transferFrom into a component's balance.
func pullRejected(err error, sentinel *Error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) || errors.Is(err, ledger.ErrInsufficientAllowance) {
		return sentinel.wrap(err)
	}
	return fromLedger(err)
}
