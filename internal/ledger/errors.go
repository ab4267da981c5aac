package ledger

import "errors"

var (
	ErrInsufficientBalance   = errors.New("ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	ErrInvalidRecipient      = errors.New("ledger: invalid recipient")
	ErrOverflow              = errors.New("ledger: balance overflow")
	ErrIssuerOnly            = errors.New("ledger: caller is not the issuer")

	ErrAssetNotFound   = errors.New("registry: asset not found")
	ErrAssetExists     = errors.New("registry: asset already minted")
	ErrNotOwner        = errors.New("registry: caller is not the owner")
	ErrNotApproved     = errors.New("registry: operator is not approved")
	ErrInvalidOperator = errors.New("registry: invalid operator")
)
