package model

import (
	"time"

	"dailytrack/pkg/amount"
)

// ============================================================================
// Entry types
// ============================================================================

const (
	EntryTypeMint         = "MINT"
	EntryTypeTransfer     = "TRANSFER"
	EntryTypeTransferFrom = "TRANSFER_FROM"
)

const (
	EntryDirectionCredit = "CREDIT"
	EntryDirectionDebit  = "DEBIT"
)

// ============================================================================
// Ledger journal
// ============================================================================

// LedgerEntry is one side of a balance movement. A transfer writes a DEBIT for
// the payer and a CREDIT for the payee; a mint writes only the CREDIT.
//
// Entries are append-only. Summing credits minus debits for an account must
// give its current balance, which is what the custody reconciliation checks.
type LedgerEntry struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryNo       string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"entry_no"`
	Token         string        `gorm:"type:varchar(32);index:idx_entry_account;not null" json:"token"`
	Account       string        `gorm:"type:varchar(42);index:idx_entry_account;not null" json:"account"`
	Counterparty  string        `gorm:"type:varchar(42);not null" json:"counterparty"`
	Direction     string        `gorm:"type:varchar(10);not null" json:"direction"`
	Type          string        `gorm:"type:varchar(20);not null" json:"type"`
	Amount        amount.Amount `gorm:"type:varchar(78);not null" json:"amount"`
	BalanceBefore amount.Amount `gorm:"type:varchar(78);not null" json:"balance_before"`
	BalanceAfter  amount.Amount `gorm:"type:varchar(78);not null" json:"balance_after"`
	Reference     string        `gorm:"type:varchar(128);index" json:"reference"`
	CreatedAt     time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entry"
}
