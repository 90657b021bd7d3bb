package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord is one immutable row of the ledger.
type TransferRecord struct {
	ID           int             `json:"id"`
	FromUser     int             `json:"from_user"`
	ToUser       int             `json:"to_user"`
	FromUsername string          `json:"from_username,omitempty"` // filled by history queries
	ToUsername   string          `json:"to_username,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"time"`
}

// LedgerEntry is a transfer as seen by one user, with that user's balance right after it.
type LedgerEntry struct {
	TransferRecord
	PostBalance decimal.Decimal `json:"post_balance"`
}

// Statement is the full derived ledger of one user.
type Statement struct {
	User           User
	InitBalance    decimal.Decimal
	CurrentBalance decimal.Decimal
	Records        []LedgerEntry
}

// AuditReport compares the stored balance with the one rebuilt from the ledger.
type AuditReport struct {
	UserID         int             `json:"user_id"`
	Username       string          `json:"username"`
	StoredBalance  decimal.Decimal `json:"stored_balance"`
	DerivedBalance decimal.Decimal `json:"derived_balance"`
	Records        int             `json:"records"`
	Consistent     bool            `json:"consistent"`
}
