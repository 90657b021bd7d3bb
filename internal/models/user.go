package models

import "github.com/shopspring/decimal"

type User struct {
	ID           int             `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // don’t expose hash
	Balance      decimal.Decimal `json:"balance"`
	// OpeningBalance is money credited from outside the transfer log; the ledger starts here.
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	APIToken       string          `json:"-"`
}
