package service

import (
	"context"
	"time"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"

	"github.com/shopspring/decimal"
)

// Window limits which derived entries a history view returns.
// Zero bounds are open; both bounds are inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// DeriveLedger rebuilds a user's balance trajectory from their ordered history,
// starting at the opening balance (zero unless the account was funded). Each
// entry carries the balance right after it, rounded to cents half away from zero.
// The running sum itself is kept unrounded.
func DeriveLedger(userID int, opening decimal.Decimal, history []models.TransferRecord) []models.LedgerEntry {
	balance := opening
	out := make([]models.LedgerEntry, 0, len(history))
	for _, rec := range history {
		switch userID {
		case rec.FromUser:
			balance = balance.Sub(rec.Amount)
		case rec.ToUser:
			balance = balance.Add(rec.Amount)
		}
		out = append(out, models.LedgerEntry{
			TransferRecord: rec,
			PostBalance:    balance.Round(models.MoneyPlaces),
		})
	}
	return out
}

// lastBalance is the post balance of the newest entry, or the opening balance without history.
func lastBalance(entries []models.LedgerEntry, opening decimal.Decimal) decimal.Decimal {
	if len(entries) == 0 {
		return opening.Round(models.MoneyPlaces)
	}
	return entries[len(entries)-1].PostBalance
}

// LedgerService serves every read path from one transaction so the user row
// and the history it is derived from form a consistent snapshot.
type LedgerService struct {
	tx repository.Transactor
}

func NewLedgerService(tx repository.Transactor) *LedgerService {
	return &LedgerService{tx: tx}
}

// History derives the full ledger, then keeps only entries inside w.
// CurrentBalance always reflects the whole history.
func (s *LedgerService) History(ctx context.Context, userID int, w Window) (models.Statement, error) {
	st, err := s.statement(ctx, func(accounts repository.AccountRepo) (*models.User, error) {
		return accounts.GetByID(ctx, userID)
	}, ErrUserNotFound)
	if err != nil {
		return models.Statement{}, err
	}
	if w.From.IsZero() && w.To.IsZero() {
		return st, nil
	}
	filtered := make([]models.LedgerEntry, 0, len(st.Records))
	for _, e := range st.Records {
		if w.contains(e.CreatedAt) {
			filtered = append(filtered, e)
		}
	}
	st.Records = filtered
	return st, nil
}

// Export is History for the owner of an API token.
func (s *LedgerService) Export(ctx context.Context, apiToken string) (models.Statement, error) {
	if apiToken == "" {
		return models.Statement{}, ErrUnauthorized
	}
	return s.statement(ctx, func(accounts repository.AccountRepo) (*models.User, error) {
		return accounts.GetByToken(ctx, apiToken)
	}, ErrUnauthorized)
}

// Audit compares the stored balance with the one derived from the ledger.
func (s *LedgerService) Audit(ctx context.Context, userID int) (models.AuditReport, error) {
	st, err := s.statement(ctx, func(accounts repository.AccountRepo) (*models.User, error) {
		return accounts.GetByID(ctx, userID)
	}, ErrUserNotFound)
	if err != nil {
		return models.AuditReport{}, err
	}
	return models.AuditReport{
		UserID:         st.User.ID,
		Username:       st.User.Username,
		StoredBalance:  st.User.Balance,
		DerivedBalance: st.CurrentBalance,
		Records:        len(st.Records),
		Consistent:     st.User.Balance.Equal(st.CurrentBalance),
	}, nil
}

func (s *LedgerService) statement(
	ctx context.Context,
	lookup func(repository.AccountRepo) (*models.User, error),
	missing error,
) (models.Statement, error) {
	var st models.Statement
	err := s.tx.InTx(ctx, func(accounts repository.AccountRepo, transfers repository.TransferRepo) error {
		u, err := lookup(accounts)
		if err != nil {
			return err
		}
		if u == nil {
			return missing
		}
		history, err := transfers.History(ctx, u.ID)
		if err != nil {
			return err
		}
		entries := DeriveLedger(u.ID, u.OpeningBalance, history)
		st = models.Statement{
			User:           *u,
			InitBalance:    u.OpeningBalance,
			CurrentBalance: lastBalance(entries, u.OpeningBalance),
			Records:        entries,
		}
		return nil
	})
	if err != nil {
		return models.Statement{}, err
	}
	return st, nil
}
