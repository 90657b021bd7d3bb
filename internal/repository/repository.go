package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"p2p_transfer/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type AccountRepo interface {
	Create(ctx context.Context, username, passwordHash string) (int, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	SetToken(ctx context.Context, id int, token string) error
	AdjustBalance(ctx context.Context, id int, delta decimal.Decimal) error
	Debit(ctx context.Context, id int, amount decimal.Decimal) error
	Fund(ctx context.Context, id int, amount decimal.Decimal) error
	ListIDs(ctx context.Context) ([]int, error)
}

type TransferRepo interface {
	Append(ctx context.Context, from, to int, amount decimal.Decimal, at time.Time) (models.TransferRecord, error)
	History(ctx context.Context, userID int) ([]models.TransferRecord, error)
}

// Transactor runs fn against repositories bound to a single transaction.
// fn returning an error rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(accounts AccountRepo, transfers TransferRepo) error) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	Accounts  AccountRepo
	Transfers TransferRepo
	Tx        Transactor
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Accounts:  NewAccountSQLite(db),
		Transfers: NewTransferSQLite(db),
		Tx:        NewTxSQLite(db),
	}
}

// TxSQLite scopes one *sql.Tx per InTx call and always releases it.
type TxSQLite struct {
	db *sql.DB
}

func NewTxSQLite(db *sql.DB) *TxSQLite { return &TxSQLite{db: db} }

var _ Transactor = (*TxSQLite)(nil)

func (t *TxSQLite) InTx(ctx context.Context, fn func(AccountRepo, TransferRepo) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback()
	}()

	if err := fn(&AccountSQLite{db: tx}, &TransferSQLite{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
