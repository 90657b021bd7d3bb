package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"p2p_transfer/internal/models"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type AccountSQLite struct {
	db querier
}

func NewAccountSQLite(db *sql.DB) *AccountSQLite {
	return &AccountSQLite{db: db}
}

// Ensure implementation of AccountRepo interface at compile time.
var _ AccountRepo = (*AccountSQLite)(nil)

const (
	userColumns = `id, username, password_hash, balance_cents, opening_cents, api_token`

	insertUserSQL           = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	selectUserByTokenSQL    = `SELECT ` + userColumns + ` FROM users WHERE api_token = ?`
	updateTokenSQL          = `UPDATE users SET api_token = ? WHERE id = ?`
	adjustBalanceSQL        = `UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`
	debitSQL                = `UPDATE users SET balance_cents = balance_cents - ? WHERE id = ? AND balance_cents >= ?`
	fundSQL                 = `UPDATE users SET balance_cents = balance_cents + ?, opening_cents = opening_cents + ? WHERE id = ?`
	selectUserIDsSQL        = `SELECT id FROM users ORDER BY id ASC`
)

// Create inserts a new user with a zero balance and returns its ID.
func (r *AccountSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByID fetches a user by id. Returns (nil, nil) if not found.
func (r *AccountSQLite) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *AccountSQLite) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username))
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

// GetByToken fetches the user owning an API token. Returns (nil, nil) if not found.
func (r *AccountSQLite) GetByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByTokenSQL, token))
	if err != nil {
		return nil, fmt.Errorf("select user by token: %w", err)
	}
	return u, nil
}

// SetToken overwrites the user's API token; the previous one stops matching.
func (r *AccountSQLite) SetToken(ctx context.Context, id int, token string) error {
	res, err := r.db.ExecContext(ctx, updateTokenSQL, token, id)
	if err != nil {
		return fmt.Errorf("update token for user %d: %w", id, err)
	}
	return expectOneRow(res, id, ErrNotFound)
}

// AdjustBalance adds delta (possibly negative) to the stored balance.
func (r *AccountSQLite) AdjustBalance(ctx context.Context, id int, delta decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, adjustBalanceSQL, models.ToCents(delta), id)
	if err != nil {
		return fmt.Errorf("adjust balance for user %d: %w", id, err)
	}
	return expectOneRow(res, id, ErrNotFound)
}

// Debit subtracts amount only if the balance covers it.
func (r *AccountSQLite) Debit(ctx context.Context, id int, amount decimal.Decimal) error {
	cents := models.ToCents(amount)
	res, err := r.db.ExecContext(ctx, debitSQL, cents, id, cents)
	if err != nil {
		return fmt.Errorf("debit user %d: %w", id, err)
	}
	return expectOneRow(res, id, ErrInsufficientFunds)
}

// Fund credits money that enters from outside the transfer log. It raises the
// opening balance by the same amount so the ledger reconstruction still agrees.
func (r *AccountSQLite) Fund(ctx context.Context, id int, amount decimal.Decimal) error {
	cents := models.ToCents(amount)
	res, err := r.db.ExecContext(ctx, fundSQL, cents, cents, id)
	if err != nil {
		return fmt.Errorf("fund user %d: %w", id, err)
	}
	return expectOneRow(res, id, ErrNotFound)
}

func (r *AccountSQLite) ListIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, selectUserIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u       models.User
		cents   int64
		opening int64
		token   sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &cents, &opening, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Balance = models.FromCents(cents)
	u.OpeningBalance = models.FromCents(opening)
	u.APIToken = token.String
	return &u, nil
}

func expectOneRow(res sql.Result, id int, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %d: %w", id, err)
	}
	if n == 0 {
		return none
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
