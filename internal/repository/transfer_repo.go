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

// TransferSQLite is the append-only ledger. Records are never updated or deleted.
type TransferSQLite struct {
	db querier
}

func NewTransferSQLite(db *sql.DB) *TransferSQLite { return &TransferSQLite{db: db} }

var _ TransferRepo = (*TransferSQLite)(nil)

const (
	selectLastTransferTimeSQL = `SELECT created_at FROM transfers ORDER BY id DESC LIMIT 1`

	insertTransferSQL = `INSERT INTO transfers (from_user, to_user, amount_cents, created_at) VALUES (?, ?, ?, ?)`

	selectHistorySQL = `
		SELECT t.id, t.from_user, t.to_user, t.amount_cents, t.created_at,
		       COALESCE(u1.username, ''), COALESCE(u2.username, '')
		FROM transfers t
		LEFT JOIN users u1 ON t.from_user = u1.id
		LEFT JOIN users u2 ON t.to_user = u2.id
		WHERE t.from_user = ? OR t.to_user = ?
		ORDER BY t.created_at ASC, t.id ASC
	`
)

// Append inserts one record. The timestamp is moved forward if it would precede
// the newest stored record, so creation times never go backwards.
func (r *TransferSQLite) Append(ctx context.Context, from, to int, amount decimal.Decimal, at time.Time) (models.TransferRecord, error) {
	at = at.UTC()

	var last time.Time
	err := r.db.QueryRowContext(ctx, selectLastTransferTimeSQL).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return models.TransferRecord{}, fmt.Errorf("select last transfer time: %w", err)
	case at.Before(last):
		at = last.UTC()
	}

	res, err := r.db.ExecContext(ctx, insertTransferSQL, from, to, models.ToCents(amount), at)
	if err != nil {
		return models.TransferRecord{}, fmt.Errorf("insert transfer %d->%d: %w", from, to, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TransferRecord{}, fmt.Errorf("get last insert id for transfer %d->%d: %w", from, to, err)
	}

	return models.TransferRecord{
		ID:        int(id),
		FromUser:  from,
		ToUser:    to,
		Amount:    amount.Round(models.MoneyPlaces),
		CreatedAt: at,
	}, nil
}

// History returns every record the user sent or received, oldest first, ties by id.
func (r *TransferSQLite) History(ctx context.Context, userID int) ([]models.TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectHistorySQL, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("select history for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.TransferRecord, 0, 16)
	for rows.Next() {
		var (
			rec   models.TransferRecord
			cents int64
		)
		if err := rows.Scan(&rec.ID, &rec.FromUser, &rec.ToUser, &cents, &rec.CreatedAt, &rec.FromUsername, &rec.ToUsername); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec.Amount = models.FromCents(cents)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for user %d: %w", userID, err)
	}
	return out, nil
}
