package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func TestTxSQLite_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(debitSQL)).
		WithArgs(int64(500), 1, int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(adjustBalanceSQL)).
		WithArgs(int64(500), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectLastTransferTimeSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	mock.ExpectExec(regexp.QuoteMeta(insertTransferSQL)).
		WithArgs(1, 2, int64(500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	five := decimal.NewFromInt(5)
	err = NewTxSQLite(db).InTx(ctx(t), func(accounts AccountRepo, transfers TransferRepo) error {
		if err := accounts.Debit(ctx(t), 1, five); err != nil {
			return err
		}
		if err := accounts.AdjustBalance(ctx(t), 2, five); err != nil {
			return err
		}
		_, err := transfers.Append(ctx(t), 1, 2, five, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTxSQLite_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(debitSQL)).
		WithArgs(int64(500), 1, int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = NewTxSQLite(db).InTx(ctx(t), func(accounts AccountRepo, _ TransferRepo) error {
		if err := accounts.Debit(ctx(t), 1, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTxSQLite_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err = NewTxSQLite(db).InTx(ctx(t), func(AccountRepo, TransferRepo) error {
		called = true
		return nil
	})
	if err == nil || !contains(err.Error(), "begin transaction") {
		t.Fatalf("expected begin error, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run when begin fails")
	}
}
