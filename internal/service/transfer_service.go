package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"p2p_transfer/internal/logger"
	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"

	"github.com/shopspring/decimal"
)

// maxAmount keeps every amount representable as int64 cents with headroom.
var maxAmount = decimal.New(1, 13)

type TransferService struct {
	tx  repository.Transactor
	log *logger.Logger
	now func() time.Time
}

func NewTransferService(tx repository.Transactor, log *logger.Logger) *TransferService {
	if log == nil {
		log = logger.Nop()
	}
	return &TransferService{tx: tx, log: log, now: time.Now}
}

// ParseAmount accepts a positive decimal with at most two fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !d.IsPositive() || d.GreaterThan(maxAmount) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !d.Equal(d.Round(models.MoneyPlaces)) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d.Round(models.MoneyPlaces), nil
}

// Transfer moves amount from sender to recipient. Validation runs in order
// (amount, self transfer, recipient, balance) before anything is written; the
// debit, the credit and the ledger record then commit together or not at all.
// It is attempted once; retrying is up to the caller.
func (s *TransferService) Transfer(ctx context.Context, senderID, recipientID int, rawAmount string) (models.TransferRecord, error) {
	log := s.log.With("sender", senderID, "recipient", recipientID, "amount", rawAmount)

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		log.Infow("transfer_rejected", "reason", err)
		return models.TransferRecord{}, err
	}
	if senderID == recipientID {
		log.Infow("transfer_rejected", "reason", ErrSelfTransfer)
		return models.TransferRecord{}, ErrSelfTransfer
	}

	var (
		rec   models.TransferRecord
		stage = StageValidating
	)
	err = s.tx.InTx(ctx, func(accounts repository.AccountRepo, transfers repository.TransferRepo) error {
		recipient, err := accounts.GetByID(ctx, recipientID)
		if err != nil {
			return storageFailure(stage, err)
		}
		if recipient == nil {
			return ErrRecipientNotFound
		}
		sender, err := accounts.GetByID(ctx, senderID)
		if err != nil {
			return storageFailure(stage, err)
		}
		if sender == nil {
			return ErrUserNotFound
		}
		if sender.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		stage = StageDebiting
		if err := accounts.Debit(ctx, senderID, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return ErrInsufficientBalance
			}
			return storageFailure(stage, err)
		}

		stage = StageCrediting
		if err := accounts.AdjustBalance(ctx, recipientID, amount); err != nil {
			return storageFailure(stage, err)
		}

		stage = StageRecording
		rec, err = transfers.Append(ctx, senderID, recipientID, amount, s.now())
		if err != nil {
			return storageFailure(stage, err)
		}
		rec.FromUsername = sender.Username
		rec.ToUsername = recipient.Username

		stage = StageCommitting
		return nil
	})
	if err != nil {
		if !isRejection(err) && !errors.Is(err, ErrStorageFailure) {
			// begin or commit failed outside the callback
			err = storageFailure(stage, err)
		}
		if errors.Is(err, ErrStorageFailure) {
			log.Errorw("transfer_rolled_back", "stage", stage, "err", err)
		} else {
			log.Infow("transfer_rejected", "reason", err)
		}
		return models.TransferRecord{}, err
	}

	log.Infow("transfer_committed", "transfer_id", rec.ID, "stage", StageCommitted)
	return rec, nil
}
