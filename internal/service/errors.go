package service

import (
	"errors"
	"fmt"

	"p2p_transfer/internal/repository"
)

// Domain errors. Callers match them with errors.Is; none of them is fatal.
var (
	ErrDuplicateUsername   = repository.ErrDuplicateUsername
	ErrEmptyInput          = errors.New("username and password must not be empty")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidAmount       = errors.New("amount must be a positive number with at most two decimals")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrStorageFailure      = errors.New("storage failure")
	ErrUnauthorized        = errors.New("missing or unknown api token")
	ErrInvalidToken        = errors.New("invalid token")
)

// TransferStage names the step a transfer was in.
type TransferStage string

const (
	StageValidating TransferStage = "validating"
	StageDebiting   TransferStage = "debiting"
	StageCrediting  TransferStage = "crediting"
	StageRecording  TransferStage = "recording"
	StageCommitting TransferStage = "committing"
	StageCommitted  TransferStage = "committed"
)

// StorageError is returned after a transfer was rolled back because the store failed.
// It matches ErrStorageFailure as well as the underlying cause.
type StorageError struct {
	Stage TransferStage
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%v while %s: %v", ErrStorageFailure, e.Stage, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

func storageFailure(stage TransferStage, err error) error {
	return &StorageError{Stage: stage, Err: err}
}

// isRejection reports whether err is a validation outcome rather than a store fault.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrSelfTransfer,
		ErrRecipientNotFound,
		ErrInsufficientBalance,
		ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
