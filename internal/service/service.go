package service

import (
	"context"
	"time"

	"p2p_transfer/internal/logger"
	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"
)

// Authorization issues and checks session tokens for the HTTP layer.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	SignIn(ctx context.Context, username, password string) (Session, error)
	ParseToken(accessToken string) (int, error)
}

// Accounts is the account store seen by callers.
type Accounts interface {
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	FindByID(ctx context.Context, id int) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByToken(ctx context.Context, token string) (models.User, error)
	VerifyCredentials(ctx context.Context, username, password string) (models.User, error)
	IssueToken(ctx context.Context, userID int) (string, error)
	Fund(ctx context.Context, userID int, amount string) (models.User, error)
}

// Transfers moves funds between two users atomically.
type Transfers interface {
	Transfer(ctx context.Context, senderID, recipientID int, amount string) (models.TransferRecord, error)
}

// Ledger exposes the derived, read-only views of the transfer log.
type Ledger interface {
	History(ctx context.Context, userID int, w Window) (models.Statement, error)
	Export(ctx context.Context, apiToken string) (models.Statement, error)
	Audit(ctx context.Context, userID int) (models.AuditReport, error)
}

// Auditor periodically checks stored balances against the ledger.
// Stop via context cancellation in main() for graceful shutdown.
type Auditor interface {
	Run(ctx context.Context, interval time.Duration)
	RunOnce(ctx context.Context) ([]models.AuditReport, error)
}

type Service struct {
	Authorization
	Accounts
	Transfers
	Ledger
	Auditor
}

// AuthConfig carries the session token settings.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, auth AuthConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	accounts := NewAccountService(repos.Accounts)
	ledger := NewLedgerService(repos.Tx)
	return &Service{
		Authorization: NewAuthService(accounts, auth),
		Accounts:      accounts,
		Transfers:     NewTransferService(repos.Tx, log),
		Ledger:        ledger,
		Auditor:       NewAuditorService(repos.Accounts, ledger, log),
	}
}
