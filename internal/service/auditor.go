package service

import (
	"context"
	"time"

	"p2p_transfer/internal/logger"
	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"
)

// AuditorService walks every account and reports balances that disagree with
// their ledger reconstruction.
type AuditorService struct {
	accounts repository.AccountRepo
	ledger   Ledger
	log      *logger.Logger
}

func NewAuditorService(accounts repository.AccountRepo, ledger Ledger, log *logger.Logger) *AuditorService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditorService{accounts: accounts, ledger: ledger, log: log}
}

// Run audits on every tick until ctx is canceled. A non-positive interval disables it.
func (s *AuditorService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.log.Infow("ledger_audit_disabled")
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorw("ledger_audit_failed", "err", err)
			}
		}
	}
}

// RunOnce audits all users and returns one report per user.
func (s *AuditorService) RunOnce(ctx context.Context) ([]models.AuditReport, error) {
	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]models.AuditReport, 0, len(ids))
	for _, id := range ids {
		r, err := s.ledger.Audit(ctx, id)
		if err != nil {
			return reports, err
		}
		if !r.Consistent {
			s.log.Errorw("ledger_balance_mismatch",
				"user_id", r.UserID,
				"stored", r.StoredBalance.StringFixed(2),
				"derived", r.DerivedBalance.StringFixed(2),
			)
		}
		reports = append(reports, r)
	}
	s.log.Debugw("ledger_audit_done", "users", len(reports))
	return reports, nil
}
