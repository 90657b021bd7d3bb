package service

import (
	"context"
	"sort"
	"time"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory AccountRepo, TransferRepo and Transactor.
// InTx snapshots state and restores it when fn fails, like a real rollback.
// The *Err fields inject store faults at the matching step.
type memStore struct {
	users     map[int]*models.User
	records   []models.TransferRecord
	nextUser  int
	nextTx    int
	getErr    error
	debitErr  error
	creditErr error
	appendErr error
	commitErr error
	listErr   error
	txCalls   int
}

func newMemStore() *memStore {
	return &memStore{users: map[int]*models.User{}}
}

var (
	_ repository.AccountRepo  = (*memStore)(nil)
	_ repository.TransferRepo = (*memStore)(nil)
	_ repository.Transactor   = (*memStore)(nil)
)

func (m *memStore) addUser(name string, balance string) int {
	m.nextUser++
	// seeded money counts as funding, so the ledger agrees with it
	m.users[m.nextUser] = &models.User{
		ID:             m.nextUser,
		Username:       name,
		Balance:        decimal.RequireFromString(balance),
		OpeningBalance: decimal.RequireFromString(balance),
	}
	return m.nextUser
}

func (m *memStore) balance(id int) decimal.Decimal { return m.users[id].Balance }

func (m *memStore) InTx(ctx context.Context, fn func(repository.AccountRepo, repository.TransferRepo) error) error {
	m.txCalls++
	users := make(map[int]models.User, len(m.users))
	for id, u := range m.users {
		users[id] = *u
	}
	records := append([]models.TransferRecord(nil), m.records...)
	restore := func() {
		m.users = make(map[int]*models.User, len(users))
		for id, u := range users {
			u := u
			m.users[id] = &u
		}
		m.records = records
	}

	if err := fn(m, m); err != nil {
		restore()
		return err
	}
	if m.commitErr != nil {
		restore()
		return m.commitErr
	}
	return nil
}

func (m *memStore) Create(ctx context.Context, username, passwordHash string) (int, error) {
	for _, u := range m.users {
		if u.Username == username {
			return 0, repository.ErrDuplicateUsername
		}
	}
	m.nextUser++
	m.users[m.nextUser] = &models.User{ID: m.nextUser, Username: username, PasswordHash: passwordHash}
	return m.nextUser, nil
}

func (m *memStore) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range m.users {
		if token != "" && u.APIToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SetToken(ctx context.Context, id int, token string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.APIToken = token
	return nil
}

func (m *memStore) AdjustBalance(ctx context.Context, id int, delta decimal.Decimal) error {
	if m.creditErr != nil {
		return m.creditErr
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Balance = u.Balance.Add(delta)
	return nil
}

func (m *memStore) Debit(ctx context.Context, id int, amount decimal.Decimal) error {
	if m.debitErr != nil {
		return m.debitErr
	}
	u, ok := m.users[id]
	if !ok || u.Balance.LessThan(amount) {
		return repository.ErrInsufficientFunds
	}
	u.Balance = u.Balance.Sub(amount)
	return nil
}

func (m *memStore) Fund(ctx context.Context, id int, amount decimal.Decimal) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Balance = u.Balance.Add(amount)
	u.OpeningBalance = u.OpeningBalance.Add(amount)
	return nil
}

func (m *memStore) ListIDs(ctx context.Context) ([]int, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]int, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *memStore) Append(ctx context.Context, from, to int, amount decimal.Decimal, at time.Time) (models.TransferRecord, error) {
	if m.appendErr != nil {
		return models.TransferRecord{}, m.appendErr
	}
	m.nextTx++
	rec := models.TransferRecord{ID: m.nextTx, FromUser: from, ToUser: to, Amount: amount, CreatedAt: at.UTC()}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) History(ctx context.Context, userID int) ([]models.TransferRecord, error) {
	var out []models.TransferRecord
	for _, r := range m.records {
		if r.FromUser == userID || r.ToUser == userID {
			r.FromUsername = m.users[r.FromUser].Username
			r.ToUsername = m.users[r.ToUser].Username
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
