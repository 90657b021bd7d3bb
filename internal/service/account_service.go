package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// apiTokenBytes is the amount of randomness behind every API token (hex encoded, 48 chars).
const apiTokenBytes = 24

// AccountService is the account store: registration, lookups, credentials and API tokens.
// Balances are only changed by TransferService.
type AccountService struct {
	repo repository.AccountRepo
}

func NewAccountService(repo repository.AccountRepo) *AccountService {
	return &AccountService{repo: repo}
}

// CreateUser registers a user with a zero balance and no API token.
func (s *AccountService) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrEmptyInput
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	id, err := s.repo.Create(ctx, username, hash)
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: id, Username: username, PasswordHash: hash}, nil
}

func (s *AccountService) FindByID(ctx context.Context, id int) (models.User, error) {
	return found(s.repo.GetByID(ctx, id))
}

func (s *AccountService) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return found(s.repo.GetByUsername(ctx, strings.TrimSpace(username)))
}

// FindByToken resolves an API token. Missing and unknown tokens are both ErrUnauthorized.
func (s *AccountService) FindByToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthorized
	}
	u, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	if u == nil {
		return models.User{}, ErrUnauthorized
	}
	return *u, nil
}

// VerifyCredentials checks a username/password pair against the stored bcrypt hash.
// It does not reveal whether the username exists.
func (s *AccountService) VerifyCredentials(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return models.User{}, err
	}
	if u == nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// IssueToken stores a fresh random API token for the user, replacing the previous one.
// Concurrent calls race; the last write wins.
func (s *AccountService) IssueToken(ctx context.Context, userID int) (string, error) {
	token, err := generateAPIToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetToken(ctx, userID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return token, nil
}

// Fund credits money from outside the system (top-up, test seeding). It goes
// through the opening balance, never through the transfer log.
func (s *AccountService) Fund(ctx context.Context, userID int, amount string) (models.User, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return models.User{}, err
	}
	if err := s.repo.Fund(ctx, userID, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return s.FindByID(ctx, userID)
}

func found(u *models.User, err error) (models.User, error) {
	if err != nil {
		return models.User{}, err
	}
	if u == nil {
		return models.User{}, ErrUserNotFound
	}
	return *u, nil
}

func generateAPIToken() (string, error) {
	buf := make([]byte, apiTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
