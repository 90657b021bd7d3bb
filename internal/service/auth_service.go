package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = time.Hour

// Session is what a successful sign-in hands back to the HTTP layer.
type Session struct {
	UserID   int    `json:"user_id"`
	Token    string `json:"token"`     // JWT for the Authorization header
	APIToken string `json:"api_token"` // opaque token for the export endpoint, rotated on every sign-in
}

// AuthService issues stateless session tokens on top of the account store.
type AuthService struct {
	accounts   Accounts
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthService(accounts Accounts, cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		accounts:   accounts,
		signingKey: []byte(cfg.SigningKey),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// SignUp registers a new user and returns its ID.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	u, err := s.accounts.CreateUser(ctx, username, password)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// SignIn verifies credentials, rotates the user's API token and returns a session JWT.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (Session, error) {
	u, err := s.accounts.VerifyCredentials(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	apiToken, err := s.accounts.IssueToken(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	token, err := s.issueToken(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, Token: token, APIToken: apiToken}, nil
}

// ParseToken parses JWT and returns userID
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
