package handlers

import (
	"context"
	"net/http"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID  int
	signUpErr error
	session   service.Session
	signInErr error
	parseID   int
	parseErr  error

	lastSignUpUsername string
	lastSignUpPassword string
	lastSignInUsername string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) SignIn(_ context.Context, username, password string) (service.Session, error) {
	m.lastSignInUsername = username
	return m.session, m.signInErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockAccounts only implements the lookups the handlers call.
type mockAccounts struct {
	service.Accounts

	user       models.User
	findErr    error
	tokenErr   error
	fundErr    error
	lastID     int
	lastAmount string
}

func (m *mockAccounts) FindByID(_ context.Context, id int) (models.User, error) {
	m.lastID = id
	return m.user, m.findErr
}
func (m *mockAccounts) FindByToken(_ context.Context, token string) (models.User, error) {
	if m.tokenErr != nil {
		return models.User{}, m.tokenErr
	}
	if token == "" || token != m.user.APIToken {
		return models.User{}, service.ErrUnauthorized
	}
	return m.user, nil
}

func (m *mockAccounts) Fund(_ context.Context, userID int, amount string) (models.User, error) {
	m.lastID = userID
	m.lastAmount = amount
	return m.user, m.fundErr
}

type mockTransfers struct {
	rec        models.TransferRecord
	err        error
	calls      int
	lastFrom   int
	lastTo     int
	lastAmount string
}

func (m *mockTransfers) Transfer(_ context.Context, senderID, recipientID int, amount string) (models.TransferRecord, error) {
	m.calls++
	m.lastFrom = senderID
	m.lastTo = recipientID
	m.lastAmount = amount
	return m.rec, m.err
}

type mockLedger struct {
	statement  models.Statement
	report     models.AuditReport
	err        error
	exportErr  error
	lastUserID int
	lastWindow service.Window
	lastToken  string
	exports    int
}

func (m *mockLedger) History(_ context.Context, userID int, w service.Window) (models.Statement, error) {
	m.lastUserID = userID
	m.lastWindow = w
	return m.statement, m.err
}
func (m *mockLedger) Export(_ context.Context, apiToken string) (models.Statement, error) {
	m.exports++
	m.lastToken = apiToken
	if m.exportErr != nil {
		return models.Statement{}, m.exportErr
	}
	if apiToken == "" || apiToken != m.statement.User.APIToken {
		return models.Statement{}, service.ErrUnauthorized
	}
	return m.statement, nil
}
func (m *mockLedger) Audit(_ context.Context, userID int) (models.AuditReport, error) {
	m.lastUserID = userID
	return m.report, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
