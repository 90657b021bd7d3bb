package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/service"

	"github.com/shopspring/decimal"
)

func TestGetAccount(t *testing.T) {
	acc := &mockAccounts{user: models.User{ID: 7, Username: "alice", Balance: decimal.RequireFromString("70.5"), APIToken: "api"}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Accounts: acc}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/account", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var out AccountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if acc.lastID != 7 || out.Username != "alice" || out.APIToken != "api" || !out.Balance.Equal(decimal.RequireFromString("70.5")) {
		t.Fatalf("unexpected account: %+v", out)
	}

	acc.findErr = service.ErrUserNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/account", ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	acc.findErr = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/account", ""))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetAudit(t *testing.T) {
	led := &mockLedger{report: models.AuditReport{
		UserID: 7, Username: "alice",
		StoredBalance: decimal.NewFromInt(70), DerivedBalance: decimal.NewFromInt(70),
		Records: 1, Consistent: true,
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Ledger: led})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/audit", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var out models.AuditReport
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if led.lastUserID != 7 || !out.Consistent || out.Records != 1 {
		t.Fatalf("unexpected report: %+v", out)
	}

	led.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/audit", ""))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestFundAccount(t *testing.T) {
	acc := &mockAccounts{user: models.User{ID: 7, Username: "alice", Balance: decimal.NewFromInt(100)}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Accounts: acc}

	// not registered unless enabled
	w := httptest.NewRecorder()
	newTestRouter(s).ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/account/fund", `{"amount":100}`))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 while disabled, got %d", w.Code)
	}

	router := NewHandler(s, nil).EnableFunding().InitRoutes()
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/account/fund", `{"amount":"100"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if acc.lastID != 7 || acc.lastAmount != "100" {
		t.Fatalf("unexpected call: id=%d amount=%q", acc.lastID, acc.lastAmount)
	}

	acc.fundErr = service.ErrInvalidAmount
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/account/fund", `{"amount":"-1"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
