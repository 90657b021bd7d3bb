package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"p2p_transfer/internal/models"
	"p2p_transfer/internal/service"

	"github.com/shopspring/decimal"
)

func testStatement(token string) models.Statement {
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return models.Statement{
		User:           models.User{ID: 2, Username: "B", APIToken: token},
		CurrentBalance: decimal.NewFromInt(30),
		Records: []models.LedgerEntry{{
			TransferRecord: models.TransferRecord{
				ID: 1, FromUser: 1, ToUser: 2, FromUsername: "A", ToUsername: "B",
				Amount: decimal.NewFromInt(30), CreatedAt: at,
			},
			PostBalance: decimal.NewFromInt(30),
		}},
	}
}

func TestExportRecords(t *testing.T) {
	led := &mockLedger{statement: testStatement("api-b")}
	r := newTestRouter(&service.Service{Ledger: led})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records?token=api-b", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"username", "user_id", "init_balance", "current_balance", "records"} {
		if _, ok := out[k]; !ok {
			t.Fatalf("missing key %q in %s", k, w.Body.String())
		}
	}
	if out["username"] != "B" || out["current_balance"].(float64) != 30 || out["init_balance"].(float64) != 0 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	rec := out["records"].([]any)[0].(map[string]any)
	for _, k := range []string{"id", "time", "amount", "from_user", "to_user", "from_username", "to_username", "post_balance"} {
		if _, ok := rec[k]; !ok {
			t.Fatalf("missing record key %q", k)
		}
	}
	if rec["amount"].(float64) != 30 || rec["post_balance"].(float64) != 30 || rec["from_username"] != "A" {
		t.Fatalf("unexpected record: %v", rec)
	}

	// read-only: a second call gives the same body
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/records?token=api-b", nil))
	if w2.Body.String() != w.Body.String() {
		t.Fatalf("export not idempotent:\n%s\n%s", w.Body.String(), w2.Body.String())
	}
}

func TestExportRecords_Errors(t *testing.T) {
	led := &mockLedger{statement: testStatement("api-b")}
	r := newTestRouter(&service.Service{Ledger: led})

	for _, path := range []string{"/api/records", "/api/records?token=", "/api/records?token=stale"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", path, w.Code)
		}
	}

	led.exportErr = errors.New("db down")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records?token=api-b", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestNewExportStatement_EmptyRecords(t *testing.T) {
	out := newExportStatement(models.Statement{User: models.User{ID: 3, Username: "c"}})
	b, _ := json.Marshal(out)
	want := `{"username":"c","user_id":3,"init_balance":0,"current_balance":0,"records":[]}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
