package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"p2p_transfer/internal/service"
)

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_SignUpAndSignIn(t *testing.T) {
	auth := &mockAuth{
		signUpID: 42,
		session:  service.Session{UserID: 42, Token: "jwt123", APIToken: "api123"},
		parseID:  1,
	}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	// sign-up success
	w := postJSON(t, r, "/auth/sign-up", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["id"].(float64)) != 42 {
		t.Fatalf("expected id=42, got %v", m["id"])
	}
	if auth.lastSignUpUsername != "u" || auth.lastSignUpPassword != "p" {
		t.Fatalf("credentials not forwarded: %q/%q", auth.lastSignUpUsername, auth.lastSignUpPassword)
	}

	// sign-in success
	w = postJSON(t, r, "/auth/sign-in", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	var sess service.Session
	_ = json.Unmarshal(w.Body.Bytes(), &sess)
	if sess.Token != "jwt123" || sess.APIToken != "api123" || sess.UserID != 42 {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// sign-in invalid body → 400
	w = postJSON(t, r, "/auth/sign-in", `{"username":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		path string
		auth *mockAuth
		want int
	}{
		{"duplicate username", "/auth/sign-up", &mockAuth{signUpErr: service.ErrDuplicateUsername}, http.StatusConflict},
		{"empty username", "/auth/sign-up", &mockAuth{signUpErr: service.ErrEmptyInput}, http.StatusBadRequest},
		{"sign-up store failure", "/auth/sign-up", &mockAuth{signUpErr: errors.New("disk full")}, http.StatusInternalServerError},
		{"bad credentials", "/auth/sign-in", &mockAuth{signInErr: service.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"sign-in store failure", "/auth/sign-in", &mockAuth{signInErr: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: tc.auth})
			w := postJSON(t, r, tc.path, `{"username":"u","password":"p"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error == "" {
				t.Fatalf("expected error message in body: %s", w.Body.String())
			}
		})
	}
}
