package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
)

const testPassword = "peppermint-bark"

func newTestAuthHandler(t *testing.T) (*AuthHandler, *service.AuthService) {
	t.Helper()
	authSvc := service.NewAuthService(config.AuthConfig{
		AccessPassword: testPassword,
		JWTSecret:      "handler-test-secret",
		APIKey:         "handler-test-key",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAuthHandler(authSvc), authSvc
}

func postLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	return rr
}

func TestLoginSuccess(t *testing.T) {
	h, authSvc := newTestAuthHandler(t)

	rr := postLogin(t, h, `{"password":"`+testPassword+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp model.LoginResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false")
	}
	if resp.ExpiresIn != 28800 {
		t.Errorf("expiresIn = %d, want 28800", resp.ExpiresIn)
	}

	claims, err := authSvc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("returned token does not verify: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Errorf("claims = %q/%q, want admin/admin", claims.Subject, claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rr := postLogin(t, h, `{"password":"guess"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	var resp model.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != model.CodeInvalidPassword {
		t.Errorf("code = %q, want %q", resp.Code, model.CodeInvalidPassword)
	}
	if resp.OK {
		t.Error("ok = true on failure")
	}
}

func TestLoginValidation(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	for _, body := range []string{`{}`, `{"password":""}`, `not json`} {
		rr := postLogin(t, h, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rr.Code)
			continue
		}
		var resp model.ErrorResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Code != model.CodeValidationError {
			t.Errorf("body %q: code = %q, want %q", body, resp.Code, model.CodeValidationError)
		}
	}
}
