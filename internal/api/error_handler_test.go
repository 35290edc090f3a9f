package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/api/handler"
	"github.com/securedoc/account-service/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("register user: %w: email is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("register user: %w", domain.ErrIdentityRequired), http.StatusUnauthorized},
		{fmt.Errorf("register user: %w", domain.ErrDuplicateEmail), http.StatusConflict},
		{fmt.Errorf("register user: %w", domain.ErrRoleNotFound), http.StatusNotFound},
		{fmt.Errorf("verify account: %w", domain.ErrTokenNotFound), http.StatusNotFound},
		{fmt.Errorf("verify account: %w", domain.ErrTokenExpired), http.StatusGone},
		{fmt.Errorf("verify account: %w", domain.ErrUserNotFound), http.StatusNotFound},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed},
		{errors.New("connection refused to 10.0.0.3:27017"), http.StatusInternalServerError},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/user/register", nil)
		rec := httptest.NewRecorder()
		h(tc.err, e.NewContext(req, rec))

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var resp handler.Response
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Code != tc.code || resp.Path != "/user/register" || resp.Status == "" || resp.Time == "" {
			t.Fatalf("unexpected envelope: %+v", resp)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user/verify/account", nil)
	rec := httptest.NewRecorder()

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("dial tcp 10.0.0.3:27017: refused"), e.NewContext(req, rec))

	var resp handler.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", resp.Message)
	}
	if resp.Status != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("unexpected status name: %s", resp.Status)
	}
}

func TestHTTPErrorHandler_InvalidInputMessage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/user/register", nil)
	rec := httptest.NewRecorder()

	err := fmt.Errorf("register user: %w: password too long", domain.ErrInvalidInput)
	NewHTTPErrorHandler(zerolog.Nop())(err, e.NewContext(req, rec))

	var resp handler.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "invalid input: password too long" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}
