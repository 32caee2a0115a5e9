// ABOUTME: Tests for Ghost admin key validation.
// ABOUTME: Runs against the in-memory Admin API to check accepted and rejected keys.
package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/ghosttest"
)

func TestValidateConnection_Success(t *testing.T) {
	srv := ghosttest.NewServer(t)

	if err := ValidateConnection(context.Background(), srv.URL, ghosttest.AdminKey); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Path != "/ghost/api/v3/admin/posts" || reqs[0].Query != "limit=1" {
		t.Errorf("unexpected request %s?%s", reqs[0].Path, reqs[0].Query)
	}
}

func TestValidateConnection_WrongSecret(t *testing.T) {
	srv := ghosttest.NewServer(t)

	err := ValidateConnection(context.Background(), srv.URL, "65f1c0ffee0123456789abcd:deadbeef")
	if err == nil {
		t.Fatal("expected error for rejected key")
	}
	if !apperr.Is(err, apperr.CodeRemoteRejection) || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 rejection, got %v", err)
	}
}

func TestValidateConnection_MalformedKey(t *testing.T) {
	err := ValidateConnection(context.Background(), "http://127.0.0.1:1", "not-a-key")
	if !apperr.Is(err, apperr.CodeConfig) {
		t.Fatalf("expected config error before any request, got %v", err)
	}
}

func TestValidateConnection_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := ValidateConnection(context.Background(), server.URL, ghosttest.AdminKey); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestValidateConnection_Cancelled(t *testing.T) {
	srv := ghosttest.NewServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ValidateConnection(ctx, srv.URL, ghosttest.AdminKey)
	if !apperr.Is(err, apperr.CodeTransportFailure) {
		t.Fatalf("expected transport failure for cancelled context, got %v", err)
	}
}
