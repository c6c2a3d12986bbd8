package exchange

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCreds(t *testing.T, account string) *auth.Credentials {
	t.Helper()
	creds, err := auth.NewCredentials(account, "test-key", "test-secret")
	if err != nil {
		t.Fatalf("NewCredentials() error = %v", err)
	}
	return creds
}

func testClient(t *testing.T, service string, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(service, srv.URL, api.WithRetries(0, time.Millisecond))
}
