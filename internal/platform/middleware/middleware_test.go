package middleware_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/platform/middleware"
	"custodia/pkg/domain"
	"custodia/pkg/testutil"
)

type stubValidator struct {
	caller domain.Address
	err    error
}

func (v stubValidator) ValidateToken(string) (domain.Address, error) {
	return v.caller, v.err
}

func callerAddress() domain.Address {
	var raw [20]byte
	raw[19] = 0x01
	return domain.AddressFromBytes(raw)
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	echoCaller := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetCaller(r.Context()).String()))
	})

	t.Run("valid bearer token reaches the handler with the caller bound", func(t *testing.T) {
		handler := middleware.RequireAuth(stubValidator{caller: callerAddress()}, logger)(echoCaller)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/vaults", nil)
		req.Header.Set("Authorization", "Bearer some-token")

		rr := testutil.DoRequest(handler, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, callerAddress().String(), rr.Body.String())
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		handler := middleware.RequireAuth(stubValidator{caller: callerAddress()}, logger)(echoCaller)

		rr := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodPost, "/vaults", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)

		resp := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "unauthorized", (*resp)["error"])
	})

	t.Run("rejected token is unauthorized", func(t *testing.T) {
		handler := middleware.RequireAuth(stubValidator{err: errors.New("bad token")}, logger)(echoCaller)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/vaults", nil)
		req.Header.Set("Authorization", "Bearer some-token")

		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetCaller(t *testing.T) {
	t.Run("returns the bound caller", func(t *testing.T) {
		req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), callerAddress())
		assert.Equal(t, callerAddress(), middleware.GetCaller(req.Context()))
	})

	t.Run("empty without auth", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
		assert.Empty(t, middleware.GetCaller(req.Context()))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	t.Run("generates an id when absent", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a provided id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		testutil.DoRequest(handler, req)
		assert.Equal(t, "req-123", seen)
	})
}
