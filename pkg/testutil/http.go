// Package testutil provides common test utilities for handler and integration
// tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates an HTTP request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response")
	return &result
}
