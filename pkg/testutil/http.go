// Package testutil holds helpers shared by HTTP handler tests.
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

// JSONRequest builds a request whose body is body marshalled to JSON. A string
// body is sent verbatim so tests can post malformed payloads.
func JSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Serve runs req through h and returns the recorded response.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the recorded body into a T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "failed to unmarshal response: %s", rr.Body.String())
	return out
}

// RequireError checks the status code and the "error" field of an error response.
func RequireError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rr.Code, "unexpected status code")
	body := DecodeJSON[map[string]string](t, rr)
	require.Equal(t, code, body["error"], "unexpected error code")
}
