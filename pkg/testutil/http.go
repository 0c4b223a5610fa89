// Package testutil holds helpers shared by handler and wiring tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is body encoded as JSON. A nil
// body sends no payload.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return newRequest(method, path, nil)
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err, "encode request body")
	return newRequest(method, path, raw)
}

// NewRequestWithBody builds a request with a raw body, for malformed payloads.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	return newRequest(method, path, []byte(body))
}

func newRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req through handler and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeBody decodes the recorded JSON body as T.
func DecodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(strings.NewReader(rr.Body.String())).Decode(&out),
		"decode response body %q", rr.Body.String())
	return out
}

// AssertAPIError checks the status and the "error" code of an error response
// and returns the decoded body for further assertions.
func AssertAPIError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) map[string]string {
	t.Helper()
	assert.Equal(t, status, rr.Code, "status")
	body := DecodeBody[map[string]string](t, rr)
	assert.Equal(t, code, body["error"], "error code")
	return body
}
