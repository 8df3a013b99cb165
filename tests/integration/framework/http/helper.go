package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Helper struct {
	handler http.Handler
	actor   string
}

func NewHelper(handler http.Handler, actor string) *Helper {
	return &Helper{handler: handler, actor: actor}
}

type Request struct {
	Path    string
	Method  string
	Body    any
	Headers map[string]string
	Context context.Context
}

type Response struct {
	*httptest.ResponseRecorder
	t *testing.T
}

func (h *Helper) Do(t *testing.T, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		jsonbytes, err := json.Marshal(req.Body)
		require.NoError(t, err)
		body = bytes.NewReader(jsonbytes)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if req.Context != nil {
		httpReq = httpReq.WithContext(req.Context)
	}

	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if body != nil && req.Headers["Content-Type"] == "" {
		req.Headers["Content-Type"] = "application/json"
	}
	if _, ok := req.Headers["X-Actor-Email"]; !ok && h.actor != "" {
		req.Headers["X-Actor-Email"] = h.actor
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, httpReq)

	return &Response{ResponseRecorder: w, t: t}
}

func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()

	var resp map[string]any
	r.ParseJSON(&resp)
	message, ok := resp["message"].(string)
	if !ok {
		message = "no message in response"
	}

	assert.Equal(r.t, expected, r.Result().StatusCode, "unexpected status code, message: %s", message)
	return r
}

func (r *Response) AssertHeader(key, value string) *Response {
	r.t.Helper()

	actual := r.Header().Get(key)
	require.Equal(r.t, value, actual, fmt.Sprintf("expected header %s=%s, got %s", key, value, actual))
	return r
}

func (r *Response) AssertCode(expected string) *Response {
	r.t.Helper()

	var resp map[string]any
	r.ParseJSON(&resp)
	assert.Equal(r.t, expected, resp["code"], "unexpected error code in response")

	return r
}

func (r *Response) AssertSuccess() *Response {
	r.t.Helper()
	r.AssertStatus(http.StatusOK)

	var resp map[string]any
	r.ParseJSON(&resp)
	success, _ := resp["success"].(bool)
	assert.True(r.t, success, "expected success=true")

	return r
}

func (r *Response) AssertError(expectedStatus int, expectedCode string) *Response {
	r.t.Helper()
	r.AssertStatus(expectedStatus)

	var resp map[string]any
	r.ParseJSON(&resp)
	success, _ := resp["success"].(bool)
	require.False(r.t, success, "expected success=false")
	assert.Equal(r.t, expectedCode, resp["code"])
	return r
}

// HandlerResults returns the per-handler outcomes of a successful review call.
func (r *Response) HandlerResults() []HandlerResult {
	r.t.Helper()

	var resp struct {
		Results []HandlerResult `json:"results"`
	}
	r.ParseJSON(&resp)
	return resp.Results
}

type HandlerResult struct {
	Handler string `json:"handler"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (r *Response) ParseJSON(v any) *Response {
	r.t.Helper()

	err := json.Unmarshal(r.Body.Bytes(), v)
	require.NoError(r.t, err, "failed to parse JSON response: %s", r.Body.String())

	return r
}
