package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/switchyard-io/switchyard/internal/adapters/http"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	srv := httptest.NewServer(httpAdapter.NewHandler(reg))
	t.Cleanup(srv.Close)
	return srv, reg
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerTurnstile(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp := doJSON(t, http.MethodPut, srv.URL+"/machines/turnstile", map[string]any{
		"initial": "locked",
		"transitions": map[string]any{
			"locked":   map[string]string{"COIN": "unlocked"},
			"unlocked": map[string]string{"PUSH": "locked"},
		},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestServer_RegisterAndSend(t *testing.T) {
	srv, _ := newTestServer(t)
	registerTurnstile(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/machines/turnstile/events", map[string]any{"event": "COIN"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "locked", body["from"])
	assert.Equal(t, "unlocked", body["to"])

	// Missed transition is still HTTP 200 with success=false.
	resp = doJSON(t, http.MethodPost, srv.URL+"/machines/turnstile/events", map[string]any{"event": "COIN"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestServer_SendUnknownMachine(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/machines/ghost/events", map[string]any{"event": "GO"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GetMachineAndList(t *testing.T) {
	srv, _ := newTestServer(t)
	registerTurnstile(t, srv)

	resp, err := http.Get(srv.URL + "/machines/turnstile")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "locked", body["CurrentState"])

	resp, err = http.Get(srv.URL + "/machines")
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, []any{"turnstile"}, body["machines"])

	resp, err = http.Get(srv.URL + "/machines/ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ContextAndReset(t *testing.T) {
	srv, reg := newTestServer(t)
	registerTurnstile(t, srv)

	resp := doJSON(t, http.MethodPatch, srv.URL+"/machines/turnstile/context", map[string]any{"coins": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	ctx := body["context"].(map[string]any)
	assert.Equal(t, float64(3), ctx["coins"])
	assert.Empty(t, reg.History("turnstile", 0), "context patches must not create history")

	resp = doJSON(t, http.MethodPost, srv.URL+"/machines/turnstile/reset", map[string]any{"clear_history": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, reg.Context("turnstile"))
}

func TestServer_History(t *testing.T) {
	srv, reg := newTestServer(t)
	registerTurnstile(t, srv)

	for i := 0; i < 2; i++ {
		_, err := reg.Send("turnstile", "COIN", nil)
		require.NoError(t, err)
		_, err = reg.Send("turnstile", "PUSH", nil)
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/machines/turnstile/history?limit=3")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Len(t, body["history"], 3)
}

func TestServer_Unregister(t *testing.T) {
	srv, reg := newTestServer(t)
	registerTurnstile(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/machines/turnstile", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, reg.List())

	// Idempotent.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
