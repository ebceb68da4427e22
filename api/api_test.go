package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TFMV/keydiff/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *api.Server {
	t.Helper()
	s := api.NewServer(api.ServerOptions{Port: "3000", Prefork: false})
	require.NotNil(t, s, "Expected a non-nil server instance")
	return s
}

func postJSON(t *testing.T, s *api.Server, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

// TestHealthEndpoint checks if the /health endpoint returns "OK"
func TestHealthEndpoint(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

// versionResponse is used for JSON unmarshalling in the /version endpoint test
type versionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Time    string `json:"time"`
}

// TestVersionEndpoint checks if the /version endpoint returns the correct JSON structure
func TestVersionEndpoint(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err, "Unexpected error when making request to /version")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v versionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "keydiff API", v.Service)
	assert.NotEmpty(t, v.Version)
	assert.NotEmpty(t, v.Build)
	assert.NotEmpty(t, v.Time)
}

const compareBody = `{
  "left":  {"label": "a", "columns": ["id", "name", "amount"],
            "rows": [[1, "x", 10], [2, "y", 20], [3, "z", 30]]},
  "right": {"label": "b", "columns": ["id", "name", "amount", "extra"],
            "rows": [[2, "y", 21, true], [3, "z", 30, false], [4, "w", 40, null]]},
  "keys": ["id"],
  "compare": ["name", "amount"]
}`

func TestCompareEndpoint(t *testing.T) {
	s := newServer(t)
	resp, out := postJSON(t, s, "/v1/compare", compareBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	assert.Equal(t, "a", out["label_a"])
	assert.Equal(t, false, out["empty"])

	onlyA := out["only_in_a"].(map[string]interface{})
	assert.Equal(t, []interface{}{"id", "name", "amount"}, onlyA["columns"])
	assert.Equal(t, []interface{}{[]interface{}{1.0, "x", 10.0}}, onlyA["rows"])

	onlyB := out["only_in_b"].(map[string]interface{})
	assert.Len(t, onlyB["rows"], 1)

	diffs := out["differences"].([]interface{})
	require.Len(t, diffs, 1)
	d := diffs[0].(map[string]interface{})
	assert.Equal(t, "amount", d["column_name"])
	assert.Equal(t, []interface{}{2.0}, d["key_value"])
	assert.Equal(t, 20.0, d["value_a"])
	assert.Equal(t, 21.0, d["value_b"])
	assert.NotContains(t, d, "Delta")

	summary := out["summary"].(map[string]interface{})
	assert.Equal(t, 1.0, summary["rows_with_differences"])
	assert.Equal(t, []interface{}{"extra"}, summary["uncompared_b"])
}

func TestCompareEndpointMissingDataset(t *testing.T) {
	s := newServer(t)
	resp, out := postJSON(t, s, "/v1/compare", `{"left": {"columns": ["id"], "rows": [[1]]}, "keys": ["id"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["empty"])
	assert.Empty(t, out["differences"])
}

func TestCompareEndpointErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"left":`, http.StatusBadRequest},
		{"ragged rows", `{"left": {"columns": ["id", "v"], "rows": [[1]]}, "right": {"columns": ["id"], "rows": []}, "keys": ["id"]}`, http.StatusBadRequest},
		{"negative tolerance", `{"tolerance": -1}`, http.StatusBadRequest},
		{"unknown key", `{"left": {"columns": ["id"], "rows": [[1]]}, "right": {"columns": ["id"], "rows": [[1]]}, "keys": ["nope"]}`, http.StatusUnprocessableEntity},
		{"unknown compare column", `{"left": {"columns": ["id"], "rows": [[1]]}, "right": {"columns": ["id"], "rows": [[1]]}, "keys": ["id"], "compare": ["v"]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postJSON(t, s, "/v1/compare", tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestColumnsEndpoint(t *testing.T) {
	s := newServer(t)
	resp, out := postJSON(t, s, "/v1/columns", compareBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"amount", "id", "name"}, out["columns"])

	resp, out = postJSON(t, s, "/v1/columns", `{"left": null, "right": null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, out["columns"])
}

func multipartRequest(t *testing.T, files map[string][2]string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, file := range files {
		part, err := w.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/compare/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestCompareFilesEndpoint(t *testing.T) {
	s := newServer(t)
	req := multipartRequest(t,
		map[string][2]string{
			"left":  {"a.csv", "id,name,amount\n1,x,10\n2,y,20\n"},
			"right": {"b.csv", "id,name,amount\n2,y,25\n3,z,30\n"},
		},
		map[string]string{"keys": "id", "compare": "name, amount"},
	)
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "a.csv", out["label_a"])
	assert.Equal(t, "b.csv", out["label_b"])
	assert.Equal(t, []interface{}{"name", "amount"}, out["compare_columns"])

	diffs := out["differences"].([]interface{})
	require.Len(t, diffs, 1)
	assert.Equal(t, "b.csv", diffs[0].(map[string]interface{})["dataset_b_label"])
}

func TestCompareFilesEndpointMissingUpload(t *testing.T) {
	s := newServer(t)
	req := multipartRequest(t,
		map[string][2]string{"left": {"a.csv", "id\n1\n"}},
		map[string]string{"keys": "id"},
	)
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["empty"])
}

func TestCompareFilesEndpointBadTolerance(t *testing.T) {
	s := newServer(t)
	req := multipartRequest(t, nil, map[string]string{"keys": "id", "tolerance": "abc"})
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestShutdown verifies that calling Shutdown on the server does not return an error
func TestShutdown(t *testing.T) {
	s := newServer(t)
	err := s.Shutdown(context.Background())
	assert.NoError(t, err, "Expected no error calling Shutdown on server")
}
