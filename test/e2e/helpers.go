package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// runOnAllConfigs is a helper that runs a test on all configurations
func runOnAllConfigs(t *testing.T, testFunc func(t *testing.T, tc *TestContext)) {
	t.Helper()

	for _, config := range AllConfigurations() {
		t.Run(config.Name, func(t *testing.T) {
			tc := NewTestContext(t, config)
			defer tc.Cleanup()

			testFunc(t, tc)
		})
	}
}

// runOnS3Configs runs a test on the S3 configurations, skipping when
// Localstack is not reachable.
func runOnS3Configs(t *testing.T, testFunc func(t *testing.T, tc *TestContext)) {
	t.Helper()

	if !CheckLocalstackAvailable(t) {
		t.Skip("Localstack not available, skipping S3 tests")
	}

	helper := NewLocalstackHelper(t)
	defer helper.Cleanup()

	for _, config := range S3Configurations() {
		t.Run(config.Name, func(t *testing.T) {
			SetupS3Config(t, config, helper)

			tc := NewTestContext(t, config)
			defer tc.Cleanup()

			testFunc(t, tc)
		})
	}
}

// APIResponse is the decoded JSON envelope.
type APIResponse struct {
	Result       json.RawMessage `json:"result"`
	ErrorCode    string          `json:"errorCode"`
	ErrorMessage string          `json:"errorMessage"`
}

// Params are the optional listing parameters.
type Params struct {
	OrderBy string
	Order   string
	Limit   string
}

// do sends req with the session token of user and returns status and body.
func (tc *TestContext) do(req *http.Request, token string) (int, []byte, http.Header) {
	tc.T.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := tc.Client.Do(req)
	if err != nil {
		tc.T.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tc.T.Fatalf("Failed to read response body: %v", err)
	}
	return resp.StatusCode, body, resp.Header
}

func (tc *TestContext) decode(body []byte) APIResponse {
	tc.T.Helper()

	var out APIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		tc.T.Fatalf("Failed to decode response %q: %v", body, err)
	}
	return out
}

// apiURL builds an API URL. Path and file name values are path-escaped
// because the server percent-decodes them once more after query decoding.
func (tc *TestContext) apiURL(route string, values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		if v == "" {
			continue
		}
		if k == "path" || k == "filename" || k == "name" {
			v = url.PathEscape(v)
		}
		q.Set(k, v)
	}
	return tc.BaseURL + route + "?" + q.Encode()
}

// Upload sends data as a multipart file into dir.
func (tc *TestContext) Upload(user, dir, filename string, data []byte) (int, APIResponse) {
	tc.T.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		tc.T.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		tc.T.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		tc.T.Fatalf("Failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, tc.apiURL("/api/v1/files", map[string]string{"path": dir}), &body)
	if err != nil {
		tc.T.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, respBody, _ := tc.do(req, tc.Token(user))
	return status, tc.decode(respBody)
}

// MustUpload uploads and fails the test unless the server accepts it.
func (tc *TestContext) MustUpload(user, dir, filename string, data []byte) {
	tc.T.Helper()

	status, resp := tc.Upload(user, dir, filename, data)
	if status != http.StatusOK {
		tc.T.Fatalf("Upload %s/%s: status %d, %s: %s", dir, filename, status, resp.ErrorCode, resp.ErrorMessage)
	}
}

// List returns the entries of dir.
func (tc *TestContext) List(user, dir string, p Params) (int, []*metadata.FileEntry, APIResponse) {
	tc.T.Helper()

	u := tc.apiURL("/api/v1/files", map[string]string{
		"path":    dir,
		"orderby": p.OrderBy,
		"order":   p.Order,
		"limit":   p.Limit,
	})
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		tc.T.Fatalf("Failed to build request: %v", err)
	}

	status, body, _ := tc.do(req, tc.Token(user))
	resp := tc.decode(body)
	if status != http.StatusOK {
		return status, nil, resp
	}

	var result struct {
		Entries []*metadata.FileEntry `json:"entries"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		tc.T.Fatalf("Failed to decode listing: %v", err)
	}
	return status, result.Entries, resp
}

// MustList lists dir and fails the test on any error.
func (tc *TestContext) MustList(user, dir string, p Params) []*metadata.FileEntry {
	tc.T.Helper()

	status, entries, resp := tc.List(user, dir, p)
	if status != http.StatusOK {
		tc.T.Fatalf("List %s: status %d, %s: %s", dir, status, resp.ErrorCode, resp.ErrorMessage)
	}
	return entries
}

// Download fetches a file. On failure the body is the JSON envelope.
func (tc *TestContext) Download(user, dir, filename string) (int, []byte, http.Header) {
	tc.T.Helper()

	u := tc.apiURL("/api/v1/files/download", map[string]string{"path": dir, "filename": filename})
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		tc.T.Fatalf("Failed to build request: %v", err)
	}
	return tc.do(req, tc.Token(user))
}

// Mkdir creates a directory named name inside dir.
func (tc *TestContext) Mkdir(user, dir, name string) (int, APIResponse) {
	tc.T.Helper()

	u := tc.apiURL("/api/v1/directories", map[string]string{"path": dir, "name": name})
	req, err := http.NewRequest(http.MethodPost, u, nil)
	if err != nil {
		tc.T.Fatalf("Failed to build request: %v", err)
	}
	status, body, _ := tc.do(req, tc.Token(user))
	return status, tc.decode(body)
}

// MustMkdir creates a directory and fails the test on any error.
func (tc *TestContext) MustMkdir(user, dir, name string) {
	tc.T.Helper()

	if status, resp := tc.Mkdir(user, dir, name); status != http.StatusOK {
		tc.T.Fatalf("Mkdir %s/%s: status %d, %s: %s", dir, name, status, resp.ErrorCode, resp.ErrorMessage)
	}
}

// names returns the file names of entries in order.
func names(entries []*metadata.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// expectNames fails the test unless entries carry exactly want, in order.
func expectNames(t *testing.T, entries []*metadata.FileEntry, want ...string) {
	t.Helper()

	got := names(entries)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected entries %v, got %v", want, got)
	}
}
