package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chanmap/chanmap/internal/catalog"
	"github.com/chanmap/chanmap/internal/config"
	"github.com/chanmap/chanmap/internal/jobs"
	"github.com/chanmap/chanmap/internal/refdata"
	"github.com/chanmap/chanmap/internal/store"
	"github.com/chanmap/chanmap/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newTestServer(t *testing.T) (*httptest.Server, *catalog.MockServer) {
	t.Helper()

	mock := catalog.NewMockServer()
	t.Cleanup(mock.Close)

	db, err := refdata.Loader{}.Load([]string{"us"})
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "chanmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Defaults()
	cfg.Catalog.BaseURL = mock.URL
	cfg.Catalog.Username = "admin"
	cfg.Catalog.Password = "secret"

	client := catalog.New(mock.URL, catalog.Options{Username: "admin", Password: "secret"})
	runner, err := jobs.NewRunner(client, db, st, cfg)
	require.NoError(t, err)

	srv := New(func() *jobs.Runner { return runner }, st, Options{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		ts.Close()
	})
	return ts, mock
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStatusBeforeFirstRun(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/status")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessAndStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/process")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run types.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, 3, run.TotalChannels)
	assert.Equal(t, 2, run.Renamed)

	resp = do(t, http.MethodGet, ts.URL+"/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, run.ID, got.ID)
}

func TestChangesFilter(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/process")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/changes?status=Renamed")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var changes []types.ChangeRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&changes))
	require.Len(t, changes, 2)
	for _, ch := range changes {
		assert.Equal(t, types.StatusRenamed, ch.Status)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/changes?status=bogus")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewCSVEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/preview.csv")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/process")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/preview.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
}

func TestRenameEndpoint(t *testing.T) {
	ts, mock := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/rename")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "rename before any processing pass")

	resp = do(t, http.MethodPost, ts.URL+"/api/process")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/rename")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out["renamed"])
	assert.Len(t, mock.Edits, 1)
}

func TestSuffixUnknownEndpoint(t *testing.T) {
	ts, mock := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/process")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/suffix-unknown")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out["suffixed"])
	require.Len(t, mock.Edits, 1)
	assert.Equal(t, "Some Random Feed 123 [Unk]", mock.Edits[0][0].Name)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
