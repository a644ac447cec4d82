package fetch

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	assert.Len(t, MissingFiles(dir), 3)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "buses_trains_passenger_transport.csv"), []byte("geo\n"), 0o644))
	missing := MissingFiles(dir)
	assert.Len(t, missing, 2)
	assert.NotContains(t, missing, "buses_trains_passenger_transport.csv")
}

func TestDownload_DecompressesGzip(t *testing.T) {
	payload := "geo,TIME_PERIOD,OBS_VALUE\nDE,2019,40.0\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_, _ = gz.Write([]byte(payload))
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")

	f := NewFetcher(server.Client(), nil)
	require.NoError(t, f.download(context.Background(), server.URL, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestDownload_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	f := NewFetcher(server.Client(), nil)
	err := f.download(context.Background(), server.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")

	// No partial file left behind
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownload_NotGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text, not gzip"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), nil)
	err := f.download(context.Background(), server.URL, filepath.Join(t.TempDir(), "out.csv"))
	assert.Error(t, err)
}

func TestEnsureDatasets_SkipsPresentFiles(t *testing.T) {
	dir := t.TempDir()
	for _, ds := range Datasets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ds.File), []byte("geo\n"), 0o644))
	}

	// All files present: no request should ever be made, so a fetcher
	// with no reachable server must still succeed
	f := NewFetcher(&http.Client{}, nil)
	assert.NoError(t, f.EnsureDatasets(context.Background(), dir, false))
}
