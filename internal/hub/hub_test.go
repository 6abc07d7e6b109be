package hub

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, token string, files map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDownload_WritesFilesAndSkipsCached(t *testing.T) {
	srv, hits := newHubServer(t, "hf_test", map[string]string{
		"/microsoft/phi-2/resolve/main/onnx/model.onnx": "weights",
		"/microsoft/phi-2/resolve/main/config.json":     `{"vocab_size":51200}`,
	})
	dir := t.TempDir()
	var progress bytes.Buffer
	client := New(Config{Endpoint: srv.URL + "/", Token: "hf_test", CacheDir: dir, Progress: &progress})

	paths, err := client.Download(context.Background(), "microsoft/phi-2", "", []string{"onnx/model.onnx", "config.json"})
	require.NoError(t, err)
	require.Equal(t, []string{
		LocalPath(dir, "microsoft/phi-2", "onnx/model.onnx"),
		LocalPath(dir, "microsoft/phi-2", "config.json"),
	}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.Equal(t, "weights", string(data))
	require.EqualValues(t, 2, hits.Load())

	_, err = client.Download(context.Background(), "microsoft/phi-2", "main", []string{"onnx/model.onnx"})
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}

func TestDownload_Unauthorized(t *testing.T) {
	srv, _ := newHubServer(t, "hf_good", nil)
	dir := t.TempDir()
	client := New(Config{Endpoint: srv.URL, Token: "hf_bad", CacheDir: dir})

	_, err := client.Download(context.Background(), "microsoft/phi-2", "main", []string{"config.json"})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoFileExists(t, LocalPath(dir, "microsoft/phi-2", "config.json"))
}

func TestDownload_NotFoundLeavesNoPartialFile(t *testing.T) {
	srv, _ := newHubServer(t, "hf_test", nil)
	dir := t.TempDir()
	client := New(Config{Endpoint: srv.URL, Token: "hf_test", CacheDir: dir})

	_, err := client.Download(context.Background(), "microsoft/phi-2", "main", []string{"missing.bin"})
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(LocalPath(dir, "microsoft/phi-2", ""))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDownload_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{Endpoint: srv.URL, CacheDir: t.TempDir()})
	_, err := client.Download(context.Background(), "microsoft/phi-2", "main", []string{"config.json"})
	require.ErrorIs(t, err, ErrDownload)
}
