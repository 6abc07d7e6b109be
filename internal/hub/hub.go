// Package hub downloads pretrained model files from a Hugging Face
// compatible model hub.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"

	"feedbackbot/internal/logger"
)

var (
	ErrUnauthorized = errors.New("hub rejected the access token")
	ErrNotFound     = errors.New("file not found on hub")
	ErrDownload     = errors.New("hub download failed")
)

type Config struct {
	Endpoint string
	Token    string
	CacheDir string
	// Progress receives a byte progress bar per file when set.
	Progress io.Writer
}

type Client struct {
	http     *resty.Client
	cacheDir string
	progress io.Writer
}

func New(cfg Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetHeader("User-Agent", "feedbackbot-hub")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{http: client, cacheDir: cfg.CacheDir, progress: cfg.Progress}
}

// LocalPath is where file from repo lands inside cacheDir.
func LocalPath(cacheDir, repo, file string) string {
	return filepath.Join(cacheDir, filepath.FromSlash(repo), filepath.FromSlash(file))
}

// Download fetches every file of repo at revision, skipping files already
// present in the cache, and returns their local paths.
func (c *Client) Download(ctx context.Context, repo, revision string, files []string) ([]string, error) {
	if revision == "" {
		revision = "main"
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		p, err := c.downloadFile(ctx, repo, revision, file)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (c *Client) downloadFile(ctx context.Context, repo, revision, file string) (string, error) {
	dst := LocalPath(c.cacheDir, repo, file)
	if info, err := os.Stat(dst); err == nil && !info.IsDir() {
		logger.L.Debug("hub file cached", "repo", repo, "file", file, "path", dst)
		return dst, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create cache dir failed: %w", err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(path.Join("/", repo, "resolve", revision, file))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDownload, file, err)
	}
	body := res.RawBody()
	defer body.Close()

	switch {
	case res.StatusCode() == http.StatusUnauthorized || res.StatusCode() == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, res.Status())
	case res.StatusCode() == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, repo, file)
	case !res.IsSuccess():
		return "", fmt.Errorf("%w: %s: %s", ErrDownload, file, res.Status())
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".part-*")
	if err != nil {
		return "", fmt.Errorf("create temp file failed: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	if c.progress != nil {
		bar := progressbar.NewOptions64(res.RawResponse.ContentLength,
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionSetDescription("⏬ "+file),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(tmp, bar)
	}

	n, err := io.Copy(w, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrDownload, file, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move downloaded file failed: %w", err)
	}

	logger.L.Info("hub file downloaded", "repo", repo, "file", file, "bytes", n, "path", dst)
	return dst, nil
}
