package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"feedbackbot/internal/config"
	"feedbackbot/internal/hub"
	"feedbackbot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	repo := flag.String("repo", cfg.Model.Name, "model repository on the hub")
	revision := flag.String("revision", cfg.Model.Revision, "branch, tag or commit")
	files := flag.String("files", strings.Join(cfg.Model.Files, ","), "comma separated files to fetch")
	cacheDir := flag.String("cache-dir", cfg.Model.CacheDir, "local model cache directory")
	quiet := flag.Bool("quiet", false, "disable the progress bar")
	flag.Parse()

	logger.SetLevel(cfg.App.LogLevel)

	if cfg.Secrets.HuggingFace.Token == "" {
		logger.L.Error("hugging face token missing: set [huggingface] token in the secrets file or HF_TOKEN")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubCfg := hub.Config{
		Endpoint: cfg.Model.HubEndpoint,
		Token:    cfg.Secrets.HuggingFace.Token,
		CacheDir: *cacheDir,
	}
	if !*quiet {
		hubCfg.Progress = os.Stderr
	}

	paths, err := hub.New(hubCfg).Download(ctx, *repo, *revision, splitFiles(*files))
	if err != nil {
		logger.L.Error("fetch model failed", "repo", *repo, "error", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func splitFiles(raw string) []string {
	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}
