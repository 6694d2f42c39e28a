// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bonial-oss/cve-pulse/internal/account"
	"github.com/bonial-oss/cve-pulse/internal/backend"
	"github.com/bonial-oss/cve-pulse/internal/cache"
	"github.com/bonial-oss/cve-pulse/internal/config"
	"github.com/bonial-oss/cve-pulse/internal/datasource/counts"
	"github.com/bonial-oss/cve-pulse/internal/datasource/cve"
	"github.com/bonial-oss/cve-pulse/internal/datasource/kev"
	"github.com/bonial-oss/cve-pulse/internal/insights"
	"github.com/bonial-oss/cve-pulse/internal/logging"
	"github.com/bonial-oss/cve-pulse/internal/session"
	"github.com/bonial-oss/cve-pulse/internal/store"
)

// runtime holds the services shared by one command invocation.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	store  store.Store
	client *backend.Client
	cache  *cache.Cache
	stderr io.Writer
	quiet  bool
}

// open resolves the configuration and opens the store and backend client.
// Callers must Close the result.
func (o *Options) open(stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.CacheType != "" {
		cfg.Cache.Type = string(o.CacheType)
	}
	if o.CachePath != "" {
		cfg.Cache.Path = o.CachePath
	}
	cfg.Debug = cfg.Debug || o.Debug
	if err := cfg.Validate(); err != nil {
		return nil, validationError(err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	storeCfg := cfg.Store()
	st, err := storeCfg.New()
	if err != nil {
		return nil, fmt.Errorf("opening %s cache at %s: %w", storeCfg.Type, storeCfg.Path, err)
	}
	logger.Debug("cache opened", zap.String("type", storeCfg.Type), zap.String("path", storeCfg.Path))

	client := backend.New(cfg.BaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		backend.WithRetries(cfg.Retries),
		backend.WithLogger(logger),
	)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  st,
		client: client,
		cache:  cache.New(st, cache.WithTTL(cfg.Cache.TTL), cache.WithCompression(cfg.Cache.Compress)),
		stderr: stderr,
		quiet:  o.NoProgress || !isTerminal(stderr),
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing cache", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// cves builds the snapshot pipeline. With progress set, a refresh cycle
// draws a per-year progress bar on stderr.
func (r *runtime) cves(progress bool) *cve.Source {
	opts := []cve.Option{
		cve.WithLogger(r.logger),
		cve.WithStartYear(r.cfg.StartYear),
	}

	var src *cve.Source
	if progress {
		var bar *progressbar.ProgressBar
		opts = append(opts, cve.WithProgress(func(year string, _ int, _ error) {
			if bar == nil {
				bar = r.newBar(len(src.Years()), "fetching CVEs")
			}
			bar.Describe("fetching CVEs " + year)
			_ = bar.Add(1)
		}))
	}
	src = cve.NewSource(r.client, r.cache, opts...)
	return src
}

func (r *runtime) newBar(total int, description string) *progressbar.ProgressBar {
	if r.quiet {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *runtime) kev() *kev.Source {
	return kev.NewSource(r.client, kev.WithLogger(r.logger))
}

func (r *runtime) counts() *counts.Source {
	return counts.NewSource(r.client, counts.WithLogger(r.logger))
}

func (r *runtime) accounts() *account.Client {
	return account.New(r.client, account.WithLogger(r.logger))
}

func (r *runtime) insights() *insights.Client {
	return insights.New(r.client, insights.WithLogger(r.logger))
}

func (r *runtime) sessions() *session.Manager {
	return session.NewManager(r.store)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// openOutput returns stdout (or the command's configured writer) unless path
// names a file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
