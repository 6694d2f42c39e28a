// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/account"
	"github.com/bonial-oss/cve-pulse/internal/datasource/cve"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes.
const (
	ExitNoData     = 1
	ExitFailure    = 2
	ExitValidation = 3
)

// ExitError signals a non-zero exit code with an optional message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Options holds the flags shared by all subcommands. Unset values fall back
// to the config file and CVE_PULSE_* environment variables.
type Options struct {
	ConfigPath string
	BaseURL    string
	CacheType  CacheType
	CachePath  string
	Debug      bool
	NoProgress bool
}

// NewRootCommand creates the root cobra command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:     "cve-pulse <command>",
		Short:   "Browse, filter and analyze published CVEs",
		Version: Version,
		Long: heredoc.Doc(`
			cve-pulse fetches the published CVEs of every year since 2015 from the
			dashboard backend, keeps a 24 hour snapshot in a local cache and lets you
			filter, rank and summarize them. It also signs in to the dashboard and
			requests website security insights.
		`),
		Example: heredoc.Doc(`
			$ cve-pulse refresh
			$ cve-pulse list --year 2024 --sort-by risk
			$ cve-pulse list --year 2024 --kev-date 2024-05-15
			$ cve-pulse stats types --year 2023
			$ cve-pulse serve --addr 127.0.0.1:8080
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "Config file (default <data dir>/config.yaml)")
	pf.StringVar(&opts.BaseURL, "base-url", "", "Dashboard backend base URL")
	pf.Var(&opts.CacheType, "cache-type", "Cache backend (accepts: [file, boltdb, redis, sqlite3])")
	_ = cmd.RegisterFlagCompletionFunc("cache-type", CacheTypeCompletion)
	pf.StringVar(&opts.CachePath, "cache-path", "", "Cache location: a directory, a database file or a redis address")
	pf.BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")
	pf.BoolVar(&opts.NoProgress, "no-progress", false, "Hide progress bars")

	cmd.AddCommand(
		newRefreshCmd(opts),
		newListCmd(opts),
		newYearsCmd(opts),
		newKEVCmd(opts),
		newStatsCmd(opts),
		newAnalyzeCmd(opts),
		newLoginCmd(opts),
		newSignupCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newUpdateUserCmd(opts),
		newCacheCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// dataError maps a snapshot pipeline failure to its exit code.
func dataError(err error) error {
	if errors.Is(err, cve.ErrNoData) {
		return &ExitError{
			Code:    ExitNoData,
			Message: fmt.Sprintf("%v; try again later or run `cve-pulse refresh --force`", err),
		}
	}
	return err
}

// validationError reports bad user input with ExitValidation.
func validationError(err error) error {
	return &ExitError{Code: ExitValidation, Message: err.Error()}
}

// accountError maps account failures to exit codes.
func accountError(err error) error {
	var ve *account.ValidationError
	switch {
	case errors.As(err, &ve):
		return validationError(err)
	case errors.Is(err, account.ErrInvalidCredentials):
		return &ExitError{Code: ExitFailure, Message: "invalid email or password"}
	default:
		return err
	}
}
