// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/config"
)

// CacheType selects the store backend.
type CacheType string

func (t *CacheType) String() string {
	return string(*t)
}

func (t *CacheType) Set(v string) error {
	switch v {
	case config.CacheFile, config.CacheBoltDB, config.CacheRedis, config.CacheSQLite3:
		*t = CacheType(v)
		return nil
	default:
		return fmt.Errorf("unexpected cache type. accepts: %q, actual: %q", cacheTypes, v)
	}
}

func (t *CacheType) Type() string {
	return "CacheType"
}

var cacheTypes = []string{config.CacheFile, config.CacheBoltDB, config.CacheRedis, config.CacheSQLite3}

func CacheTypeCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return cacheTypes, cobra.ShellCompDirectiveNoFileComp
}

// Format is the rendering of command output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) Set(v string) error {
	switch Format(v) {
	case FormatTable, FormatJSON:
		*f = Format(v)
		return nil
	default:
		return fmt.Errorf("unexpected format. accepts: %q, actual: %q", []Format{FormatTable, FormatJSON}, v)
	}
}

func (f *Format) Type() string {
	return "Format"
}

func FormatCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{string(FormatTable), string(FormatJSON)}, cobra.ShellCompDirectiveNoFileComp
}

func addFormatFlag(cmd *cobra.Command, f *Format) {
	cmd.Flags().VarP(f, "format", "f", "Output format: table, json")
	_ = cmd.RegisterFlagCompletionFunc("format", FormatCompletion)
}
