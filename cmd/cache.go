// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/cache"
)

func newCacheCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cached CVE snapshot",
	}

	cmd.AddCommand(
		newCacheStatusCmd(opts),
		newCacheClearCmd(opts),
	)

	return cmd
}

func newCacheStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the age and size of the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			w := cmd.OutOrStdout()
			storeCfg := rt.cfg.Store()
			fmt.Fprintf(w, "Cache:     %s (%s)\n", storeCfg.Type, storeCfg.Path)

			snap, err := rt.cache.Load(cmd.Context())
			if errors.Is(err, cache.ErrMiss) {
				fmt.Fprintln(w, "Snapshot:  none")
				return nil
			}
			if err != nil {
				return err
			}

			state := "fresh"
			if !rt.cache.IsFresh(snap) {
				state = "expired"
			}
			age := rt.cache.Now().Sub(snap.CreatedAt()).Truncate(time.Second)
			fmt.Fprintf(w, "Snapshot:  %s, taken %s (%s ago)\n", state, snap.CreatedAt().Local().Format(time.DateTime), age)
			fmt.Fprintf(w, "Records:   %d across %d years\n", len(snap.NormalizedRecords), len(snap.YearsWithData))
			return nil
		},
	}
}

func newCacheClearCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached snapshot; the session is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cached snapshot removed")
			return nil
		},
	}
}
