// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/classify"
	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/output"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

func newStatsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize CVEs by vulnerability type and year",
	}

	cmd.AddCommand(
		newStatsTypesCmd(opts),
		newStatsTrendsCmd(opts),
		newStatsCountsCmd(opts),
	)

	return cmd
}

func newStatsTypesCmd(opts *Options) *cobra.Command {
	options := struct {
		year   string
		format Format
	}{
		year:   types.AllYears,
		format: FormatTable,
	}

	cmd := &cobra.Command{
		Use:   "types",
		Short: "Count CVEs per vulnerability type",
		Example: heredoc.Doc(`
			$ cve-pulse stats types
			$ cve-pulse stats types --year 2023 --format json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.cves(true).Load(cmd.Context())
			if err != nil {
				return dataError(err)
			}

			w := cmd.OutOrStdout()
			counts := classify.Count(filter.ByYear(snap.NormalizedRecords, options.year), classify.Types)
			if options.format == FormatJSON {
				return output.WriteJSON(w, map[string]any{"year": options.year, "categories": counts})
			}
			return output.WriteCategoryCounts(w, "Vulnerability types: "+yearLabel(options.year), counts,
				output.TableConfig{IsTerminal: output.IsOutputToTerminal(w)})
		},
	}

	cmd.Flags().StringVarP(&options.year, "year", "y", options.year, "Year to summarize, or \"all\"")
	addFormatFlag(cmd, &options.format)

	return cmd
}

func newStatsTrendsCmd(opts *Options) *cobra.Command {
	var format = FormatTable

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show the trend categories per year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.cves(true).Load(cmd.Context())
			if err != nil {
				return dataError(err)
			}

			w := cmd.OutOrStdout()
			names := classify.Names(classify.Trends)
			years := classify.ByYear(snap.NormalizedRecords, classify.Trends)
			if format == FormatJSON {
				return output.WriteJSON(w, map[string]any{"categories": names, "years": years})
			}
			return output.WriteYearCategories(w, "Trends", years, names, output.TableConfig{IsTerminal: output.IsOutputToTerminal(w)})
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newStatsCountsCmd(opts *Options) *cobra.Command {
	var format = FormatTable

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show the number of CVEs published per year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			// Fallback only; a stale or missing snapshot does not trigger a refresh.
			counts, notice := rt.counts().Resolve(ctx, rt.cves(false).Cached(ctx))

			w := cmd.OutOrStdout()
			if format == FormatJSON {
				doc := map[string]any{"counts": counts}
				if notice != "" {
					doc["notice"] = notice
				}
				return output.WriteJSON(w, doc)
			}
			output.WriteNotice(cmd.ErrOrStderr(), notice, isTerminal(cmd.ErrOrStderr()))
			return output.WriteYearCounts(w, "CVEs per year", counts, output.TableConfig{IsTerminal: output.IsOutputToTerminal(w)})
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}
