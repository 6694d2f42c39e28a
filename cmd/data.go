// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/datasource/kev"
	"github.com/bonial-oss/cve-pulse/internal/enricher"
	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/output"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

func newRefreshCmd(opts *Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Load the CVE snapshot, fetching it when the cache is stale",
		Example: heredoc.Doc(`
			$ cve-pulse refresh
			$ cve-pulse refresh --force
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			src := rt.cves(true)
			load := src.Load
			if force {
				load = src.ForceRefresh
			}
			snap, err := load(cmd.Context())
			if err != nil {
				return dataError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d CVEs across %d years, snapshot taken %s\n",
				len(snap.NormalizedRecords), len(snap.YearsWithData), snap.CreatedAt().Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Discard the cached snapshot and fetch every year again")

	return cmd
}

func newListCmd(opts *Options) *cobra.Command {
	options := struct {
		year          string
		kevDate       string
		format        Format
		sortBy        string
		kevOnly       bool
		epssThreshold float64
		limit         int
		output        string
	}{
		year:   types.AllYears,
		format: FormatTable,
		sortBy: string(enricher.SortRisk),
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List CVEs, optionally narrowed to a year or a KEV catalog date",
		Example: heredoc.Doc(`
			$ cve-pulse list
			$ cve-pulse list --year 2024 --sort-by epss --limit 20
			$ cve-pulse list --year 2024 --kev-date 2024-05-15
			$ cve-pulse list --year 2023 --kev-only --format json -o kev-2023.json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortBy, err := enricher.ParseSortKey(options.sortBy)
			if err != nil {
				return validationError(err)
			}
			if options.epssThreshold < 0 || options.epssThreshold > 1 {
				return &ExitError{Code: ExitValidation, Message: fmt.Sprintf("--epss-threshold must be between 0 and 1, got %g", options.epssThreshold)}
			}
			if options.limit < 0 {
				return &ExitError{Code: ExitValidation, Message: "--limit must not be negative"}
			}
			year := options.year
			if options.kevOnly && year == types.AllYears {
				return &ExitError{Code: ExitValidation, Message: "--kev-only needs --year: " + kev.NoticeAllYears}
			}

			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			snap, err := rt.cves(true).Load(ctx)
			if err != nil {
				return dataError(err)
			}

			kevSource := rt.kev()
			records := filter.ByYear(snap.NormalizedRecords, year)
			var (
				notice string
				listed map[string]struct{}
			)
			switch {
			case options.kevDate != "":
				records, notice = kevSource.FilterByDate(ctx, snap.NormalizedRecords, year, options.kevDate)
				listed = idSet(records)
			case year != types.AllYears:
				entries, err := kevSource.Fetch(ctx, year)
				if err != nil {
					rt.logger.Warn("KEV status unavailable", zap.String("year", year), zap.Error(err))
					notice = fmt.Sprintf(kev.NoticeFetchError, year)
				} else {
					listed = kev.IDs(entries)
				}
			}

			ranked := enricher.New(listed).Rank(records, enricher.Config{
				SortBy:        sortBy,
				EPSSThreshold: options.epssThreshold,
				KEVOnly:       options.kevOnly,
			})
			if options.limit > 0 && len(ranked) > options.limit {
				ranked = ranked[:options.limit]
			}

			w, closeOutput, err := openOutput(options.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOutput()

			if options.format == FormatJSON {
				return output.WriteJSON(w, output.NewListing(year, notice, ranked))
			}

			output.WriteNotice(cmd.ErrOrStderr(), notice, isTerminal(cmd.ErrOrStderr()))
			return output.WriteRecords(w, "CVEs: "+yearLabel(year), ranked, output.TableConfig{
				ShowRisk:   true,
				ShowKEV:    year != types.AllYears,
				IsTerminal: output.IsOutputToTerminal(w),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&options.year, "year", "y", options.year, "Year to show, or \"all\"")
	flags.StringVar(&options.kevDate, "kev-date", "", "Only CVEs added to the KEV catalog on this date (YYYY-MM-DD)")
	addFormatFlag(cmd, &options.format)
	flags.StringVar(&options.sortBy, "sort-by", options.sortBy, "Sort by: risk, cvss, epss, published, cve, none")
	_ = cmd.RegisterFlagCompletionFunc("sort-by", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		keys := []string{string(enricher.SortNone)}
		for _, k := range enricher.SortKeys {
			keys = append(keys, string(k))
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	})
	flags.BoolVar(&options.kevOnly, "kev-only", false, "Only show CVEs listed in the KEV catalog")
	flags.Float64Var(&options.epssThreshold, "epss-threshold", 0, "Only show CVEs with EPSS score >= value")
	flags.IntVar(&options.limit, "limit", 0, "Show at most this many CVEs (0 shows all)")
	flags.StringVarP(&options.output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func newYearsCmd(opts *Options) *cobra.Command {
	var format = FormatTable

	cmd := &cobra.Command{
		Use:   "years",
		Short: "Show the selectable year filters",
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
			filters := filter.YearFilters(snap.YearsWithData)
			if format == FormatJSON {
				return output.WriteJSON(w, map[string]any{"filters": filters, "yearsWithData": snap.YearsWithData})
			}
			return output.WriteYearFilters(w, filters, output.TableConfig{IsTerminal: output.IsOutputToTerminal(w)})
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newKEVCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kev",
		Short: "Inspect the known exploited vulnerabilities catalog",
	}

	cmd.AddCommand(newKEVDatesCmd(opts))

	return cmd
}

func newKEVDatesCmd(opts *Options) *cobra.Command {
	options := struct {
		year   string
		format Format
	}{
		format: FormatTable,
	}

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List the dates CVEs of a year were added to the KEV catalog",
		Example: heredoc.Doc(`
			$ cve-pulse kev dates --year 2024
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if options.year == "" || options.year == types.AllYears {
				return &ExitError{Code: ExitValidation, Message: kev.NoticeAllYears}
			}

			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.kev().Fetch(cmd.Context(), options.year)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			dates := kev.Dates(entries)
			if options.format == FormatJSON {
				return output.WriteJSON(w, map[string]any{"year": options.year, "dates": dates})
			}
			return output.WriteDates(w, "KEV catalog dates for "+options.year, dates, output.TableConfig{IsTerminal: output.IsOutputToTerminal(w)})
		},
	}

	cmd.Flags().StringVarP(&options.year, "year", "y", "", "Year whose KEV entries to list")
	_ = cmd.MarkFlagRequired("year")
	addFormatFlag(cmd, &options.format)

	return cmd
}

func yearLabel(year string) string {
	if year == types.AllYears {
		return types.AllYearsLabel
	}
	return year
}

func idSet(records []types.Record) map[string]struct{} {
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.CVEID] = struct{}{}
	}
	return ids
}
