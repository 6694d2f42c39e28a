// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/insights"
)

func newAnalyzeCmd(opts *Options) *cobra.Command {
	options := struct {
		url         string
		options     []string
		listOptions bool
	}{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Request security insights for a website",
		Long: heredoc.Docf(`
			Ask the backend to analyze a website. Select between 1 and %d analysis
			options with repeated --option flags; names match case-insensitively.
			The report is printed as markdown.
		`, insights.MaxOptions),
		Example: heredoc.Doc(`
			$ cve-pulse analyze --list-options
			$ cve-pulse analyze --url https://example.com --option "Port Scan" --option "Whois Information"
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if options.listOptions {
				fmt.Fprintln(w, strings.Join(insights.Options, "\n"))
				return nil
			}

			req := insights.Request{URL: options.url, Options: options.options}
			if err := req.Validate(); err != nil {
				return validationError(err)
			}

			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.insights().Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, strings.TrimRight(report, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&options.url, "url", "", "Website to analyze")
	cmd.Flags().StringArrayVar(&options.options, "option", nil, "Analysis option (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("option", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return insights.Options, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().BoolVar(&options.listOptions, "list-options", false, "Print the available analysis options and exit")

	return cmd
}
