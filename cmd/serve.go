// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/bonial-oss/cve-pulse/internal/server"
)

func newServeCmd(opts *Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard views as a local JSON API",
		Example: heredoc.Doc(`
			$ cve-pulse serve
			$ cve-pulse serve --addr 127.0.0.1:9000
			$ curl -s 'http://127.0.0.1:8080/api/v1/cves?year=2024'
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr == "" {
				addr = rt.cfg.Server.Addr
			}

			srv := server.New(rt.cves(false), rt.kev(), rt.counts(), server.WithLogger(rt.logger))
			return srv.Serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")

	return cmd
}
