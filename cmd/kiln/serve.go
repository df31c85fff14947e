package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/kiln/frontend"
	"github.com/chazu/kiln/pkg/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	var template string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor as a local web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ed, err := cfg.NewEditor()
			if err != nil {
				return err
			}
			if template != "" {
				if _, err := ed.LoadTemplate(template); err != nil {
					return err
				}
			}
			srv := server.New(ed, server.Options{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Assets:         frontend.Assets(),
			})
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides the configuration)")
	cmd.Flags().StringVar(&template, "template", "", "Template to load at startup")
	return cmd
}
