package main

import (
	srv "github.com/sohanAi024/News-Multi-Agent/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(app *cli) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				app.cfg.Server.Address = addr
			}
			return srv.Run(cmd.Context(), app.cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return serve
}
