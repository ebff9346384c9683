package main

import (
	"fmt"

	srv "github.com/sohanAi024/News-Multi-Agent/internal/server"
	"github.com/spf13/cobra"
)

func scrapeCMD(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch top headlines once and store new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := srv.Build(cmd.Context(), app.cfg, nil)
			if err != nil {
				return err
			}
			defer comp.Close()

			rep := comp.Ingestor.Run(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), rep.Message())
			return rep.Err
		},
	}
}
