package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sohanAi024/News-Multi-Agent/config"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/spf13/cobra"
)

// cli carries state shared by the subcommands.
type cli struct {
	cfgPath string
	cfg     *config.Config
	flush   func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli{}
	root := &cobra.Command{
		Use:           "newsagent",
		Short:         "Conversational news assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(app.cfgPath)
			if err != nil {
				return err
			}
			app.cfg = cfg
			lctx, flush := log.NewContextWithLogger(cmd.Context(), log.Options{Level: cfg.General.LogLevel, JSON: cfg.General.LogJSON})
			app.flush = flush
			cmd.SetContext(lctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.flush != nil {
				app.flush()
			}
		},
	}
	root.PersistentFlags().StringVarP(&app.cfgPath, "config", "c", "", "config file (default ./config/config.json)")
	root.AddCommand(serveCMD(app), migrateCMD(app), scrapeCMD(app), tokenCMD(app))

	if err := root.ExecuteContext(ctx); err != nil {
		if app.flush != nil {
			app.flush()
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
