package main

import (
	"errors"
	"fmt"
	"time"

	srv "github.com/sohanAi024/News-Multi-Agent/internal/server"
	"github.com/spf13/cobra"
)

func tokenCMD(app *cli) *cobra.Command {
	var subject string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the /admin routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret not configured")
			}
			signed, err := srv.SignToken(subject, []byte(app.cfg.Server.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "admin", "token subject")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return token
}
