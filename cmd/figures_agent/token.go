package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/config"
	"github.com/jonathan/figure-planner/internal/server"
)

func newTokenCmd(_ *rootOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long:  "Sign a bearer token for the API with JWT_SECRET. The subject names the operator or service using it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtCfg, err := config.NewJWTConfig()
			if err != nil {
				return err
			}
			token, err := server.NewJWTService(jwtCfg).GenerateToken(subject)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (required)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
