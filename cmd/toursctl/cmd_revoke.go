package main

import (
	"errors"
	"fmt"

	"tours/internal/middleware"
	"tours/internal/redisclient"

	"github.com/spf13/cobra"
)

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke TOKEN",
		Short: "Revoke a bearer token until it expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			rdb := redisclient.Connect(cfg.RedisURL)
			if rdb == nil {
				return errors.New("redis is not reachable at " + cfg.RedisURL)
			}
			defer func() { _ = rdb.Close() }()

			jti, err := middleware.RevokeSignedToken(cmd.Context(), rdb, cfg.JWTSecret, args[0])
			if err != nil {
				return fmt.Errorf("revoke token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked token %s\n", jti)
			return nil
		},
	}
}
