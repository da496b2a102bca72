package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tours/internal/database"
	"tours/internal/middleware"
	"tours/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user (development only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			if cfg.IsProduction() {
				return fmt.Errorf("refusing to issue tokens in production")
			}

			userID, err := resolveUserID(cmd.Context(), db, tokenUser)
			if err != nil {
				return err
			}

			token, err := middleware.IssueToken(cfg.JWTSecret, userID, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenUser, "user", "", "user ID or username")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// resolveUserID accepts a numeric ID or a username and returns the ID of an
// existing user.
func resolveUserID(ctx context.Context, db *gorm.DB, ref string) (uint, error) {
	users := repository.NewUserRepository(db)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		user, err := users.GetByID(ctx, uint(id))
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
	user, err := users.GetByUsername(ctx, ref)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
