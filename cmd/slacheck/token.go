package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"complaintdesk/config"
	"complaintdesk/utils"
)

// TokenCommand creates the token subcommand, which mints a staff bearer token
// signed with JWT_SECRET for calling the API as a given user.
func TokenCommand(cfg *config.Config) *cobra.Command {
	var (
		userID int64
		hours  int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed staff token for a user",
		Example: `  # Token for user 10, valid for one day
  slacheck token --user 10

  # Short-lived token
  slacheck token --user 10 --hours 1`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if userID <= 0 {
				return errors.New("--user must be a positive user id")
			}
			if hours <= 0 {
				return errors.New("--hours must be positive")
			}
			tok, err := utils.GenerateJWT(userID, []byte(cfg.Auth.JWTSecret), hours)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id carried in the token")
	cmd.Flags().IntVar(&hours, "hours", 24, "Hours until the token expires")

	return cmd
}
