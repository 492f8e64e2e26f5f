package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/welldanyogia/seatea-inbox/internal/auth"
)

type tokenOptions struct {
	userID uint
	ttl    time.Duration
	secret string
}

// newTokenCommand mints development tokens with the server's JWT secret
func newTokenCommand() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID == 0 {
				return errors.New("--user-id is required")
			}
			if opts.secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			manager, err := auth.NewManager(opts.secret)
			if err != nil {
				return err
			}
			token, err := manager.Issue(opts.userID, opts.ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().UintVar(&opts.userID, "user-id", 0, "user id to put in the token subject")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (env JWT_SECRET)")
	return cmd
}
