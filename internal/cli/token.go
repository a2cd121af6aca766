package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/rideshare-groups/internal/utils"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	UserID uint64
	Role   string
	TTL    time.Duration
}

// NewTokenCommand signs a bearer token with JWT_SECRET for local use.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token",
		Long: `Print an HS256 access token signed with JWT_SECRET.

Tokens normally come from the identity provider; this one is for local runs.

Example:
  rideshare-groups token --user-id 1
  rideshare-groups token --user-id 7 --role STUDENT --ttl 30m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.UserID == 0 {
				return fmt.Errorf("--user-id is required")
			}
			ttl := opts.TTL
			if ttl <= 0 {
				ttl = opts.Config.AccessTTL
			}
			tok, err := utils.NewAccessToken(opts.Config.JWTSecret, opts.UserID, strings.ToUpper(opts.Role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&opts.UserID, "user-id", 0, "users.id placed in the sub claim")
	cmd.Flags().StringVar(&opts.Role, "role", "ADMIN", "role claim")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default ACCESS_TOKEN_TTL)")
	return cmd
}
