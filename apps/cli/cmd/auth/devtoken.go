package auth

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/platform/go/auth/devtoken"
)

func devTokenCommand() *cobra.Command {
	var params devtoken.Params
	var secret string

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Generate a JWT for local use (unsigned, or HS256 when --secret is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()

			var (
				token string
				err   error
			)
			if secret != "" {
				token, err = devtoken.BuildSignedToken(params, now, []byte(secret))
			} else {
				token, err = devtoken.BuildUnsignedToken(params, now)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	// Required claims
	cmd.Flags().StringVar(&params.UserID, "user-id", "", "uid/sub claim (user UUID)")
	cmd.Flags().StringVar(&params.Email, "email", "", "email claim")

	// Optional claims
	cmd.Flags().StringVar(&params.TenantID, "tenant-id", "", "tenantId claim; required unless --super-admin")
	cmd.Flags().StringVar(&params.RoleID, "role-id", "", "roleId claim")
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().BoolVar(&params.IsSuperAdmin, "super-admin", false, "set isSuperAdmin=true")
	cmd.Flags().DurationVar(&params.ExpiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")
	cmd.Flags().StringVar(&params.Issuer, "issuer", "", "override iss")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret matching the API JWT_SECRET (AUTH_PROVIDER=jwt)")

	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
