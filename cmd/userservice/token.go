package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cms-backend/internal/config"
	"cms-backend/internal/shared/middleware"
	"cms-backend/pkg/jwt"
	"cms-backend/pkg/logger"
)

// newTokenCmd: "token service" in ra machine token cho ops/debug
func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue tokens",
	}

	var (
		subject string
		scope   string
		roles   []string
		ttl     time.Duration
	)

	service := &cobra.Command{
		Use:   "service",
		Short: "Print a machine-to-machine token signed with JWT_KEY",
		Example: `  userservice token service
  userservice token service --subject reporting --ttl 10m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.ServiceUsers)
			if err != nil {
				return err
			}
			logger.Init(cfg.App.Environment, cfg.App.LogLevel)

			m, err := jwt.NewManager(jwt.Options{
				Key:             cfg.JWT.Key,
				Issuer:          cfg.JWT.Issuer,
				Audience:        cfg.JWT.Audience,
				ServiceTokenTTL: cfg.JWT.ServiceTokenTTL(),
			})
			if err != nil {
				return err
			}

			extra := map[string]any{}
			if scope != "" {
				extra["scope"] = scope
			}
			if len(roles) > 0 {
				extra["roles"] = roles
			}

			issued, err := m.IssueServiceToken(strings.TrimSpace(subject), extra, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", issued.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	service.Flags().StringVar(&subject, "subject", "content-service", "token subject")
	service.Flags().StringVar(&scope, "scope", middleware.ScopeUsersRead, "space separated scopes")
	service.Flags().StringSliceVar(&roles, "roles", []string{middleware.RoleService}, "roles claim")
	service.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_SERVICE_TOKEN_MINUTES)")

	cmd.AddCommand(service)
	return cmd
}
