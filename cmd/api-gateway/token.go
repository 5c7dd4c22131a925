package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/pkg/config"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for an existing user",
		Long: `Sign an access token for a user of the configured store. The token
carries the user's id and role; permissions are derived from the role on
every request.

Examples:
  api-gateway token 6f1c...            # token valid for JWT_EXPIRATION
  api-gateway token 6f1c... --ttl 1h`,
		Args: cobra.ExactArgs(1),
		RunE: runToken,
	}
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Driver == config.StoreMemory || cfg.Store.Driver == "" {
		return fmt.Errorf("the memory store does not outlive this command; set STORE_DRIVER to postgres or mongo")
	}

	store, err := repository.Open(cmd.Context(), cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer store.Close(cmd.Context()) //nolint:errcheck

	authCfg := authConfig(cfg)
	if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
		authCfg.Expiry = ttl
	}
	issued, err := service.NewAuthService(store.Users, authCfg, zap.NewNop()).IssueToken(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if !cfg.JWT.Enabled {
		fmt.Printf("%s AUTH_ENABLED is false; the server will not check this token\n", color.New(color.FgYellow).Sprint("NOTE"))
	}
	fmt.Printf("%s %s (%s)\n", color.New(color.FgGreen).Sprint("USER"), issued.User.Name, issued.User.Role)
	fmt.Printf("%s %s\n", color.New(color.FgBlue).Sprint("EXPIRES"), issued.ExpiresAt.Format(time.RFC3339))
	fmt.Println(issued.Token)
	return nil
}
