package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Maintenance API
// @version 1.0.0
// @description Equipment, maintenance teams and maintenance request lifecycle
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:   "api-gateway",
		Short: "Maintenance management API",
		Long: `Serves the maintenance REST API and carries the operational commands
around it: schema migrations and development tokens.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
