// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vendahub",
	Short: "VendaHub is a role-gated sales and training platform backend",
	Long: `VendaHub is the backend service for a role-gated sales/training
platform. It manages user identities, role claims and profiles, and serves
the callable operations used by the single-page client.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
