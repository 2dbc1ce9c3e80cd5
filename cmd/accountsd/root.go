package main

import (
	"accountsd/cmd/internal/app"

	"github.com/spf13/cobra"
)

// configFile is the optional YAML config path shared by all subcommands.
var configFile string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accountsd",
		Short: "Accounts directory with bearer-token sessions",
		Long: `accountsd registers accounts, issues signed bearer tokens on login,
revokes them on logout, and serves a protected account listing.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.Serve(configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML); env overrides it")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.Serve(configFile)
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply the embedded schema to the Postgres database named by ACCOUNTS_STORE_URL, then exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Migrate(configFile); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}
