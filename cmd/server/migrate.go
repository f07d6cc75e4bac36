package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/shopapp/internal/config"
	"github.com/iudanet/shopapp/internal/server/storage/sqlite"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(s *sqlite.Storage) error {
				if err := s.Migrate(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, s)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(s *sqlite.Storage) error {
				if err := s.MigrateDown(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, s)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(s *sqlite.Storage) error {
				return printVersion(cmd, s)
			})
		},
	})

	return cmd
}

// withStorage открывает базу без применения миграций
func withStorage(cmd *cobra.Command, fn func(s *sqlite.Storage) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	s, err := sqlite.Open(cmd.Context(), cfg.Database.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

func printVersion(cmd *cobra.Command, s *sqlite.Storage) error {
	version, err := s.MigrationVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}
