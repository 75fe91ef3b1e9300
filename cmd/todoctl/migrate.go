package main

import (
	"fmt"
	"todoTracker/internal/repository/todo/postgres"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Миграции схемы PostgreSQL",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все миграции",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Откатить миграции",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var migrateSteps int

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "сколько миграций откатить, 0 - все")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := postgres.MigrateDown(cfg.Database.URL, migrateSteps); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
	return nil
}
