// Command todoctl обслуживает todo-tracker: миграции и выпуск токенов.
package main

import (
	"os"
	"todoTracker/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "todoctl",
	Short:        "Утилиты обслуживания todo-tracker",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к config.yml")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
