package main

import (
	"fmt"
	"time"
	"todoTracker/internal/auth"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Выпустить bearer-токен для пользователя",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

var tokenTTL time.Duration

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "срок действия, по умолчанию auth.token_ttl")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ttl := cfg.Auth.TokenTTL
	if cmd.Flags().Changed("ttl") {
		ttl = tokenTTL
	}

	token, err := auth.NewVerifier(cfg.Auth.JWTSecret).Issue(args[0], ttl)
	if err != nil {
		return fmt.Errorf("выпуск токена: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
