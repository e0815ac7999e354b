package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avatarctic/ledger/configs"
	"github.com/avatarctic/ledger/internal/application/services"
)

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token --subject NAME [--ttl 720h]",
		Short: "Mint a bearer token for a client installation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.Auth.Enabled() {
				return fmt.Errorf("AUTH_JWT_SECRET is not set; authentication is disabled")
			}
			authSvc := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil)
			tok, err := authSvc.IssueToken(cmd.Context(), subject, ttl)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tok)
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "token subject, e.g. the client installation name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
