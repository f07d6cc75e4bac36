package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/shopapp/internal/config"
	"github.com/iudanet/shopapp/internal/crypto"
	"github.com/iudanet/shopapp/internal/iocli"
	"github.com/iudanet/shopapp/internal/server/admin"
	"github.com/iudanet/shopapp/internal/server/storage/sqlite"
)

func createAdminCmd() *cobra.Command {
	var acc admin.Account

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account (password is read from the terminal)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			s, err := sqlite.New(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			hasher := crypto.NewPasswordHasher(crypto.DefaultArgon2Params())
			_, err = admin.Create(ctx, iocli.NewStdio(), s, hasher, acc)
			return err
		},
	}
	cmd.Flags().StringVar(&acc.PhoneNumber, "phone", "", "Phone number (login)")
	cmd.Flags().StringVar(&acc.FullName, "name", "", "Full name")

	return cmd
}

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "Generate a random base64 secret for jwt.secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		secret := make([]byte, config.MinSecretLen)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(secret))
		return nil
	},
}
