package main

import (
	"errors"
	"fmt"

	"community-service/internal/auth"
	"community-service/internal/repository"
	"community-service/pkg/database"
	"community-service/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account if it does not exist yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminUsername == "" || adminPassword == "" {
			return errors.New("--username and --password are required")
		}
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.SyncLoggers()

		db, err := database.ConnectDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		acc, err := repository.CreateAdminUser(cmd.Context(), db, adminUsername, adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %q ready (id %d)\n", acc.Username, acc.ID)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash stored for a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashed, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	rootCmd.AddCommand(createAdminCmd, hashPasswordCmd)
}
