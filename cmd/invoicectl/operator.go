package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/invoicing-portal/internal/bootstrap"
	"github.com/iliyamo/invoicing-portal/internal/config"
	"github.com/iliyamo/invoicing-portal/internal/service"
)

const (
	usernameFlagName = "username"
	nameFlagName     = "name"
	passwordFlagName = "password"
)

// CreateOperatorCMD bootstraps an admin account.  Without --password a
// random one is generated and printed once.
func CreateOperatorCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "create an admin account",
		RunE:  createOperator,
	}
	cmd.Flags().StringP(usernameFlagName, "u", "", "login name of the operator")
	cmd.Flags().String(nameFlagName, "", "display name, defaults to the username")
	cmd.Flags().String(passwordFlagName, "", "password; generated when empty")
	_ = cmd.MarkFlagRequired(usernameFlagName)
	return cmd
}

func createOperator(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	username, _ := flags.GetString(usernameFlagName)
	name, _ := flags.GetString(nameFlagName)
	password, _ := flags.GetString(passwordFlagName)

	cfg := config.LoadStore()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	acct, pw, err := service.NewAccountService(store, cfg.BcryptCost).CreateOperator(ctx, username, name, password)
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "operator %s created (id %s)\n", acct.Username, acct.ID)
	if password == "" {
		fmt.Fprintf(out, "generated password: %s\n", pw)
	}
	return nil
}
