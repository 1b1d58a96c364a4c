package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the FinSight backend",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}

	var email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	user, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	client, err := newAPIClient(loadConfig())
	if err != nil {
		return err
	}
	if err := client.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}
