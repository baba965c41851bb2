package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(newUserCreateCmd(), newUserPasswordCmd())
}

func newUserCreateCmd() *cobra.Command {
	var (
		name     string
		password string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "create <student-id>",
		Short: "Create an account",
		Long: `Create an account directly, without registration. Without --password a
random one is generated and printed.

Examples:
  trznica user create 00000000001 --name "Second Admin" --role admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != model.RoleAdmin && role != model.RoleStudent {
				return fmt.Errorf("unknown role %q", role)
			}
			if err := model.ValidateStudentID(args[0]); err != nil {
				return err
			}
			if name == "" {
				return errors.New("--name is required")
			}
			generated := password == ""
			if generated {
				var err error
				if password, err = auth.GeneratePassword(16); err != nil {
					return err
				}
			} else if err := model.ValidatePassword(password); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			u, err := auth.CreateAccount(cmd.Context(), database, model.User{
				StudentID: args[0], Name: name, Role: role,
			}, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s %q (id %d).\n", u.Role, u.Name, u.ID)
			if generated {
				fmt.Fprintf(out, "Password: %s\n", password)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (generated if empty)")
	cmd.Flags().StringVarP(&role, "role", "r", model.RoleStudent, "role: student or admin")
	return cmd
}

func newUserPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <student-id>",
		Short: "Set a new random password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			u, err := store.GetUserByStudentID(cmd.Context(), database, args[0])
			if err != nil {
				return err
			}
			if u == nil || u.DeletedAt != nil {
				return fmt.Errorf("no account with student ID %s", args[0])
			}
			password, err := auth.GeneratePassword(16)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			if err := store.UpdateUserPassword(cmd.Context(), database, u.ID, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New password for %s: %s\n", u.Name, password)
			return nil
		},
	}
}
