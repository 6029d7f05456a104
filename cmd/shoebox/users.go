package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (admin only)",
	Long: `Create, list and delete user accounts. These commands always run as the admin
account, whatever --user says.`,
}

// asAdmin runs fn inside an admin session.
func asAdmin(cmd *cobra.Command, fn func(lib *service.Library, s *service.Session) error) error {
	ctx := cmd.Context()
	return withLibrary(ctx, func(lib *service.Library) error {
		s, err := lib.Login(ctx, gallery.AdminUsername)
		if err != nil {
			return err
		}
		if err := fn(lib, s); err != nil {
			return err
		}
		return s.Logout(ctx)
	})
}

var createUserCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(lib *service.Library, s *service.Session) error {
			u, err := lib.Admin().CreateUser(cmd.Context(), args[0])
			if errors.Is(err, gallery.ErrDuplicateName) {
				return fmt.Errorf("user %q already exists", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Created user %s\n", u.Username())
			return nil
		})
	},
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(lib *service.Library, s *service.Session) error {
			return renderUsers(cmd.OutOrStdout(), lib.Admin().ListUsers())
		})
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete a user account and all of its albums",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(lib *service.Library, s *service.Session) error {
			err := lib.DeleteUser(cmd.Context(), args[0])
			if errors.Is(err, gallery.ErrUserNotFound) {
				return fmt.Errorf("user not found: %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Deleted user %s\n", args[0])
			return nil
		})
	},
}

var seedStockCmd = &cobra.Command{
	Use:   "seed-stock [DIR]",
	Short: "Create the 'stock' user with an album of the images in DIR",
	Long: `Creates the 'stock' user holding one album, also named 'stock', with every bmp, gif,
jpg, jpeg and png file found directly in DIR. DIR defaults to --stock-dir or
SHOEBOX_STOCK_DIR. An existing stock user is left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("stock-dir")
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no stock directory given")
		}
		return asAdmin(cmd, func(lib *service.Library, s *service.Session) error {
			u, created, err := lib.EnsureStockUser(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("failed to seed stock user: %w", err)
			}
			if !created {
				fmt.Fprintf(os.Stderr, "User %s already exists\n", u.Username())
				return nil
			}
			a := u.AlbumByName(service.StockAlbumName)
			fmt.Fprintf(os.Stderr, "Created user %s with %d photos from %s\n", u.Username(), a.Len(), dir)
			return nil
		})
	},
}

func initUsersCmd() {
	seedStockCmd.Flags().String("stock-dir", "", "Directory of stock images")
	viper.BindPFlag("stock-dir", seedStockCmd.Flags().Lookup("stock-dir"))

	usersCmd.AddCommand(createUserCmd, listUsersCmd, deleteUserCmd, seedStockCmd)
}
