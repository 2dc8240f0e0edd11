package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/fileshare/fileshared/internal/cli/output"
	"github.com/fileshare/fileshared/internal/cli/prompt"
	"github.com/fileshare/fileshared/internal/config"
	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var userAdmin bool

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user accounts",
	RunE:  runUserList,
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user's admin/active flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserUpdate,
}

var (
	userUpdateIsAdmin  bool
	userUpdateIsActive bool
)

func init() {
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant the new account admin privileges")

	userUpdateCmd.Flags().BoolVar(&userUpdateIsAdmin, "admin", false, "grant admin privileges")
	userUpdateCmd.Flags().BoolVar(&userUpdateIsActive, "active", true, "mark the account active")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userUpdateCmd)
}

// openUserStore loads configuration and opens just the metadata store, the
// only collaborator the user subcommands need.
func openUserStore() (*config.Config, metadata.Store, error) {
	cfg, err := config.Load(viper.New(), GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	meta, err := openMetadataStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	return cfg, meta, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func runUserList(cmd *cobra.Command, args []string) error {
	_, meta, err := openUserStore()
	if err != nil {
		return err
	}
	defer meta.Close()

	users, err := meta.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	table := output.NewUserTable()
	for _, u := range users {
		table.AddRow(strconv.FormatInt(u.ID, 10), u.Username, strconv.FormatBool(u.IsAdmin), strconv.FormatBool(u.IsActive))
	}
	output.PrintTable(cmd.OutOrStdout(), table)
	return nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	_, meta, err := openUserStore()
	if err != nil {
		return err
	}
	defer meta.Close()

	username := args[0]
	password, err := prompt.PasswordWithConfirmation("Password", 1)
	if err != nil {
		return err
	}

	id, err := meta.CreateUser(context.Background(), username, hashPassword(password), userAdmin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %q with id %d\n", username, id)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	if id == metadata.PrimaryAdminID {
		return fmt.Errorf("the primary admin (id=%d) cannot be deleted", metadata.PrimaryAdminID)
	}

	ok, err := prompt.Confirm(fmt.Sprintf("Delete user %d", id))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}

	_, meta, err := openUserStore()
	if err != nil {
		return err
	}
	defer meta.Close()

	if err := meta.DeleteUser(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	fmt.Printf("Deleted user %d\n", id)
	return nil
}

func runUserUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	_, meta, err := openUserStore()
	if err != nil {
		return err
	}
	defer meta.Close()

	if err := meta.UpdateUser(context.Background(), id, userUpdateIsAdmin, userUpdateIsActive); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	fmt.Printf("Updated user %d: admin=%v active=%v\n", id, userUpdateIsAdmin, userUpdateIsActive)
	return nil
}
