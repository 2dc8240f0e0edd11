package commands

import (
	"context"
	"fmt"

	"github.com/fileshare/fileshared/internal/config"
	"github.com/fileshare/fileshared/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the on-disk layout and seed the primary admin",
	Long: `init creates the metadata database and blob storage root named by
the configuration, then seeds the primary admin account (username
"admin", password "admin") if the store is empty, without starting the
listener. Useful for provisioning before the first "serve".`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.New(), GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	meta, err := openMetadataStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer meta.Close()

	blobStore, err := openBlobStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer blobStore.Close()

	engine := server.NewEngine(meta, blobStore)
	if err := engine.Bootstrap(context.Background()); err != nil {
		return fmt.Errorf("failed to seed primary admin: %w", err)
	}

	fmt.Printf("Initialized metadata store (%s) and blob store (%s)\n", cfg.Database.Backend, cfg.Blob.Backend)
	fmt.Println("Primary admin ready: username \"admin\", password \"admin\"")
	fmt.Println("Change the admin password before exposing this server.")
	return nil
}
