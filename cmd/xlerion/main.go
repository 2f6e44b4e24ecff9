package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xlerion.co/guide/internal/config"
	"xlerion.co/guide/internal/store"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "xlerion",
	Short:         "Xlerion guide server and admin tools",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd, adminCmd, sourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadStoreConfig loads configuration for commands that only need the
// store. Missing AI or session keys do not matter to them.
func loadStoreConfig() (config.Config, error) {
	cfg, err := config.Load()
	var missing *config.MissingKeysError
	if errors.As(err, &missing) {
		for _, key := range missing.Keys {
			if key == "FIRESTORE_PROJECT_ID" || key == "XLERION_APP_ID" {
				return cfg, err
			}
		}
		return cfg, nil
	}
	return cfg, err
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		s, err := store.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.AppID, cfg.FirestoreCredsFile)
		if err != nil {
			return nil, fmt.Errorf("opening firestore: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.DatabaseURL, cfg.AppID)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return s, nil
	}
}
