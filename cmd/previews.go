package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// previewsSetup loads minimal configuration needed for preview store operations.
func previewsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := backendFromViper("preview-backend")
	connStr := viper.GetString("preview-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the preview store only (no run tracking for preview commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize preview store: %w", err)
	}

	cfg.PreviewBackend = backend
	cfg.PreviewDBConnect = connStr

	return nil
}

// previewsSetupWrapper wraps previewsSetup to provide PreRunE for previews commands.
func previewsSetupWrapper(_ *cobra.Command, _ []string) error {
	return previewsSetup()
}

// previewsCmd focused on persisted previews.
var previewsCmd = &cobra.Command{
	Use:   "previews",
	Short: "Manage persisted recording previews",
	Long: `Manage the previews persisted by 'ecgscope preview' and 'ecgscope serve'.

The latest preview series of each recording is stored so it can be rendered
without reading the device stream again.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show preview store statistics and connection info
  clear  - Remove all persisted previews`,
}

// previewsClearCmd clears the preview store.
var previewsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted previews",
	Long: `Delete all persisted previews from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the preview table

Examples:
  # Clear SQLite previews (default)
  ecgscope previews clear

  # Clear MySQL previews (set connection string via env variable)
  ECGSCOPE_PREVIEW_BACKEND=mysql ECGSCOPE_PREVIEW_DB_CONNECT="..." ecgscope previews clear`,
	PreRunE: previewsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		path := sqlitePath(cfg.PreviewDBConnect, contract.GetPreviewDBFilePath())
		if err := iocache.ClearPreviews(cfg.PreviewBackend, path, cfg.PreviewDBConnect); err != nil {
			contract.LogFatal("Failed to clear previews", err)
		}
		fmt.Println("Previews cleared successfully.")
	},
}

// previewsStatusCmd shows preview store status.
var previewsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display preview store statistics and connection details",
	Long: `Show detailed information about the preview store.

Displays:
- Backend type and connection status
- Number of persisted previews
- Last and oldest update timestamps
- Database table size

Examples:
  # Check preview store status
  ecgscope previews status`,
	PreRunE: previewsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetPreviewStore()
		if store == nil {
			contract.LogFatal("Failed to get preview status", fmt.Errorf("preview store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get preview status", err)
		}
		iocache.PrintPreviewStatus(os.Stdout, status)
	},
}
