package cli

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/herdfence/simulator/internal/storage"
	gormstorage "github.com/herdfence/simulator/internal/storage/gorm"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database  string
	Out       string
	SessionID uint
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export alerts from a recorded session database",
		Long: `Export fence crossing alerts from a SQLite session database as CSV.

With --session-id 0 (the default) alerts from every session in the
database are exported.

Example:
  herdfence export --db session.db --out alerts.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportAlerts(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to session SQLite database (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "CSV output path (default stdout)")
	cmd.Flags().UintVar(&opts.SessionID, "session-id", 0, "restrict export to one session")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func exportAlerts(opts *ExportOptions) error {
	if _, err := os.Stat(opts.Database); err != nil {
		return fmt.Errorf("session database: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(opts.Database), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening session database: %w", err)
	}

	alerts, err := gormstorage.AlertsForSession(db, opts.SessionID)
	if err != nil {
		return err
	}

	out := os.Stdout
	if opts.Out != "" {
		out, err = os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer out.Close()
	}

	return storage.WriteAlertsCSV(out, alerts)
}
