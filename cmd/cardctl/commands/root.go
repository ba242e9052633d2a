// Package commands implements the cardctl maintenance CLI: checklist
// import, user creation, and a debug scan that prints pipeline output for
// a single photo.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cardtrack/models"
)

var dataDir string

func Execute() error {
	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "CardTrack maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "local data directory (sqlite fallback lives here)")
	root.AddCommand(importChecklistCmd(), createUserCmd(), scanCmd())
	return root.Execute()
}

// openDB mirrors the server's connection rule: Postgres when DB_DSN is
// set, embedded sqlite otherwise.
func openDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "cardtrack.sqlite3")
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// openDBMigrated opens the database and ensures the schema exists, for
// commands that may run before the server ever has.
func openDBMigrated() (*gorm.DB, error) {
	gdb, err := openDB()
	if err != nil {
		return nil, err
	}
	for _, m := range []interface{}{
		&models.Role{}, &models.User{}, &models.Card{},
		&models.ChecklistEntry{}, &models.Upload{},
	} {
		if err := gdb.AutoMigrate(m); err != nil {
			return nil, fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return gdb, nil
}
