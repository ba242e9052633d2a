package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cardtrack/process/scaninbox"
)

func main() {
	dirFlag := flag.String("dir", "inbox", "directory of card photos to process")
	userID := flag.Uint("user-id", 0, "user ID to assign cards to (default: admin user)")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	minConf := flag.Float64("min-conf", 0, "skip scans below this overall confidence")
	watch := flag.Bool("watch", false, "watch directory for new files after the initial pass")
	dryRun := flag.Bool("dry-run", false, "print pipeline output without writing to the database")
	verbose := flag.Bool("verbose", false, "verbose per-file logging")
	flag.Parse()

	gdb := mustOpenDB()
	p, err := scaninbox.New(gdb, scaninbox.Options{
		UserID:        *userID,
		Workers:       *workers,
		MinConfidence: *minConf,
		DryRun:        *dryRun,
		Verbose:       *verbose,
	})
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	if err := p.Run(*dirFlag); err != nil {
		log.Fatalf("run: %v", err)
	}
	if *watch {
		if err := p.Watch(*dirFlag); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func mustOpenDB() *gorm.DB {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		return gdb
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(dataDir, "cardtrack.sqlite3")), &gorm.Config{})
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	return gdb
}
