package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"cardtrack/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// openDB connects to Postgres when DB_DSN is set, otherwise falls back to
// an embedded sqlite file under the data dir. The sqlite path keeps local
// development and the import tooling dependency-free.
func openDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := filepath.Join(dataDir(), "cardtrack.sqlite3")
	log.Printf("DB_DSN not set, using embedded sqlite at %s", path)
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func initDB() {
	var err error
	if err = os.MkdirAll(dataDir(), 0755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}
	db, err = openDB()
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := strings.ToLower(os.Getenv("DB_AUTO_MIGRATE")); v == "false" || v == "0" || v == "no" {
		shouldMigrate = false
	}
	if shouldMigrate {
		// Roles first so the users FK can be applied safely; migrate models
		// individually so a failure on one doesn't block others.
		for _, m := range []interface{}{
			&models.Role{}, &models.User{}, &models.Card{},
			&models.ChecklistEntry{}, &models.Upload{},
		} {
			if err := db.AutoMigrate(m); err != nil {
				log.Printf("migration warning (%T): %v", m, err)
			}
		}
	}
	seedDB()
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Seed the admin user once
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	ensureUploadBase()
}

// ensureUploadBase creates the base directory for stored card images.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(filepath.Join(base, "images"), 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for stored images (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return dataDir()
}

// dataDir returns the local data directory (configurable via DATA_DIR env)
func dataDir() string {
	if v := os.Getenv("DATA_DIR"); v != "" {
		return v
	}
	return "data"
}
