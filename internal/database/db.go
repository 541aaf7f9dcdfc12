package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database and initializes the schema.
// Driver is either "sqlite3" (file DSN built from Database.Path) or
// "postgres" (Database.DSN passed through to lib/pq).
func Open(cfg *config.Config) (*sql.DB, error) {
	driver := cfg.Database.Driver

	var dsn string
	switch driver {
	case "sqlite3":
		dataDir := filepath.Dir(cfg.Database.Path)
		if dataDir != "." {
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
		// Foreign keys are off by default in SQLite; the schema relies on
		// ON DELETE CASCADE.
		dsn = cfg.Database.Path + "?_foreign_keys=on"
		if cfg.Database.WALMode {
			dsn += "&_journal=WAL"
		}
	case "postgres":
		dsn = cfg.Database.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	var db *sql.DB
	var lastErr error
	for i := 0; i < cfg.Database.MaxRetries; i++ {
		var err error
		db, err = sql.Open(driver, dsn)
		if err != nil {
			lastErr = fmt.Errorf("failed to open database: %v", err)
			log.Printf("Attempt %d/%d failed: %v", i+1, cfg.Database.MaxRetries, lastErr)
			time.Sleep(time.Duration(cfg.Database.RetryDelay) * time.Second)
			continue
		}

		if err := db.Ping(); err != nil {
			lastErr = fmt.Errorf("failed to ping database: %v", err)
			log.Printf("Attempt %d/%d failed: %v", i+1, cfg.Database.MaxRetries, lastErr)
			time.Sleep(time.Duration(cfg.Database.RetryDelay) * time.Second)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %v", cfg.Database.MaxRetries, lastErr)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1) // SQLite only supports one writer
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := InitTables(db, driver); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %v", err)
	}

	log.Printf("Database initialized successfully (driver %s)", driver)
	return db, nil
}

// InitTables creates the necessary tables if they don't exist
func InitTables(db *sql.DB, driver string) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %s,
				username VARCHAR(20) UNIQUE NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				password VARCHAR(128) NOT NULL
			)`, serial),
		`
			CREATE TABLE IF NOT EXISTS activations (
				id VARCHAR(50) PRIMARY KEY,
				user_id INTEGER NOT NULL,
				expire_at INTEGER NOT NULL,
				activated BOOLEAN NOT NULL,
				created_at INTEGER NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS stores (
				id %s,
				name VARCHAR(80) UNIQUE NOT NULL
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS items (
				id %s,
				name VARCHAR(80) UNIQUE NOT NULL,
				price REAL NOT NULL,
				store_id INTEGER NOT NULL,
				FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE CASCADE
			)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_activations_user_id ON activations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activations_expire_at ON activations(expire_at)`,
		`CREATE INDEX IF NOT EXISTS idx_items_store_id ON items(store_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run schema statement: %v", err)
		}
	}

	return nil
}
