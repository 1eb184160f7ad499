package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/livetally/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")

	if len(os.Args) > 1 {
		if err := applyNamed(db, basePath, os.Args[1]); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Migration file executed successfully.")
		return
	}

	if err := applyAll(db, basePath); err != nil {
		log.Fatal(err)
	}
	fmt.Println("All migrations executed successfully.")
}

func applyAll(db *sql.DB, basePath string) error {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(basePath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func applyNamed(db *sql.DB, basePath string, migrationName string) error {
	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s\.up\.sql`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	entries, err := os.ReadDir(basePath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(basePath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
		return nil
	}

	return fmt.Errorf("migration file not found")
}
