package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vehicle-service/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// New wraps an already opened connection pool.
func New(db *sql.DB) *Database {
	return &Database{db: db}
}

// NewDatabase opens the MySQL connection pool and waits for the server to answer.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection with exponential backoff retry
	deadline := time.Now().Add(cfg.DBPingMaxWait)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("database ping timeout after %v: %w", cfg.DBPingMaxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	log.Infof("Database connection established to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping reports whether the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// CreateIssuesTable creates the issues table if it doesn't exist
func (d *Database) CreateIssuesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS issues (
		id CHAR(36) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		vehicle_model VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT,
		formatted_issue TEXT,
		category VARCHAR(64) NOT NULL DEFAULT 'General',
		severity ENUM('low', 'medium', 'high') NOT NULL DEFAULT 'medium',
		suggested_actions JSON,
		possible_causes JSON,
		urgency_level VARCHAR(255) DEFAULT '',
		estimated_cost VARCHAR(255) DEFAULT '',
		source ENUM('text', 'voice', 'image') NOT NULL DEFAULT 'text',
		status ENUM('open', 'resolved') NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP NULL DEFAULT NULL,
		PRIMARY KEY (id),
		INDEX idx_issues_user_id (user_id),
		INDEX idx_issues_vehicle_model (vehicle_model),
		INDEX idx_issues_status (status),
		INDEX idx_issues_created_at (created_at)
	)`

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create issues table: %w", err)
	}

	log.Info("issues table created/verified successfully")
	return nil
}
