package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/velli/flipscout/internal/valuation"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore persists the item collection, user settings and the scan cache
// under a single application-scoped database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	itemsQuery := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		image_url TEXT NOT NULL,
		attributes TEXT NOT NULL,
		purchase_price REAL NOT NULL,
		note TEXT,
		result TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		sold_price REAL,
		sold_date TEXT
	);
	`
	if _, err := s.db.Exec(itemsQuery); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}

	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		marketplace TEXT NOT NULL,
		fee_percent REAL NOT NULL,
		avg_shipping_cost REAL NOT NULL,
		target_roi REAL NOT NULL,
		minimum_profit REAL NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(settingsQuery); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	scanCacheQuery := `
	CREATE TABLE IF NOT EXISTS scan_cache (
		image_hash TEXT PRIMARY KEY,
		brand TEXT,
		category TEXT,
		size TEXT,
		condition TEXT,
		color TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(scanCacheQuery); err != nil {
		return fmt.Errorf("failed to create scan_cache table: %w", err)
	}

	// Schema version bookkeeping for future migrations of the item records
	versionQuery := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(versionQuery); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO schema_version (version)
		SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_version)
	`, schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSettings loads the persisted decision policy. Missing or malformed rows
// fall back to the defaults so valuation keeps working.
func (s *SQLiteStore) GetSettings() (valuation.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settings valuation.Settings
	err := s.db.QueryRow(`
		SELECT marketplace, fee_percent, avg_shipping_cost, target_roi, minimum_profit
		FROM settings WHERE id = 1
	`).Scan(
		&settings.PrimaryMarketplace,
		&settings.FeePercent,
		&settings.AvgShippingCost,
		&settings.TargetRoi,
		&settings.MinimumProfit,
	)

	if err == sql.ErrNoRows {
		return valuation.DefaultSettings(), nil
	}
	if err != nil {
		return valuation.DefaultSettings(), fmt.Errorf("failed to query settings: %w", err)
	}

	return settings.Sanitize(), nil
}

// SaveSettings stores the decision policy, replacing any existing row.
func (s *SQLiteStore) SaveSettings(settings valuation.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO settings (id, marketplace, fee_percent, avg_shipping_cost, target_roi, minimum_profit, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			marketplace = excluded.marketplace,
			fee_percent = excluded.fee_percent,
			avg_shipping_cost = excluded.avg_shipping_cost,
			target_roi = excluded.target_roi,
			minimum_profit = excluded.minimum_profit,
			updated_at = excluded.updated_at
	`, string(settings.PrimaryMarketplace), settings.FeePercent, settings.AvgShippingCost,
		settings.TargetRoi, settings.MinimumProfit, time.Now())

	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
