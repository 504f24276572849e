package storage

import (
	"database/sql"
	"fmt"

	"github.com/velli/flipscout/internal/scan"
)

// GetScanCache retrieves cached detected attributes by image hash.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetScanCache(imageHash string) (*scan.Attributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var attrs scan.Attributes
	var brand, category, size, condition, color sql.NullString
	err := s.db.QueryRow(
		"SELECT brand, category, size, condition, color FROM scan_cache WHERE image_hash = ?",
		imageHash,
	).Scan(&brand, &category, &size, &condition, &color)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan cache: %w", err)
	}

	attrs.Brand = brand.String
	attrs.Category = category.String
	attrs.Size = size.String
	attrs.Condition = condition.String
	attrs.Color = color.String

	return &attrs, nil
}

// SetScanCache stores detected attributes in the cache.
func (s *SQLiteStore) SetScanCache(imageHash string, attrs *scan.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO scan_cache (image_hash, brand, category, size, condition, color)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(image_hash) DO UPDATE SET
			brand = excluded.brand,
			category = excluded.category,
			size = excluded.size,
			condition = excluded.condition,
			color = excluded.color,
			created_at = CURRENT_TIMESTAMP
	`, imageHash, attrs.Brand, attrs.Category, attrs.Size, attrs.Condition, attrs.Color)

	if err != nil {
		return fmt.Errorf("failed to cache scan result: %w", err)
	}
	return nil
}
