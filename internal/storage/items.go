package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/valuation"
)

// ErrNotFound is returned when an item id is not in the store.
var ErrNotFound = errors.New("item not found")

// ErrInvalidTransition is returned for status changes the state machine
// doesn't permit, including any transition out of Sold.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of a saved item.
type Status string

const (
	StatusConsidering Status = "Considering"
	StatusPurchased   Status = "Purchased"
	StatusSold        Status = "Sold"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusConsidering, StatusPurchased, StatusSold:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a permitted status change.
// Sold is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusConsidering:
		return to == StatusPurchased || to == StatusSold
	case StatusPurchased:
		return to == StatusSold
	}
	return false
}

// Item is a saved scan with its valuation snapshot. The result is a copy
// taken at valuation time; later settings changes never alter it. SoldPrice
// and SoldDate are set only on the transition to Sold.
type Item struct {
	ID            string           `json:"id"`
	ImageURL      string           `json:"imageUrl"`
	Attributes    scan.Attributes  `json:"detectedAttributes"`
	PurchasePrice float64          `json:"purchasePrice"`
	Note          *string          `json:"note,omitempty"`
	Result        valuation.Result `json:"result"`
	Status        Status           `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	SoldPrice     *float64         `json:"soldPrice,omitempty"`
	SoldDate      *string          `json:"soldDate,omitempty"`
}

// ItemPatch carries partial updates for an edit-and-resave flow. Nil fields
// are left unchanged. ID and CreatedAt can never change.
type ItemPatch struct {
	Attributes    *scan.Attributes
	PurchasePrice *float64
	Note          *string
	Result        *valuation.Result
	Status        *Status
}

// AddItem persists a new item. The item must carry an id, a positive
// purchase price and an initial status of Considering or Purchased.
func (s *SQLiteStore) AddItem(item *Item) error {
	if item.ID == "" {
		return fmt.Errorf("item id is required")
	}
	if math.IsNaN(item.PurchasePrice) || item.PurchasePrice <= 0 {
		return fmt.Errorf("purchase price must be positive, got %v", item.PurchasePrice)
	}
	if item.Status != StatusConsidering && item.Status != StatusPurchased {
		return fmt.Errorf("initial status must be Considering or Purchased, got %q", item.Status)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	attrsJSON, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	resultJSON, err := json.Marshal(item.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO items (id, image_url, attributes, purchase_price, note, result, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.ImageURL, string(attrsJSON), item.PurchasePrice, item.Note,
		string(resultJSON), string(item.Status), item.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by id. Returns nil, nil if it doesn't exist.
func (s *SQLiteStore) GetItem(id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getItemLocked(id)
}

func (s *SQLiteStore) getItemLocked(id string) (*Item, error) {
	row := s.db.QueryRow(`
		SELECT id, image_url, attributes, purchase_price, note, result, status, created_at, sold_price, sold_date
		FROM items WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	return item, nil
}

// ListItems returns all items, most recent first.
func (s *SQLiteStore) ListItems() ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, image_url, attributes, purchase_price, note, result, status, created_at, sold_price, sold_date
		FROM items ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// UpdateItem merges patch into the matching item. ID and CreatedAt are
// preserved; a status change must be a permitted transition (but not to
// Sold, which goes through MarkSold since it needs a sale price).
func (s *SQLiteStore) UpdateItem(id string, patch ItemPatch) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItemLocked(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	if patch.Attributes != nil {
		item.Attributes = *patch.Attributes
	}
	if patch.PurchasePrice != nil {
		if math.IsNaN(*patch.PurchasePrice) || *patch.PurchasePrice <= 0 {
			return nil, fmt.Errorf("purchase price must be positive, got %v", *patch.PurchasePrice)
		}
		item.PurchasePrice = *patch.PurchasePrice
	}
	if patch.Note != nil {
		item.Note = patch.Note
	}
	if patch.Result != nil {
		item.Result = *patch.Result
	}
	if patch.Status != nil && *patch.Status != item.Status {
		if *patch.Status == StatusSold {
			return nil, fmt.Errorf("use MarkSold to transition to Sold")
		}
		if !CanTransition(item.Status, *patch.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, *patch.Status)
		}
		item.Status = *patch.Status
	}

	if err := s.writeItemLocked(item); err != nil {
		return nil, err
	}

	return item, nil
}

// MarkSold transitions an item to Sold, recording the sale. The sold price
// must be positive and finite; an empty soldDate defaults to today. Sold is
// terminal, so marking an already sold item is rejected.
func (s *SQLiteStore) MarkSold(id string, soldPrice float64, soldDate string) (*Item, error) {
	if math.IsNaN(soldPrice) || math.IsInf(soldPrice, 0) || soldPrice <= 0 {
		return nil, fmt.Errorf("sold price must be finite and positive, got %v", soldPrice)
	}
	if soldDate == "" {
		soldDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", soldDate); err != nil {
		return nil, fmt.Errorf("invalid sold date %q: %w", soldDate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItemLocked(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if !CanTransition(item.Status, StatusSold) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, StatusSold)
	}

	item.Status = StatusSold
	item.SoldPrice = &soldPrice
	item.SoldDate = &soldDate

	if err := s.writeItemLocked(item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *SQLiteStore) writeItemLocked(item *Item) error {
	attrsJSON, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	resultJSON, err := json.Marshal(item.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE items
		SET image_url = ?, attributes = ?, purchase_price = ?, note = ?, result = ?, status = ?, sold_price = ?, sold_date = ?
		WHERE id = ?
	`, item.ImageURL, string(attrsJSON), item.PurchasePrice, item.Note,
		string(resultJSON), string(item.Status), item.SoldPrice, item.SoldDate, item.ID)

	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var attrsJSON, resultJSON, status string
	var note, soldDate sql.NullString
	var soldPrice sql.NullFloat64

	err := row.Scan(&item.ID, &item.ImageURL, &attrsJSON, &item.PurchasePrice,
		&note, &resultJSON, &status, &item.CreatedAt, &soldPrice, &soldDate)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(attrsJSON), &item.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes for item %s: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &item.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result for item %s: %w", item.ID, err)
	}

	item.Status = Status(status)
	if note.Valid {
		item.Note = &note.String
	}
	if soldPrice.Valid {
		item.SoldPrice = &soldPrice.Float64
	}
	if soldDate.Valid {
		item.SoldDate = &soldDate.String
	}

	return &item, nil
}
