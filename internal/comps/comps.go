package comps

import (
	"context"
	"errors"

	"github.com/velli/flipscout/internal/scan"
)

// ErrUnavailable marks failures of the external comp-search service.
// Callers can retry these.
var ErrUnavailable = errors.New("comp search unavailable")

// Similarity classifies how closely a comp matches the scanned item.
type Similarity string

const (
	VerySimilar Similarity = "Very similar"
	Similar     Similarity = "Similar"
	LooseMatch  Similarity = "Loose match"
)

// Comp is one comparable sold listing, used as read-only pricing evidence
// behind a verdict. Never mutated after it is returned.
type Comp struct {
	ID         string     `json:"id"`
	Thumbnail  string     `json:"thumbnail"`
	Title      string     `json:"title"`
	SoldPrice  float64    `json:"soldPrice"`
	SoldDate   string     `json:"soldDate"`
	Similarity Similarity `json:"similarity"`
}

// Provider finds comparable sold listings for an item. An empty result is
// valid input for valuation, not an error.
type Provider interface {
	Search(ctx context.Context, attrs scan.Attributes) ([]Comp, error)
}
