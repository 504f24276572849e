package comps

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/velli/flipscout/internal/scan"
)

// MockProvider generates plausible comps without calling any external
// service. The result is a deterministic function of the request attributes.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var mockSimilarities = []Similarity{VerySimilar, VerySimilar, Similar, Similar, LooseMatch, Similar}

// Search implements the Provider interface.
func (m *MockProvider) Search(ctx context.Context, attrs scan.Attributes) ([]Comp, error) {
	h := fnv.New64a()
	h.Write([]byte(attrs.Brand + "\x00" + attrs.Category + "\x00" + attrs.Size + "\x00" + attrs.Condition + "\x00" + attrs.Color))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	count := 3 + rng.Intn(3)
	comps := make([]Comp, 0, count)
	for i := 0; i < count; i++ {
		price := float64(int((rng.Float64()*50+15)*100)) / 100
		daysAgo := rng.Intn(90)
		soldDate := time.Now().AddDate(0, 0, -daysAgo).Format("Jan 2")

		comps = append(comps, Comp{
			ID:         fmt.Sprintf("comp-%d", i+1),
			Thumbnail:  fmt.Sprintf("https://via.placeholder.com/80x80?text=Item+%d", i+1),
			Title:      fmt.Sprintf("%s %s - Sold Listing %d", attrs.Brand, attrs.Category, i+1),
			SoldPrice:  price,
			SoldDate:   soldDate,
			Similarity: mockSimilarities[i%len(mockSimilarities)],
		})
	}

	return comps, nil
}
