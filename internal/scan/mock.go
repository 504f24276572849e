package scan

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

var (
	mockBrands     = []string{"J.Crew", "Nike", "Adidas", "Patagonia", "The North Face", "Levi's", "Carhartt", "Ralph Lauren"}
	mockCategories = []string{"Men's Shirt", "Women's Dress", "Jeans", "Jacket", "Sneakers", "Hat", "Backpack"}
	mockSizes      = []string{"XS", "S", "M", "L", "XL", "XXL"}
	mockConditions = []string{"New", "Like New", "Excellent", "Good", "Fair"}
	mockColors     = []string{"Blue", "Black", "White", "Gray", "Navy", "Red", "Green", "Brown", "Blue Plaid", "Black Striped"}
)

// MockAnalyzer returns plausible attributes without calling any external
// service. The result is a deterministic function of the image bytes, so the
// same photo always yields the same attributes.
type MockAnalyzer struct{}

// NewMockAnalyzer creates a mock analyzer.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// AnalyzeImage implements the Analyzer interface.
func (m *MockAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Attributes, error) {
	sum := sha256.Sum256(imageData)
	seed := binary.LittleEndian.Uint64(sum[:8])

	pick := func(options []string, shift uint) string {
		return options[(seed>>shift)%uint64(len(options))]
	}

	return &Attributes{
		Brand:     pick(mockBrands, 0),
		Category:  pick(mockCategories, 8),
		Size:      pick(mockSizes, 16),
		Condition: pick(mockConditions, 24),
		Color:     pick(mockColors, 32),
	}, nil
}
