package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    Attributes
		wantErr bool
	}{
		"plain json": {
			input: `{"brand": "Nike", "category": "Sneakers", "size": "42", "condition": "Good", "color": "White"}`,
			want:  Attributes{Brand: "Nike", Category: "Sneakers", Size: "42", Condition: "Good", Color: "White"},
		},
		"markdown fenced": {
			input: "```json\n{\"brand\": \"Levi's\", \"category\": \"Jeans\", \"size\": \"W32\", \"condition\": \"Fair\", \"color\": \"Blue\"}\n```",
			want:  Attributes{Brand: "Levi's", Category: "Jeans", Size: "W32", Condition: "Fair", Color: "Blue"},
		},
		"surrounding prose": {
			input: "Here is the result: {\"brand\": \"\", \"category\": \"Hat\", \"size\": \"\", \"condition\": \"New\", \"color\": \"Red\"} hope it helps",
			want:  Attributes{Category: "Hat", Condition: "New", Color: "Red"},
		},
		"no json object": {
			input:   "sorry, I cannot identify this item",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseAttributes(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestMockAnalyzerDeterministic(t *testing.T) {
	m := NewMockAnalyzer()
	img := []byte("fake image bytes")

	first, err := m.AnalyzeImage(context.Background(), img, "image/jpeg")
	require.NoError(t, err)
	second, err := m.AnalyzeImage(context.Background(), img, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Brand)
	assert.NotEmpty(t, first.Category)
	assert.NotEmpty(t, first.Condition)
}

type fakeCacheStore struct {
	entries map[string]*Attributes
}

func (f *fakeCacheStore) GetScanCache(hash string) (*Attributes, error) {
	return f.entries[hash], nil
}

func (f *fakeCacheStore) SetScanCache(hash string, attrs *Attributes) error {
	f.entries[hash] = attrs
	return nil
}

type countingAnalyzer struct {
	calls int
	attrs Attributes
}

func (c *countingAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Attributes, error) {
	c.calls++
	a := c.attrs
	return &a, nil
}

func TestCachedAnalyzer(t *testing.T) {
	inner := &countingAnalyzer{attrs: Attributes{Brand: "Carhartt", Category: "Jacket", Condition: "Good"}}
	store := &fakeCacheStore{entries: make(map[string]*Attributes)}
	cached := NewCachedAnalyzer(inner, store)

	img := []byte("jacket photo")

	first, err := cached.AnalyzeImage(context.Background(), img, "image/jpeg")
	require.NoError(t, err)
	second, err := cached.AnalyzeImage(context.Background(), img, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	// A different image misses the cache
	_, err = cached.AnalyzeImage(context.Background(), []byte("other photo"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
