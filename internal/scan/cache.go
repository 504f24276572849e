package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// CacheStore persists analysis results keyed by image hash.
type CacheStore interface {
	GetScanCache(imageHash string) (*Attributes, error)
	SetScanCache(imageHash string, attrs *Attributes) error
}

// CachedAnalyzer wraps an Analyzer with persistent caching so the same photo
// is never analyzed twice.
type CachedAnalyzer struct {
	inner Analyzer
	store CacheStore
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store CacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

func hashImage(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AnalyzeImage implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Attributes, error) {
	hash := hashImage(imageData)

	if c.store != nil {
		cached, err := c.store.GetScanCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check scan cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("scan cache hit")
			return cached, nil
		}
	}

	attrs, err := c.inner.AnalyzeImage(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SetScanCache(hash, attrs); err != nil {
			log.Warn().Err(err).Msg("failed to cache scan result")
		}
	}

	return attrs, nil
}
