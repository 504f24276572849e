package comps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/internal/cache"
	"github.com/velli/flipscout/internal/scan"
)

// CachedProvider wraps a Provider with a short-lived cache so repeated
// valuations of the same attributes (e.g. an edit-and-resave flow) don't
// hammer the comp-search API.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider creates a cached provider.
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

func cacheKey(attrs scan.Attributes) string {
	h := sha256.New()
	for _, s := range []string{attrs.Brand, attrs.Category, attrs.Size, attrs.Condition, attrs.Color} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return "comps:" + hex.EncodeToString(h.Sum(nil))
}

// Search implements the Provider interface with caching.
func (p *CachedProvider) Search(ctx context.Context, attrs scan.Attributes) ([]Comp, error) {
	key := cacheKey(attrs)

	if data, err := p.cache.Get(ctx, key); err == nil {
		var cached []Comp
		if uerr := json.Unmarshal(data, &cached); uerr == nil {
			log.Debug().Str("key", key[:22]).Msg("comps cache hit")
			return cached, nil
		} else {
			log.Warn().Err(uerr).Msg("failed to decode cached comps")
		}
	} else if err != cache.ErrCacheMiss {
		log.Warn().Err(err).Msg("failed to check comps cache")
	}

	result, err := p.inner.Search(ctx, attrs)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to cache comps")
		}
	}

	return result, nil
}
