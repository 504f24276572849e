package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/valuation"
)

const sweepInterval = 5 * time.Minute

// Draft is an in-progress scan pending confirmation. It lives only in memory
// and is discarded on commit or cancel; abandoned drafts expire. A draft
// never reaches the persisted item collection except through Commit.
type Draft struct {
	ID            string            `json:"id"`
	ImageURL      string            `json:"imageUrl"`
	Attributes    scan.Attributes   `json:"detectedAttributes"`
	PurchasePrice float64           `json:"purchasePrice"`
	Note          string            `json:"note,omitempty"`
	Result        *valuation.Result `json:"result,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`

	// seq guards against stale async results: only the most recently begun
	// attempt may apply its outcome, so a retry supersedes rather than races
	// a prior request.
	seq uint64
}

// Manager holds the transient drafts, keyed by draft id.
type Manager struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	ttl    time.Duration
}

// NewManager creates a draft manager. Drafts untouched for ttl are swept.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		drafts: make(map[string]*Draft),
		ttl:    ttl,
	}
}

// Create registers a new draft for an uploaded image.
func (m *Manager) Create(imageURL string) Draft {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &Draft{
		ID:        uuid.New().String(),
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	m.drafts[d.ID] = d

	return *d
}

// Get returns a copy of the draft, if it exists.
func (m *Manager) Get(id string) (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Begin starts a new analyze/valuation attempt for the draft and returns its
// sequence token. Any previously begun attempt is superseded.
func (m *Manager) Begin(id string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return 0, false
	}
	d.seq++
	return d.seq, true
}

// ApplyAttributes records detected attributes on the draft, but only if seq
// is still the current attempt. Returns false if the result was stale or the
// draft is gone (e.g. the user navigated away and the draft was cancelled).
func (m *Manager) ApplyAttributes(id string, seq uint64, attrs scan.Attributes) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok || d.seq != seq {
		return false
	}
	d.Attributes = attrs
	return true
}

// ApplyResult records a valuation on the draft, subject to the same staleness
// guard as ApplyAttributes.
func (m *Manager) ApplyResult(id string, seq uint64, purchasePrice float64, result valuation.Result) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok || d.seq != seq {
		return false
	}
	d.PurchasePrice = purchasePrice
	d.Result = &result
	return true
}

// Update edits the user-adjustable draft fields before save. Nil fields are
// left unchanged. Editing invalidates any previously computed result.
func (m *Manager) Update(id string, attrs *scan.Attributes, purchasePrice *float64, note *string) (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, false
	}
	if attrs != nil {
		d.Attributes = *attrs
		d.Result = nil
	}
	if purchasePrice != nil {
		d.PurchasePrice = *purchasePrice
		d.Result = nil
	}
	if note != nil {
		d.Note = *note
	}
	return *d, true
}

// Commit removes the draft and returns its final state for persisting.
func (m *Manager) Commit(id string) (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, false
	}
	delete(m.drafts, id)
	return *d, true
}

// Cancel discards the draft.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.drafts[id]
	delete(m.drafts, id)
	return ok
}

// Run sweeps expired drafts until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	log.Info().Dur("ttl", m.ttl).Msg("starting draft sweeper")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("draft sweeper stopped")
			return
		case <-ticker.C:
			if n := m.sweep(); n > 0 {
				log.Info().Int("swept", n).Msg("discarded expired drafts")
			}
		}
	}
}

func (m *Manager) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.ttl)
	swept := 0
	for id, d := range m.drafts {
		if d.CreatedAt.Before(cutoff) {
			delete(m.drafts, id)
			swept++
		}
	}
	return swept
}
