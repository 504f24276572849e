package api

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/storage"
	"github.com/velli/flipscout/internal/valuation"
)

const maxImageBytes = 10 << 20 // 10 MiB

// CreateScan handles POST /api/v1/scans. It stores the uploaded photo and
// opens a draft; analysis is a separate step so a failed analysis can be
// retried without re-uploading.
func (s *Server) CreateScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		Error(w, BadRequest("expected multipart form with an image field"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		Error(w, BadRequest("missing image field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		Error(w, BadRequest("failed to read image"))
		return
	}

	name, err := s.images.Save(data)
	if err != nil {
		Error(w, ValidationError(err.Error()))
		return
	}

	draft := s.drafts.Create("/images/" + name)
	log.Info().Str("draftID", draft.ID).Str("image", name).Msg("scan draft created")

	Created(w, draft)
}

// AnalyzeScan handles POST /api/v1/scans/{id}/analyze. Calling it again
// re-issues the analysis and supersedes any in-flight attempt.
func (s *Server) AnalyzeScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	draft, ok := s.drafts.Get(id)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}

	seq, ok := s.drafts.Begin(id)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}

	data, err := s.images.Read(path.Base(draft.ImageURL))
	if err != nil {
		Error(w, InternalError("stored image unavailable"))
		return
	}

	attrs, err := s.analyzer.AnalyzeImage(r.Context(), data, "image/jpeg")
	if err != nil {
		log.Warn().Err(err).Str("draftID", id).Msg("scan analysis failed")
		Error(w, UpstreamError("image analysis failed, please retry"))
		return
	}

	if !s.drafts.ApplyAttributes(id, seq, *attrs) {
		// A newer attempt superseded this one, or the draft was cancelled
		Error(w, Conflict("analysis superseded"))
		return
	}

	updated, _ := s.drafts.Get(id)
	OK(w, updated)
}

type updateDraftRequest struct {
	Attributes    *scan.Attributes `json:"detectedAttributes"`
	PurchasePrice *float64         `json:"purchasePrice"`
	Note          *string          `json:"note"`
}

// UpdateDraft handles PATCH /api/v1/drafts/{id}: the user corrects detected
// attributes or enters price/note before asking for a verdict.
func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}
	if req.PurchasePrice != nil && !validPrice(*req.PurchasePrice) {
		Error(w, ValidationError("purchase price must be a positive number"))
		return
	}

	draft, ok := s.drafts.Update(id, req.Attributes, req.PurchasePrice, req.Note)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}

	OK(w, draft)
}

type draftVerdictRequest struct {
	PurchasePrice float64 `json:"purchasePrice"`
}

// DraftVerdict handles POST /api/v1/drafts/{id}/verdict: fetches comps for
// the draft's attributes and computes a valuation against the stored
// settings.
func (s *Server) DraftVerdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req draftVerdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}
	if !validPrice(req.PurchasePrice) {
		Error(w, ValidationError("purchase price must be a positive number"))
		return
	}

	draft, ok := s.drafts.Get(id)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}

	seq, ok := s.drafts.Begin(id)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}

	found, err := s.comps.Search(r.Context(), draft.Attributes)
	if err != nil {
		log.Warn().Err(err).Str("draftID", id).Msg("comp fetch failed")
		Error(w, UpstreamError("comp search failed, please retry"))
		return
	}

	settings, err := s.store.GetSettings()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load settings, using defaults")
		settings = valuation.DefaultSettings()
	}

	result, err := valuation.Compute(req.PurchasePrice, settings, found)
	if err != nil {
		Error(w, ValidationError(err.Error()))
		return
	}

	if !s.drafts.ApplyResult(id, seq, req.PurchasePrice, result) {
		Error(w, Conflict("valuation superseded"))
		return
	}

	OK(w, result)
}

type saveDraftRequest struct {
	Status storage.Status `json:"status"`
}

// SaveDraft handles POST /api/v1/drafts/{id}/save: persists the reviewed
// draft as an item with the user-chosen initial status and discards the
// draft.
func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}
	if req.Status != storage.StatusConsidering && req.Status != storage.StatusPurchased {
		Error(w, ValidationError("status must be Considering or Purchased"))
		return
	}

	draft, ok := s.drafts.Get(id)
	if !ok {
		Error(w, NotFound("draft not found"))
		return
	}
	if draft.Result == nil || !validPrice(draft.PurchasePrice) {
		Error(w, ValidationError("draft needs a purchase price and a computed verdict before saving"))
		return
	}

	item := &storage.Item{
		ID:            draft.ID,
		ImageURL:      draft.ImageURL,
		Attributes:    draft.Attributes,
		PurchasePrice: draft.PurchasePrice,
		Result:        *draft.Result,
		Status:        req.Status,
		CreatedAt:     time.Now(),
	}
	if draft.Note != "" {
		note := draft.Note
		item.Note = &note
	}

	if err := s.store.AddItem(item); err != nil {
		log.Error().Err(err).Str("draftID", id).Msg("failed to persist item")
		Error(w, InternalError("failed to save item"))
		return
	}

	s.drafts.Cancel(id)
	log.Info().Str("itemID", item.ID).Str("status", string(item.Status)).Msg("item saved")

	Created(w, item)
}

// CancelDraft handles DELETE /api/v1/drafts/{id}.
func (s *Server) CancelDraft(w http.ResponseWriter, r *http.Request) {
	if !s.drafts.Cancel(chi.URLParam(r, "id")) {
		Error(w, NotFound("draft not found"))
		return
	}
	OK(w, map[string]bool{"cancelled": true})
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
