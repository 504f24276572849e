package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/valuation"
)

// GetSettings handles GET /api/v1/settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings")
		Error(w, InternalError("failed to load settings"))
		return
	}
	OK(w, settings)
}

// PutSettings handles PUT /api/v1/settings. The full settings object is
// replaced; invalid settings are rejected and the stored ones kept.
func (s *Server) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings valuation.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}

	if err := s.store.SaveSettings(settings); err != nil {
		Error(w, ValidationError(err.Error()))
		return
	}

	log.Info().Str("marketplace", string(settings.PrimaryMarketplace)).Msg("settings updated")
	OK(w, settings)
}

type verdictRequest struct {
	PurchasePrice float64             `json:"purchasePrice"`
	Attributes    scan.Attributes     `json:"detectedAttributes"`
	Settings      *valuation.Settings `json:"settings"`
}

// Verdict handles POST /api/v1/verdict: a stateless valuation for callers
// that already know the item attributes. Settings in the request override the
// stored ones for this call only.
func (s *Server) Verdict(w http.ResponseWriter, r *http.Request) {
	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}
	if !validPrice(req.PurchasePrice) {
		Error(w, ValidationError("purchase price must be a positive number"))
		return
	}

	var settings valuation.Settings
	if req.Settings != nil {
		if err := req.Settings.Validate(); err != nil {
			Error(w, ValidationError(err.Error()))
			return
		}
		settings = *req.Settings
	} else {
		var err error
		settings, err = s.store.GetSettings()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load settings, using defaults")
			settings = valuation.DefaultSettings()
		}
	}

	found, err := s.comps.Search(r.Context(), req.Attributes)
	if err != nil {
		log.Warn().Err(err).Msg("comp fetch failed")
		Error(w, UpstreamError("comp search failed, please retry"))
		return
	}

	result, err := valuation.Compute(req.PurchasePrice, settings, found)
	if err != nil {
		Error(w, ValidationError(err.Error()))
		return
	}

	OK(w, result)
}
