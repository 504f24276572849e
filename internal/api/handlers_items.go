package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/storage"
	"github.com/velli/flipscout/internal/valuation"
)

// ListItems handles GET /api/v1/items, most recent first.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems()
	if err != nil {
		log.Error().Err(err).Msg("failed to list items")
		Error(w, InternalError("failed to list items"))
		return
	}
	if items == nil {
		items = []storage.Item{}
	}
	OK(w, items)
}

type itemDetail struct {
	storage.Item
	Performance *valuation.Performance `json:"performance,omitempty"`
}

// GetItem handles GET /api/v1/items/{id}. For sold items the response also
// carries the realized performance against the valuation snapshot.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetItem(chi.URLParam(r, "id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load item")
		Error(w, InternalError("failed to load item"))
		return
	}
	if item == nil {
		Error(w, NotFound("item not found"))
		return
	}

	detail := itemDetail{Item: *item}
	if item.Status == storage.StatusSold && item.SoldPrice != nil {
		perf, perfErr := valuation.ComparePerformance(item.PurchasePrice, *item.SoldPrice, item.Result)
		if perfErr != nil {
			log.Warn().Err(perfErr).Str("itemID", item.ID).Msg("performance comparison failed")
		} else {
			detail.Performance = &perf
		}
	}

	OK(w, detail)
}

type updateItemRequest struct {
	Attributes    *scan.Attributes `json:"detectedAttributes"`
	PurchasePrice *float64         `json:"purchasePrice"`
	Note          *string          `json:"note"`
	Status        *storage.Status  `json:"status"`
}

// UpdateItem handles PATCH /api/v1/items/{id}. Changing attributes or the
// purchase price re-runs the valuation against current comps and settings;
// note and status edits leave the stored snapshot alone.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}
	if req.PurchasePrice != nil && !validPrice(*req.PurchasePrice) {
		Error(w, ValidationError("purchase price must be a positive number"))
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		Error(w, ValidationError("unknown status"))
		return
	}

	patch := storage.ItemPatch{
		Attributes:    req.Attributes,
		PurchasePrice: req.PurchasePrice,
		Note:          req.Note,
		Status:        req.Status,
	}

	if req.Attributes != nil || req.PurchasePrice != nil {
		item, err := s.store.GetItem(id)
		if err != nil {
			log.Error().Err(err).Msg("failed to load item")
			Error(w, InternalError("failed to load item"))
			return
		}
		if item == nil {
			Error(w, NotFound("item not found"))
			return
		}

		attrs := item.Attributes
		if req.Attributes != nil {
			attrs = *req.Attributes
		}
		price := item.PurchasePrice
		if req.PurchasePrice != nil {
			price = *req.PurchasePrice
		}

		found, err := s.comps.Search(r.Context(), attrs)
		if err != nil {
			log.Warn().Err(err).Str("itemID", id).Msg("comp fetch failed")
			Error(w, UpstreamError("comp search failed, please retry"))
			return
		}

		settings, err := s.store.GetSettings()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load settings, using defaults")
			settings = valuation.DefaultSettings()
		}

		result, err := valuation.Compute(price, settings, found)
		if err != nil {
			Error(w, ValidationError(err.Error()))
			return
		}
		patch.Result = &result
	}

	item, err := s.store.UpdateItem(id, patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			Error(w, NotFound("item not found"))
		case errors.Is(err, storage.ErrInvalidTransition):
			Error(w, Conflict(err.Error()))
		default:
			Error(w, ValidationError(err.Error()))
		}
		return
	}

	OK(w, item)
}

type markSoldRequest struct {
	SoldPrice float64 `json:"soldPrice"`
	SoldDate  string  `json:"soldDate"`
}

// MarkSold handles POST /api/v1/items/{id}/sold. Responds with the updated
// item plus its realized performance.
func (s *Server) MarkSold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req markSoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, BadRequest("invalid JSON body"))
		return
	}

	item, err := s.store.MarkSold(id, req.SoldPrice, req.SoldDate)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			Error(w, NotFound("item not found"))
		case errors.Is(err, storage.ErrInvalidTransition):
			Error(w, Conflict(err.Error()))
		default:
			Error(w, ValidationError(err.Error()))
		}
		return
	}

	log.Info().Str("itemID", id).Float64("soldPrice", req.SoldPrice).Msg("item marked sold")

	detail := itemDetail{Item: *item}
	if perf, perfErr := valuation.ComparePerformance(item.PurchasePrice, *item.SoldPrice, item.Result); perfErr == nil {
		detail.Performance = &perf
	}

	OK(w, detail)
}
