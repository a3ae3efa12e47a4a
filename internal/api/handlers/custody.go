package handlers

import (
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/go-chi/chi/v5"
)

// custodyRequest names the asset. Owner is optional and must match the
// signing caller when set.
type custodyRequest struct {
	Owner   string `json:"owner"`
	AssetID string `json:"asset_id"`
}

// Stake @Router /v1/stake [post]
func (h *Handler) Stake(r *http.Request) (*Result, *types.Error) {
	req, err := decodeBody[custodyRequest](r)
	if err != nil {
		return nil, err
	}

	owner, err := callerOwner(r, req.Owner)
	if err != nil {
		return nil, err
	}

	record, err := h.service.Stake(r.Context(), owner, req.AssetID)
	if err != nil {
		return nil, err
	}

	result := NewResult(fromCustodyRecordDocument(record))
	result.Status = http.StatusCreated
	return result, nil
}

// Unstake @Router /v1/unstake [post]
func (h *Handler) Unstake(r *http.Request) (*Result, *types.Error) {
	req, err := decodeBody[custodyRequest](r)
	if err != nil {
		return nil, err
	}

	caller, err := callerOwner(r, req.Owner)
	if err != nil {
		return nil, err
	}

	unstaked, err := h.service.Unstake(r.Context(), caller, req.AssetID)
	if err != nil {
		return nil, err
	}
	return NewResult(fromUnstakeResult(unstaked)), nil
}

// GetCustody @Router /v1/custody/{asset_id} [get]
func (h *Handler) GetCustody(r *http.Request) (*Result, *types.Error) {
	eligibility, err := h.service.Eligibility(r.Context(), chi.URLParam(r, "asset_id"))
	if err != nil {
		return nil, err
	}
	return NewResult(fromEligibility(eligibility)), nil
}
