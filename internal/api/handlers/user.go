package handlers

import (
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/go-chi/chi/v5"
)

// InitUser @Router /v1/users/{owner} [post]
func (h *Handler) InitUser(r *http.Request) (*Result, *types.Error) {
	owner, err := callerOwner(r, chi.URLParam(r, "owner"))
	if err != nil {
		return nil, err
	}

	ledger, err := h.service.InitUser(r.Context(), owner)
	if err != nil {
		return nil, err
	}

	result := NewResult(fromUserLedgerDocument(ledger))
	result.Status = http.StatusCreated
	return result, nil
}

// GetUser @Router /v1/users/{owner} [get]
func (h *Handler) GetUser(r *http.Request) (*Result, *types.Error) {
	ledger, err := h.service.GetUserLedger(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		return nil, err
	}
	return NewResult(fromUserLedgerDocument(ledger)), nil
}

// CloseUser @Router /v1/users/{owner} [delete]
func (h *Handler) CloseUser(r *http.Request) (*Result, *types.Error) {
	owner, err := callerOwner(r, chi.URLParam(r, "owner"))
	if err != nil {
		return nil, err
	}

	if err := h.service.CloseUser(r.Context(), owner); err != nil {
		return nil, err
	}
	return nil, nil
}

// ListUserCustody @Router /v1/users/{owner}/custody [get]
func (h *Handler) ListUserCustody(r *http.Request) (*Result, *types.Error) {
	records, err := h.service.ListCustodyRecords(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		return nil, err
	}

	public := make([]*CustodyRecordPublic, 0, len(records))
	for _, record := range records {
		public = append(public, fromCustodyRecordDocument(record))
	}
	return NewResult(public), nil
}
