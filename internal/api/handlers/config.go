package handlers

import (
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/types"
)

type initConfigRequest struct {
	ConfigID       string `json:"config_id"`
	MaxStake       uint32 `json:"max_stake"`
	FreezePeriod   uint32 `json:"freeze_period"`
	PointsPerStake uint32 `json:"points_per_stake"`
}

// InitConfig @Router /v1/config [post]
func (h *Handler) InitConfig(r *http.Request) (*Result, *types.Error) {
	req, err := decodeBody[initConfigRequest](r)
	if err != nil {
		return nil, err
	}

	doc, err := h.service.InitConfig(r.Context(), config.CustodyConfig{
		ConfigID:       req.ConfigID,
		MaxStake:       req.MaxStake,
		FreezePeriod:   req.FreezePeriod,
		PointsPerStake: req.PointsPerStake,
	})
	if err != nil {
		return nil, err
	}

	result := NewResult(fromGlobalConfigDocument(doc))
	result.Status = http.StatusCreated
	return result, nil
}

// GetConfig @Router /v1/config [get]
func (h *Handler) GetConfig(r *http.Request) (*Result, *types.Error) {
	doc, err := h.service.GlobalConfig(r.Context())
	if err != nil {
		return nil, err
	}
	return NewResult(fromGlobalConfigDocument(doc)), nil
}

// HealthCheck @Router /healthcheck [get]
func (h *Handler) HealthCheck(r *http.Request) (*Result, *types.Error) {
	if err := h.service.Ping(r.Context()); err != nil {
		return nil, err
	}
	return NewResult("ok"), nil
}
