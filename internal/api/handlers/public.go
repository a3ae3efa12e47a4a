package handlers

import (
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/services"
	"github.com/babylonlabs-io/custody-engine/internal/types"
)

type GlobalConfigPublic struct {
	ConfigID       string `json:"config_id"`
	MaxStake       uint32 `json:"max_stake"`
	FreezePeriod   uint32 `json:"freeze_period"`
	PointsPerStake uint32 `json:"points_per_stake"`
}

func fromGlobalConfigDocument(doc *model.GlobalConfigDocument) *GlobalConfigPublic {
	return &GlobalConfigPublic{
		ConfigID:       doc.ID,
		MaxStake:       doc.MaxStake,
		FreezePeriod:   doc.FreezePeriod,
		PointsPerStake: doc.PointsPerStake,
	}
}

type UserLedgerPublic struct {
	Owner        string `json:"owner"`
	Points       uint64 `json:"points"`
	AmountStaked uint32 `json:"amount_staked"`
}

func fromUserLedgerDocument(doc *model.UserLedgerDocument) *UserLedgerPublic {
	return &UserLedgerPublic{
		Owner:        doc.Owner,
		Points:       doc.Points,
		AmountStaked: doc.AmountStaked,
	}
}

type CustodyRecordPublic struct {
	AssetID  string `json:"asset_id"`
	Owner    string `json:"owner"`
	StakedAt int64  `json:"staked_at"`
}

func fromCustodyRecordDocument(doc *model.CustodyRecordDocument) *CustodyRecordPublic {
	return &CustodyRecordPublic{
		AssetID:  doc.AssetID,
		Owner:    doc.Owner,
		StakedAt: doc.StakedAt,
	}
}

type CustodyStatusPublic struct {
	CustodyRecordPublic
	State           types.CustodyState `json:"state"`
	TimeElapsedDays uint64             `json:"time_elapsed_days"`
	Releasable      bool               `json:"releasable"`
	ReleasableAt    int64              `json:"releasable_at"`
	PendingPoints   uint64             `json:"pending_points"`
}

func fromEligibility(e *services.Eligibility) *CustodyStatusPublic {
	return &CustodyStatusPublic{
		CustodyRecordPublic: *fromCustodyRecordDocument(e.Record),
		State:               e.State,
		TimeElapsedDays:     e.TimeElapsedDays,
		Releasable:          e.Releasable,
		ReleasableAt:        e.ReleasableAt,
		PendingPoints:       e.PendingPoints,
	}
}

type UnstakeResultPublic struct {
	CustodyRecordPublic
	TimeElapsedDays uint64            `json:"time_elapsed_days"`
	PointsEarned    uint64            `json:"points_earned"`
	Ledger          *UserLedgerPublic `json:"ledger"`
}

func fromUnstakeResult(result *services.UnstakeResult) *UnstakeResultPublic {
	return &UnstakeResultPublic{
		CustodyRecordPublic: *fromCustodyRecordDocument(result.Record),
		TimeElapsedDays:     result.TimeElapsedDays,
		PointsEarned:        result.PointsEarned,
		Ledger:              fromUserLedgerDocument(result.Ledger),
	}
}
