package services

import (
	"errors"
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	safemath "github.com/luxfi/math"
)

// unstakeOutcome is everything an unstake writes, computed before any
// mutation happens.
type unstakeOutcome struct {
	TimeElapsedDays uint64
	PointsEarned    uint64
	Ledger          *model.UserLedgerDocument
}

func checkStakeEligibility(
	globalCfg *model.GlobalConfigDocument, ledger *model.UserLedgerDocument,
) (*model.UserLedgerDocument, *types.Error) {
	if ledger.AmountStaked >= globalCfg.MaxStake {
		return nil, types.NewDomainError(
			types.ErrMaxStakeReached,
			"%d of %d assets in custody", ledger.AmountStaked, globalCfg.MaxStake,
		)
	}

	amount, err := safemath.Add(ledger.AmountStaked, 1)
	if err != nil {
		return nil, arithmeticError(err, "amount staked")
	}

	return &model.UserLedgerDocument{
		Owner:        ledger.Owner,
		Points:       ledger.Points,
		AmountStaked: amount,
	}, nil
}

// pointsFor returns elapsed * pointsPerStake without wrapping.
func pointsFor(elapsed uint64, pointsPerStake uint32) (uint64, *types.Error) {
	points, err := safemath.Mul(elapsed, uint64(pointsPerStake))
	if err != nil {
		return 0, arithmeticError(err, "points earned")
	}
	return points, nil
}

func computeUnstake(
	globalCfg *model.GlobalConfigDocument,
	record *model.CustodyRecordDocument,
	ledger *model.UserLedgerDocument,
	now int64,
) (*unstakeOutcome, *types.Error) {
	elapsed := types.ElapsedDays(record.StakedAt, now)

	// strictly greater: a custody of exactly freeze_period days is not releasable
	if elapsed <= uint64(globalCfg.FreezePeriod) {
		return nil, types.NewDomainError(
			types.ErrFreezePeriodNotPassed,
			"%d days elapsed, freeze period is %d days", elapsed, globalCfg.FreezePeriod,
		)
	}

	pointsEarned, err := pointsFor(elapsed, globalCfg.PointsPerStake)
	if err != nil {
		return nil, err
	}

	points, mathErr := safemath.Add(ledger.Points, pointsEarned)
	if mathErr != nil {
		return nil, arithmeticError(mathErr, "ledger points")
	}
	if points > model.MaxLedgerPoints {
		return nil, types.NewDomainError(
			types.ErrArithmeticOverflow, "ledger points exceed %d", model.MaxLedgerPoints,
		)
	}

	amount, mathErr := safemath.Sub(ledger.AmountStaked, 1)
	if mathErr != nil {
		return nil, arithmeticError(mathErr, "amount staked")
	}

	return &unstakeOutcome{
		TimeElapsedDays: elapsed,
		PointsEarned:    pointsEarned,
		Ledger: &model.UserLedgerDocument{
			Owner:        ledger.Owner,
			Points:       points,
			AmountStaked: amount,
		},
	}, nil
}

func arithmeticError(err error, field string) *types.Error {
	if errors.Is(err, safemath.ErrUnderflow) {
		return types.NewDomainError(types.ErrUnderflow, "%s", field)
	}
	if errors.Is(err, safemath.ErrOverflow) {
		return types.NewDomainError(types.ErrArithmeticOverflow, "%s", field)
	}
	return types.NewError(http.StatusInternalServerError, types.InternalServiceError, err)
}
