package services

import (
	"math"
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUnstake(t *testing.T) {
	const stakedAt = int64(1_000_000)
	globalCfg := &model.GlobalConfigDocument{ID: "config", MaxStake: 1, FreezePeriod: 5, PointsPerStake: 10}
	record := model.NewCustodyRecordDocument("asset", "owner", stakedAt)

	tests := []struct {
		name        string
		cfg         *model.GlobalConfigDocument
		ledger      model.UserLedgerDocument
		now         int64
		wantErr     error
		wantElapsed uint64
		wantPoints  uint64
	}{
		{
			name:    "clock before stake counts as zero days",
			cfg:     globalCfg,
			ledger:  model.UserLedgerDocument{Owner: "owner", AmountStaked: 1},
			now:     stakedAt - types.SecondsPerDay,
			wantErr: types.ErrFreezePeriodNotPassed,
		},
		{
			name:    "exactly freeze period",
			cfg:     globalCfg,
			ledger:  model.UserLedgerDocument{Owner: "owner", AmountStaked: 1},
			now:     stakedAt + 5*types.SecondsPerDay,
			wantErr: types.ErrFreezePeriodNotPassed,
		},
		{
			name:        "first releasable second",
			cfg:         globalCfg,
			ledger:      model.UserLedgerDocument{Owner: "owner", Points: 7, AmountStaked: 1},
			now:         stakedAt + 6*types.SecondsPerDay,
			wantElapsed: 6,
			wantPoints:  60,
		},
		{
			name:        "zero points per stake",
			cfg:         &model.GlobalConfigDocument{ID: "config", MaxStake: 1},
			ledger:      model.UserLedgerDocument{Owner: "owner", AmountStaked: 1},
			now:         stakedAt + types.SecondsPerDay,
			wantElapsed: 1,
			wantPoints:  0,
		},
		{
			name:    "points overflow",
			cfg:     globalCfg,
			ledger:  model.UserLedgerDocument{Owner: "owner", Points: math.MaxUint64 - 59, AmountStaked: 1},
			now:     stakedAt + 6*types.SecondsPerDay,
			wantErr: types.ErrArithmeticOverflow,
		},
		{
			name:    "points above the storable range",
			cfg:     globalCfg,
			ledger:  model.UserLedgerDocument{Owner: "owner", Points: math.MaxInt64 - 59, AmountStaked: 1},
			now:     stakedAt + 6*types.SecondsPerDay,
			wantErr: types.ErrArithmeticOverflow,
		},
		{
			name:        "points reach the storable maximum",
			cfg:         globalCfg,
			ledger:      model.UserLedgerDocument{Owner: "owner", Points: math.MaxInt64 - 60, AmountStaked: 1},
			now:         stakedAt + 6*types.SecondsPerDay,
			wantElapsed: 6,
			wantPoints:  60,
		},
		{
			name:    "amount underflow",
			cfg:     globalCfg,
			ledger:  model.UserLedgerDocument{Owner: "owner"},
			now:     stakedAt + 6*types.SecondsPerDay,
			wantErr: types.ErrUnderflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := tt.ledger
			outcome, err := computeUnstake(tt.cfg, record, &ledger, tt.now)
			if tt.wantErr != nil {
				require.NotNil(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				// the input ledger is never modified
				assert.Equal(t, tt.ledger, ledger)
				return
			}

			require.Nil(t, err)
			assert.Equal(t, tt.wantElapsed, outcome.TimeElapsedDays)
			assert.Equal(t, tt.wantPoints, outcome.PointsEarned)
			assert.Equal(t, tt.ledger.Points+tt.wantPoints, outcome.Ledger.Points)
			assert.Equal(t, tt.ledger.AmountStaked-1, outcome.Ledger.AmountStaked)
		})
	}
}

func TestPointsFor_Overflow(t *testing.T) {
	_, err := pointsFor(math.MaxUint64/2+1, 2)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrArithmeticOverflow)

	points, err := pointsFor(math.MaxUint64/math.MaxUint32, math.MaxUint32)
	require.Nil(t, err)
	assert.Equal(t, uint64(math.MaxUint64/math.MaxUint32)*math.MaxUint32, points)
}

func TestCheckStakeEligibility(t *testing.T) {
	globalCfg := &model.GlobalConfigDocument{ID: "config", MaxStake: 2}

	next, err := checkStakeEligibility(globalCfg, &model.UserLedgerDocument{Owner: "owner", Points: 3, AmountStaked: 1})
	require.Nil(t, err)
	assert.Equal(t, &model.UserLedgerDocument{Owner: "owner", Points: 3, AmountStaked: 2}, next)

	_, err = checkStakeEligibility(globalCfg, &model.UserLedgerDocument{Owner: "owner", AmountStaked: 2})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrMaxStakeReached)

	_, err = checkStakeEligibility(
		&model.GlobalConfigDocument{MaxStake: math.MaxUint32},
		&model.UserLedgerDocument{Owner: "owner", AmountStaked: math.MaxUint32},
	)
	assert.ErrorIs(t, err, types.ErrMaxStakeReached)
}
