package services

import (
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibility(t *testing.T) {
	env := newTestEnv(t, 2, 5, 10)
	owner, assets := env.newUser(t, 1)

	record, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	env.clock.Advance(5 * day)
	eligibility, err := env.svc.Eligibility(t.Context(), assets[0])
	require.Nil(t, err)
	assert.Equal(t, types.StateCustody, eligibility.State)
	assert.EqualValues(t, 5, eligibility.TimeElapsedDays)
	assert.False(t, eligibility.Releasable)
	assert.Zero(t, eligibility.PendingPoints)
	assert.Equal(t, record.StakedAt+6*types.SecondsPerDay, eligibility.ReleasableAt)

	env.clock.Advance(day)
	eligibility, err = env.svc.Eligibility(t.Context(), assets[0])
	require.Nil(t, err)
	assert.True(t, eligibility.Releasable)
	assert.EqualValues(t, 60, eligibility.PendingPoints)
	assert.Equal(t, env.clock.Now().Unix(), eligibility.ReleasableAt)

	// the prediction matches what unstake credits
	result, err := env.svc.Unstake(t.Context(), owner, assets[0])
	require.Nil(t, err)
	assert.Equal(t, eligibility.PendingPoints, result.PointsEarned)

	_, err = env.svc.Eligibility(t.Context(), assets[0])
	assert.ErrorIs(t, err, types.ErrCustodyRecordNotFound)
}

func TestListCustodyRecords(t *testing.T) {
	env := newTestEnv(t, 3, 5, 10)
	owner, assets := env.newUser(t, 3)
	other, otherAssets := env.newUser(t, 1)

	for _, assetID := range assets {
		_, err := env.svc.Stake(t.Context(), owner, assetID)
		require.Nil(t, err)
		env.clock.Advance(day)
	}
	_, err := env.svc.Stake(t.Context(), other, otherAssets[0])
	require.Nil(t, err)

	records, err := env.svc.ListCustodyRecords(t.Context(), owner)
	require.Nil(t, err)
	require.Len(t, records, 3)
	for i, record := range records {
		// oldest first
		assert.Equal(t, assets[i], record.AssetID)
		assert.Equal(t, owner, record.Owner)
	}

	records, err = env.svc.ListCustodyRecords(t.Context(), "nobody")
	require.Nil(t, err)
	assert.Empty(t, records)
}

func TestCountReleasable(t *testing.T) {
	env := newTestEnv(t, 10, 2, 10)
	owner, assets := env.newUser(t, 4)

	// staked 4, 3, 2 and 1 days before the check
	for _, assetID := range assets {
		_, err := env.svc.Stake(t.Context(), owner, assetID)
		require.Nil(t, err)
		env.clock.Advance(day)
	}

	count, err := env.svc.countReleasable(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// the cutoff agrees with Eligibility for every record
	var releasable int64
	for _, assetID := range assets {
		eligibility, err := env.svc.Eligibility(t.Context(), assetID)
		require.Nil(t, err)
		if eligibility.Releasable {
			releasable++
		}
	}
	assert.Equal(t, releasable, count)

	require.NoError(t, env.svc.checkReleasable(t.Context()))
}

func TestCountReleasable_NoConfig(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)
	env.svc.globalCfg.Store(nil)
	env.svc.cfg.Custody.ConfigID = "missing"

	count, err := env.svc.countReleasable(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}
