package services

import (
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db/memdb"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitUser(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)

	ledger, err := env.svc.InitUser(t.Context(), "alice")
	require.Nil(t, err)
	assert.Equal(t, "alice", ledger.Owner)
	assert.Zero(t, ledger.Points)
	assert.Zero(t, ledger.AmountStaked)

	_, err = env.svc.InitUser(t.Context(), "alice")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrUserAlreadyInitialized)

	_, err = env.svc.InitUser(t.Context(), "")
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)
}

func TestGetUserLedger_NotInitialized(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)

	_, err := env.svc.GetUserLedger(t.Context(), "nobody")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrUserNotInitialized)
	assert.Equal(t, 404, err.StatusCode)
}

func TestCloseUser(t *testing.T) {
	env := newTestEnv(t, 1, 0, 10)
	owner, assets := env.newUser(t, 1)

	_, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	err = env.svc.CloseUser(t.Context(), owner)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrUserHasActiveStakes)

	env.clock.Advance(day)
	_, err = env.svc.Unstake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	require.Nil(t, env.svc.CloseUser(t.Context(), owner))

	_, err = env.svc.GetUserLedger(t.Context(), owner)
	assert.ErrorIs(t, err, types.ErrUserNotInitialized)

	err = env.svc.CloseUser(t.Context(), owner)
	assert.ErrorIs(t, err, types.ErrUserNotInitialized)

	// re-initializing starts from zero points
	ledger, err := env.svc.InitUser(t.Context(), owner)
	require.Nil(t, err)
	assert.Zero(t, ledger.Points)
}

func TestInitConfig(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)

	_, err := env.svc.InitConfig(t.Context(), config.CustodyConfig{MaxStake: 3})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrConfigAlreadyInitialized)
	stored, err := env.svc.GlobalConfig(t.Context())
	require.Nil(t, err)
	assert.EqualValues(t, 1, stored.MaxStake)

	_, err = env.svc.InitConfig(t.Context(), config.CustodyConfig{ConfigID: "other", MaxStake: 3})
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)
}

func TestInitConfig_Validation(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)
	env.svc.globalCfg.Store(nil)
	env.store.Database = memdb.New()

	_, err := env.svc.InitConfig(t.Context(), config.CustodyConfig{MaxStake: 0})
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)

	_, err = env.svc.GlobalConfig(t.Context())
	assert.ErrorIs(t, err, types.ErrConfigNotInitialized)
	assert.Nil(t, env.svc.LoadGlobalConfig(t.Context()))
}
