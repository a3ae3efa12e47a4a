package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/clients/registryclient"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStake(t *testing.T) {
	env := newTestEnv(t, 3, 5, 10)
	owner, assets := env.newUser(t, 1)

	record, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	assert.Equal(t, owner, record.Owner)
	assert.Equal(t, assets[0], record.AssetID)
	assert.Equal(t, env.clock.Now().Unix(), record.StakedAt)

	ledger := env.ledger(t, owner)
	assert.EqualValues(t, 1, ledger.AmountStaked)
	assert.Zero(t, ledger.Points)

	asset := env.asset(t, assets[0])
	assert.True(t, asset.Locked)
	assert.Equal(t, DeriveCustodyDelegate(configID(env), owner), asset.LockAuthority)

	events := env.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventAssetStaked, events[0].EventType)
	assert.Equal(t, record.StakedAt, events[0].StakedAt)

	env.requireConsistent(t, owner)
}

func TestStake_MaxStakeReached(t *testing.T) {
	env := newTestEnv(t, 1, 5, 10)
	owner, assets := env.newUser(t, 2)

	_, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	_, err = env.svc.Stake(t.Context(), owner, assets[1])
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrMaxStakeReached)

	assert.EqualValues(t, 1, env.ledger(t, owner).AmountStaked)
	second := env.asset(t, assets[1])
	assert.False(t, second.Locked)
	assert.Empty(t, second.LockAuthority)

	_, lookupErr := env.svc.GetCustodyRecord(t.Context(), assets[1])
	assert.ErrorIs(t, lookupErr, types.ErrCustodyRecordNotFound)
}

func TestStake_Preconditions(t *testing.T) {
	t.Run("user not initialized", func(t *testing.T) {
		env := newTestEnv(t, 1, 5, 10)
		require.NoError(t, env.registry.RegisterAsset("asset", "stranger"))

		_, err := env.svc.Stake(t.Context(), "stranger", "asset")
		assert.ErrorIs(t, err, types.ErrUserNotInitialized)
		assert.False(t, env.asset(t, "asset").Locked)
	})
	t.Run("config not initialized", func(t *testing.T) {
		env := newTestEnv(t, 1, 5, 10)
		env.svc.globalCfg.Store(nil)
		env.svc.cfg.Custody.ConfigID = "missing"

		_, err := env.svc.Stake(t.Context(), "owner", "asset")
		assert.ErrorIs(t, err, types.ErrConfigNotInitialized)
	})
	t.Run("empty input", func(t *testing.T) {
		env := newTestEnv(t, 1, 5, 10)

		_, err := env.svc.Stake(t.Context(), "", "asset")
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)
	})
	t.Run("caller does not own the asset", func(t *testing.T) {
		env := newTestEnv(t, 1, 5, 10)
		owner, _ := env.newUser(t, 0)
		require.NoError(t, env.registry.RegisterAsset("foreign", "someone-else"))

		_, err := env.svc.Stake(t.Context(), owner, "foreign")
		assert.ErrorIs(t, err, types.ErrRegistry)
		assert.ErrorIs(t, err, registryclient.ErrNotAssetOwner)
		assert.Zero(t, env.ledger(t, owner).AmountStaked)
	})
}

func TestStake_SameAssetTwice(t *testing.T) {
	env := newTestEnv(t, 5, 5, 10)
	owner, assets := env.newUser(t, 1)

	first, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)

	env.clock.Advance(day)
	_, err = env.svc.Stake(t.Context(), owner, assets[0])
	require.NotNil(t, err)

	// the original custody is untouched
	record, err := env.svc.GetCustodyRecord(t.Context(), assets[0])
	require.Nil(t, err)
	assert.Equal(t, first, record)
	assert.EqualValues(t, 1, env.ledger(t, owner).AmountStaked)

	asset := env.asset(t, assets[0])
	assert.True(t, asset.Locked)
	assert.Equal(t, DeriveCustodyDelegate(configID(env), owner), asset.LockAuthority)
}

// permissiveRegistry accepts every call, so a duplicate stake reaches the store.
type permissiveRegistry struct {
	registryclient.RegistryInterface
	calls int
}

func (r *permissiveRegistry) DelegateLockAuthority(_ context.Context, _, _, _ string) error {
	r.calls++
	return nil
}

func (r *permissiveRegistry) SetTransferLock(_ context.Context, _ string, _ bool, _ string) error {
	r.calls++
	return nil
}

func (r *permissiveRegistry) RevokeLockAuthority(_ context.Context, _, _ string) error {
	r.calls++
	return nil
}

func TestStake_DuplicateRecordKeepsLock(t *testing.T) {
	env := newTestEnv(t, 5, 5, 10)
	registry := &permissiveRegistry{}
	env.svc.registry = registry
	owner, _ := env.newUser(t, 0)

	_, err := env.svc.Stake(t.Context(), owner, "asset")
	require.Nil(t, err)
	require.Equal(t, 2, registry.calls)

	_, err = env.svc.Stake(t.Context(), owner, "asset")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrAssetAlreadyStaked)
	assert.Equal(t, 409, err.StatusCode)
	// delegate + lock, no unlock or revoke
	assert.Equal(t, 4, registry.calls)
	assert.EqualValues(t, 1, env.ledger(t, owner).AmountStaked)
}

func TestStake_RegistryLockFailureRevokesDelegation(t *testing.T) {
	env := newTestEnv(t, 5, 5, 10)
	owner, assets := env.newUser(t, 1)
	env.registry.failLock = true

	_, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.NotNil(t, err)
	assert.ErrorIs(t, err, types.ErrRegistry)
	assert.Equal(t, 502, err.StatusCode)

	asset := env.asset(t, assets[0])
	assert.False(t, asset.Locked)
	assert.Empty(t, asset.LockAuthority)
	assert.Zero(t, env.ledger(t, owner).AmountStaked)
	assert.Empty(t, env.publisher.Events())
}

func TestStake_CommitFailureReleasesAsset(t *testing.T) {
	env := newTestEnv(t, 5, 5, 10)
	owner, assets := env.newUser(t, 1)
	env.store.commitErr = errors.New("write conflict")

	_, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.NotNil(t, err)
	assert.Equal(t, types.InternalServiceError, err.ErrorCode)

	asset := env.asset(t, assets[0])
	assert.False(t, asset.Locked)
	assert.Empty(t, asset.LockAuthority)
	assert.Zero(t, env.ledger(t, owner).AmountStaked)
	assert.Empty(t, env.publisher.Events())
}

func TestStake_PublishFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t, 5, 5, 10)
	owner, assets := env.newUser(t, 1)
	env.publisher.err = errors.New("broker down")

	_, err := env.svc.Stake(t.Context(), owner, assets[0])
	require.Nil(t, err)
	assert.EqualValues(t, 1, env.ledger(t, owner).AmountStaked)
}

func TestStake_ConcurrentRespectsMaxStake(t *testing.T) {
	const maxStake, attempts = 5, 20

	env := newTestEnv(t, maxStake, 5, 10)
	owner, assets := env.newUser(t, attempts)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for _, assetID := range assets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Stake(t.Context(), owner, assetID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, types.ErrMaxStakeReached):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxStake, succeeded)
	assert.Equal(t, attempts-maxStake, rejected)
	assert.EqualValues(t, maxStake, env.ledger(t, owner).AmountStaked)
	env.requireConsistent(t, owner)
}

func TestStake_ConcurrentUsers(t *testing.T) {
	env := newTestEnv(t, 3, 5, 10)

	owners := make([]string, 8)
	assets := make(map[string][]string, len(owners))
	for i := range owners {
		owner, list := env.newUser(t, 3)
		owners[i] = owner
		assets[owner] = list
	}
	require.Len(t, assets, len(owners))

	var wg sync.WaitGroup
	for _, owner := range owners {
		for _, assetID := range assets[owner] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.svc.Stake(t.Context(), owner, assetID)
				assert.Nil(t, err, fmt.Sprintf("%s/%s", owner, assetID))
			}()
		}
	}
	wg.Wait()

	for _, owner := range owners {
		assert.EqualValues(t, 3, env.ledger(t, owner).AmountStaked)
		env.requireConsistent(t, owner)
	}
}

func configID(env *testEnv) string {
	return env.svc.globalCfg.Load().ID
}
