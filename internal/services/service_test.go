package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/clients/registryclient"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db/memdb"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/babylonlabs-io/custody-engine/testutil"
	"github.com/stretchr/testify/require"
)

const day = types.SecondsPerDay * time.Second

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.CustodyEvent
	err    error
}

func (p *recordingPublisher) PublishCustodyEvent(_ context.Context, event *types.CustodyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) Shutdown() {}

func (p *recordingPublisher) Events() []types.CustodyEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.CustodyEvent(nil), p.events...)
}

// failingRegistry fails selected calls and forwards the rest.
type failingRegistry struct {
	*registryclient.InMemoryRegistry

	mu          sync.Mutex
	failLock    bool
	failUnlock  bool
	failRevoke  bool
	failureCall int
}

var errRegistryDown = errors.New("registry unavailable")

func (r *failingRegistry) SetTransferLock(ctx context.Context, assetID string, locked bool, authority string) error {
	r.mu.Lock()
	fail := (locked && r.failLock) || (!locked && r.failUnlock)
	if fail {
		r.failureCall++
	}
	r.mu.Unlock()

	if fail {
		return errRegistryDown
	}
	return r.InMemoryRegistry.SetTransferLock(ctx, assetID, locked, authority)
}

func (r *failingRegistry) RevokeLockAuthority(ctx context.Context, assetID, authority string) error {
	r.mu.Lock()
	fail := r.failRevoke
	if fail {
		r.failureCall++
	}
	r.mu.Unlock()

	if fail {
		return errRegistryDown
	}
	return r.InMemoryRegistry.RevokeLockAuthority(ctx, assetID, authority)
}

// failingDb fails commits while commitErr is set.
type failingDb struct {
	*memdb.Database
	commitErr error
}

func (d *failingDb) CommitStake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	if d.commitErr != nil {
		return d.commitErr
	}
	return d.Database.CommitStake(ctx, record, prev, next)
}

func (d *failingDb) CommitUnstake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	if d.commitErr != nil {
		return d.commitErr
	}
	return d.Database.CommitUnstake(ctx, record, prev, next)
}

type testEnv struct {
	svc       *Service
	store     *failingDb
	registry  *failingRegistry
	publisher *recordingPublisher
	clock     *fakeClock
}

func newTestEnv(t *testing.T, maxStake, freezePeriod, pointsPerStake uint32) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Poller: config.PollerConfig{ReleasableCheckerPollingInterval: time.Second},
		Custody: config.CustodyConfig{
			ConfigID:       config.DefaultConfigID,
			MaxStake:       maxStake,
			FreezePeriod:   freezePeriod,
			PointsPerStake: pointsPerStake,
		},
	}

	env := &testEnv{
		store:     &failingDb{Database: memdb.New()},
		registry:  &failingRegistry{InMemoryRegistry: registryclient.NewInMemoryRegistry(false)},
		publisher: &recordingPublisher{},
		clock:     &fakeClock{now: time.Unix(1_700_000_000, 0)},
	}
	env.svc = NewService(cfg, env.store, env.registry, env.publisher, WithClock(env.clock.Now))

	_, err := env.svc.InitConfig(t.Context(), cfg.Custody)
	require.Nil(t, err)

	return env
}

// newUser initializes a ledger and registers assetCount assets to it.
func (e *testEnv) newUser(t *testing.T, assetCount int) (string, []string) {
	t.Helper()

	owner := testutil.RandomIdentity(t)
	_, err := e.svc.InitUser(t.Context(), owner)
	require.Nil(t, err)

	assets := make([]string, assetCount)
	for i := range assets {
		assets[i] = testutil.RandomIdentity(t)
		require.NoError(t, e.registry.RegisterAsset(assets[i], owner))
	}
	return owner, assets
}

func (e *testEnv) ledger(t *testing.T, owner string) *model.UserLedgerDocument {
	t.Helper()
	ledger, err := e.svc.GetUserLedger(t.Context(), owner)
	require.Nil(t, err)
	return ledger
}

func (e *testEnv) asset(t *testing.T, assetID string) *registryclient.AssetState {
	t.Helper()
	asset, err := e.registry.GetAsset(t.Context(), assetID)
	require.NoError(t, err)
	return asset
}

// requireConsistent checks that the ledger count matches the live records.
func (e *testEnv) requireConsistent(t *testing.T, owner string) {
	t.Helper()
	records, err := e.svc.ListCustodyRecords(t.Context(), owner)
	require.Nil(t, err)
	require.Len(t, records, int(e.ledger(t, owner).AmountStaked))
}
