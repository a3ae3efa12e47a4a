package memdb

import (
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitStake(t *testing.T) {
	ctx := t.Context()
	store := New()

	owner := testutil.RandomIdentity(t)
	require.NoError(t, store.SaveNewUserLedger(ctx, model.NewUserLedgerDocument(owner)))

	prev := model.NewUserLedgerDocument(owner)
	next := &model.UserLedgerDocument{Owner: owner, AmountStaked: 1}
	record := model.NewCustodyRecordDocument("asset-a", owner, 100)

	require.NoError(t, store.CommitStake(ctx, record, prev, next))

	t.Run("duplicate asset", func(t *testing.T) {
		again := &model.UserLedgerDocument{Owner: owner, AmountStaked: 2}
		err := store.CommitStake(ctx, record, next, again)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
	t.Run("stale ledger leaves no record", func(t *testing.T) {
		other := model.NewCustodyRecordDocument("asset-b", owner, 50)
		err := store.CommitStake(ctx, other, prev, next)
		assert.True(t, db.IsConflictError(err))

		_, err = store.GetCustodyRecord(ctx, other.AssetID)
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("ledger cannot be closed with open records", func(t *testing.T) {
		err := store.DeleteUserLedger(ctx, owner)
		assert.True(t, db.IsNotFoundError(err))
	})

	ledger, err := store.GetUserLedger(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, next, ledger)
}

func TestGetCustodyRecordsByOwner(t *testing.T) {
	ctx := t.Context()
	store := New()

	alice, bob := "alice", "bob"
	for _, owner := range []string{alice, bob} {
		require.NoError(t, store.SaveNewUserLedger(ctx, model.NewUserLedgerDocument(owner)))
	}

	stakes := []*model.CustodyRecordDocument{
		model.NewCustodyRecordDocument("a-2", alice, 300),
		model.NewCustodyRecordDocument("a-1", alice, 100),
		model.NewCustodyRecordDocument("b-1", bob, 200),
	}
	counts := map[string]uint32{}
	for _, r := range stakes {
		prev := &model.UserLedgerDocument{Owner: r.Owner, AmountStaked: counts[r.Owner]}
		counts[r.Owner]++
		next := &model.UserLedgerDocument{Owner: r.Owner, AmountStaked: counts[r.Owner]}
		require.NoError(t, store.CommitStake(ctx, r, prev, next))
	}

	records, err := store.GetCustodyRecordsByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a-1", records[0].AssetID)
	assert.Equal(t, "a-2", records[1].AssetID)

	records, err = store.GetCustodyRecordsByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, records)

	count, err := store.CountCustodyRecordsStakedBefore(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCommitUnstake(t *testing.T) {
	ctx := t.Context()
	store := New()

	owner := "alice"
	require.NoError(t, store.SaveNewUserLedger(ctx, model.NewUserLedgerDocument(owner)))

	record := model.NewCustodyRecordDocument("asset-a", owner, 100)
	staked := &model.UserLedgerDocument{Owner: owner, AmountStaked: 1}
	require.NoError(t, store.CommitStake(ctx, record, model.NewUserLedgerDocument(owner), staked))

	final := &model.UserLedgerDocument{Owner: owner, Points: 40}

	t.Run("record of another owner", func(t *testing.T) {
		forged := model.NewCustodyRecordDocument("asset-a", "mallory", 100)
		err := store.CommitUnstake(ctx, forged, staked, final)
		assert.True(t, db.IsNotFoundError(err))
	})

	require.NoError(t, store.CommitUnstake(ctx, record, staked, final))

	_, err := store.GetCustodyRecord(ctx, record.AssetID)
	assert.True(t, db.IsNotFoundError(err))

	count, err := store.CountCustodyRecordsStakedBefore(ctx, 1000)
	require.NoError(t, err)
	assert.Zero(t, count)

	ledger, err := store.GetUserLedger(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, final, ledger)

	require.NoError(t, store.DeleteUserLedger(ctx, owner))
}
