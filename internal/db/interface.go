package db

import (
	"context"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// SaveGlobalConfig inserts the config singleton. Returns DuplicateKeyError
	// if it already exists.
	SaveGlobalConfig(ctx context.Context, doc *model.GlobalConfigDocument) error
	GetGlobalConfig(ctx context.Context, id string) (*model.GlobalConfigDocument, error)

	SaveNewUserLedger(ctx context.Context, doc *model.UserLedgerDocument) error
	GetUserLedger(ctx context.Context, owner string) (*model.UserLedgerDocument, error)
	// DeleteUserLedger removes the ledger only while it has no custody
	// records. Returns NotFoundError otherwise.
	DeleteUserLedger(ctx context.Context, owner string) error

	GetCustodyRecord(ctx context.Context, assetID string) (*model.CustodyRecordDocument, error)
	GetCustodyRecordsByOwner(ctx context.Context, owner string) ([]*model.CustodyRecordDocument, error)
	// CountCustodyRecordsStakedBefore counts records with staked_at < stakedBefore.
	CountCustodyRecordsStakedBefore(ctx context.Context, stakedBefore int64) (int64, error)

	// CommitStake inserts record and moves the owner's ledger from prev to
	// next as one unit. Either both writes are visible or neither is.
	CommitStake(
		ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
	) error
	// CommitUnstake deletes record and moves the owner's ledger from prev to
	// next as one unit.
	CommitUnstake(
		ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
	) error
}
