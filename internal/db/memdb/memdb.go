// Package memdb is an in-process implementation of db.DbInterface. Every
// commit runs under a single mutex, so multi-document writes are atomic.
package memdb

import (
	"context"
	"sync"

	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/google/btree"
)

const degree = 32

type ownerKey struct {
	owner   string
	assetID string
}

type stakedAtKey struct {
	stakedAt int64
	assetID  string
}

type Database struct {
	mu sync.RWMutex

	configs map[string]model.GlobalConfigDocument
	ledgers map[string]model.UserLedgerDocument

	records   *btree.BTreeG[model.CustodyRecordDocument]
	byOwner   *btree.BTreeG[ownerKey]
	byStaking *btree.BTreeG[stakedAtKey]
}

var _ db.DbInterface = (*Database)(nil)

func New() *Database {
	return &Database{
		configs: make(map[string]model.GlobalConfigDocument),
		ledgers: make(map[string]model.UserLedgerDocument),
		records: btree.NewG(degree, func(a, b model.CustodyRecordDocument) bool {
			return a.AssetID < b.AssetID
		}),
		byOwner: btree.NewG(degree, func(a, b ownerKey) bool {
			if a.owner != b.owner {
				return a.owner < b.owner
			}
			return a.assetID < b.assetID
		}),
		byStaking: btree.NewG(degree, func(a, b stakedAtKey) bool {
			if a.stakedAt != b.stakedAt {
				return a.stakedAt < b.stakedAt
			}
			return a.assetID < b.assetID
		}),
	}
}

func (d *Database) Ping(_ context.Context) error {
	return nil
}

func (d *Database) SaveGlobalConfig(_ context.Context, doc *model.GlobalConfigDocument) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.configs[doc.ID]; ok {
		return &db.DuplicateKeyError{Key: doc.ID, Message: "global config already exists"}
	}
	d.configs[doc.ID] = *doc
	return nil
}

func (d *Database) GetGlobalConfig(_ context.Context, id string) (*model.GlobalConfigDocument, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.configs[id]
	if !ok {
		return nil, &db.NotFoundError{Key: id, Message: "global config not found"}
	}
	return &doc, nil
}

func (d *Database) SaveNewUserLedger(_ context.Context, doc *model.UserLedgerDocument) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ledgers[doc.Owner]; ok {
		return &db.DuplicateKeyError{Key: doc.Owner, Message: "user ledger already exists"}
	}
	d.ledgers[doc.Owner] = *doc
	return nil
}

func (d *Database) GetUserLedger(_ context.Context, owner string) (*model.UserLedgerDocument, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.ledgers[owner]
	if !ok {
		return nil, &db.NotFoundError{Key: owner, Message: "user ledger not found"}
	}
	return &doc, nil
}

func (d *Database) DeleteUserLedger(_ context.Context, owner string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.ledgers[owner]
	if !ok || doc.AmountStaked != 0 {
		return &db.NotFoundError{Key: owner, Message: "user ledger not found or still has custody records"}
	}
	delete(d.ledgers, owner)
	return nil
}

func (d *Database) GetCustodyRecord(_ context.Context, assetID string) (*model.CustodyRecordDocument, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.records.Get(model.CustodyRecordDocument{AssetID: assetID})
	if !ok {
		return nil, &db.NotFoundError{Key: assetID, Message: "custody record not found"}
	}
	return &doc, nil
}

func (d *Database) GetCustodyRecordsByOwner(_ context.Context, owner string) ([]*model.CustodyRecordDocument, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var records []*model.CustodyRecordDocument
	d.byOwner.AscendGreaterOrEqual(ownerKey{owner: owner}, func(k ownerKey) bool {
		if k.owner != owner {
			return false
		}
		doc, _ := d.records.Get(model.CustodyRecordDocument{AssetID: k.assetID})
		records = append(records, &doc)
		return true
	})

	// same order as the mongo store: oldest stake first
	sortByStakedAt(records)
	return records, nil
}

func (d *Database) CountCustodyRecordsStakedBefore(_ context.Context, stakedBefore int64) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int64
	d.byStaking.AscendLessThan(stakedAtKey{stakedAt: stakedBefore}, func(stakedAtKey) bool {
		count++
		return true
	})
	return count, nil
}

func (d *Database) CommitStake(
	_ context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.records.Has(*record) {
		return &db.DuplicateKeyError{Key: record.AssetID, Message: "custody record already exists"}
	}
	if err := d.checkLedger(prev); err != nil {
		return err
	}

	d.records.ReplaceOrInsert(*record)
	d.byOwner.ReplaceOrInsert(ownerKey{owner: record.Owner, assetID: record.AssetID})
	d.byStaking.ReplaceOrInsert(stakedAtKey{stakedAt: record.StakedAt, assetID: record.AssetID})
	d.ledgers[next.Owner] = *next
	return nil
}

func (d *Database) CommitUnstake(
	_ context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.records.Get(*record)
	if !ok || stored != *record {
		return &db.NotFoundError{Key: record.AssetID, Message: "custody record not found when unstaking"}
	}
	if err := d.checkLedger(prev); err != nil {
		return err
	}

	d.records.Delete(stored)
	d.byOwner.Delete(ownerKey{owner: stored.Owner, assetID: stored.AssetID})
	d.byStaking.Delete(stakedAtKey{stakedAt: stored.StakedAt, assetID: stored.AssetID})
	d.ledgers[next.Owner] = *next
	return nil
}

func (d *Database) checkLedger(prev *model.UserLedgerDocument) error {
	current, ok := d.ledgers[prev.Owner]
	if !ok || current != *prev {
		return &db.ConflictError{Key: prev.Owner, Message: "user ledger changed concurrently or does not exist"}
	}
	return nil
}
