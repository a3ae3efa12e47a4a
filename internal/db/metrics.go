package db

import (
	"context"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveGlobalConfig(ctx context.Context, doc *model.GlobalConfigDocument) error {
	return d.run("SaveGlobalConfig", func() error {
		return d.db.SaveGlobalConfig(ctx, doc)
	})
}

func (d *DbWithMetrics) GetGlobalConfig(ctx context.Context, id string) (result *model.GlobalConfigDocument, err error) {
	//nolint:errcheck
	d.run("GetGlobalConfig", func() error {
		result, err = d.db.GetGlobalConfig(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewUserLedger(ctx context.Context, doc *model.UserLedgerDocument) error {
	return d.run("SaveNewUserLedger", func() error {
		return d.db.SaveNewUserLedger(ctx, doc)
	})
}

func (d *DbWithMetrics) GetUserLedger(ctx context.Context, owner string) (result *model.UserLedgerDocument, err error) {
	//nolint:errcheck
	d.run("GetUserLedger", func() error {
		result, err = d.db.GetUserLedger(ctx, owner)
		return err
	})
	return
}

func (d *DbWithMetrics) DeleteUserLedger(ctx context.Context, owner string) error {
	return d.run("DeleteUserLedger", func() error {
		return d.db.DeleteUserLedger(ctx, owner)
	})
}

func (d *DbWithMetrics) GetCustodyRecord(ctx context.Context, assetID string) (result *model.CustodyRecordDocument, err error) {
	//nolint:errcheck
	d.run("GetCustodyRecord", func() error {
		result, err = d.db.GetCustodyRecord(ctx, assetID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetCustodyRecordsByOwner(ctx context.Context, owner string) (result []*model.CustodyRecordDocument, err error) {
	//nolint:errcheck
	d.run("GetCustodyRecordsByOwner", func() error {
		result, err = d.db.GetCustodyRecordsByOwner(ctx, owner)
		return err
	})
	return
}

func (d *DbWithMetrics) CountCustodyRecordsStakedBefore(ctx context.Context, stakedBefore int64) (result int64, err error) {
	//nolint:errcheck
	d.run("CountCustodyRecordsStakedBefore", func() error {
		result, err = d.db.CountCustodyRecordsStakedBefore(ctx, stakedBefore)
		return err
	})
	return
}

func (d *DbWithMetrics) CommitStake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	return d.run("CommitStake", func() error {
		return d.db.CommitStake(ctx, record, prev, next)
	})
}

func (d *DbWithMetrics) CommitUnstake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	return d.run("CommitUnstake", func() error {
		return d.db.CommitUnstake(ctx, record, prev, next)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
