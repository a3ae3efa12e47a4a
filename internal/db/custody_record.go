package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) GetCustodyRecord(ctx context.Context, assetID string) (*model.CustodyRecordDocument, error) {
	var doc model.CustodyRecordDocument
	err := db.collection(model.CustodyRecordCollection).
		FindOne(ctx, bson.M{"_id": assetID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     assetID,
				Message: "custody record not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) GetCustodyRecordsByOwner(ctx context.Context, owner string) ([]*model.CustodyRecordDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "staked_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := db.collection(model.CustodyRecordCollection).Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.CustodyRecordDocument
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

func (db *Database) CountCustodyRecordsStakedBefore(ctx context.Context, stakedBefore int64) (int64, error) {
	filter := bson.M{"staked_at": bson.M{"$lt": stakedBefore}}
	return db.collection(model.CustodyRecordCollection).CountDocuments(ctx, filter)
}

// CommitStake writes the record first: its primary key is the serialization
// point for the asset. The ledger write is conditional on the snapshot the
// caller validated; if it misses, the record is removed again.
func (db *Database) CommitStake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	records := db.collection(model.CustodyRecordCollection)

	if _, err := records.InsertOne(ctx, record); err != nil {
		if isDuplicateKey(err) {
			return &DuplicateKeyError{
				Key:     record.AssetID,
				Message: "custody record already exists",
			}
		}
		return err
	}

	if err := db.casUserLedger(ctx, prev, next); err != nil {
		if _, delErr := records.DeleteOne(ctx, bson.M{"_id": record.AssetID}); delErr != nil {
			log.Ctx(ctx).Error().Err(delErr).
				Str("asset_id", record.AssetID).
				Msg("failed to roll back custody record after ledger update failure")
			return fmt.Errorf("%w (rollback failed: %v)", err, delErr)
		}
		return err
	}

	return nil
}

// CommitUnstake deletes the record conditionally on its owner and stake time,
// then applies the ledger change. The record is restored if the ledger write
// misses.
func (db *Database) CommitUnstake(
	ctx context.Context, record *model.CustodyRecordDocument, prev, next *model.UserLedgerDocument,
) error {
	records := db.collection(model.CustodyRecordCollection)

	filter := bson.M{
		"_id":       record.AssetID,
		"owner":     record.Owner,
		"staked_at": record.StakedAt,
	}
	res, err := records.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete custody record %s: %w", record.AssetID, err)
	}
	if res.DeletedCount == 0 {
		return &NotFoundError{
			Key:     record.AssetID,
			Message: "custody record not found when unstaking",
		}
	}

	if err := db.casUserLedger(ctx, prev, next); err != nil {
		if _, insErr := records.InsertOne(ctx, record); insErr != nil {
			log.Ctx(ctx).Error().Err(insErr).
				Str("asset_id", record.AssetID).
				Msg("failed to restore custody record after ledger update failure")
			return fmt.Errorf("%w (rollback failed: %v)", err, insErr)
		}
		return err
	}

	return nil
}
