package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) SaveNewUserLedger(ctx context.Context, doc *model.UserLedgerDocument) error {
	_, err := db.collection(model.UserLedgerCollection).InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKey(err) {
			return &DuplicateKeyError{
				Key:     doc.Owner,
				Message: "user ledger already exists",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetUserLedger(ctx context.Context, owner string) (*model.UserLedgerDocument, error) {
	var doc model.UserLedgerDocument
	err := db.collection(model.UserLedgerCollection).
		FindOne(ctx, bson.M{"_id": owner}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     owner,
				Message: "user ledger not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) DeleteUserLedger(ctx context.Context, owner string) error {
	filter := bson.M{"_id": owner, "amount_staked": 0}

	res, err := db.collection(model.UserLedgerCollection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete user ledger %s: %w", owner, err)
	}

	if res.DeletedCount == 0 {
		return &NotFoundError{
			Key:     owner,
			Message: "user ledger not found or still has custody records",
		}
	}

	return nil
}

// casUserLedger replaces the ledger only if it still equals prev.
func (db *Database) casUserLedger(ctx context.Context, prev, next *model.UserLedgerDocument) error {
	filter := bson.M{
		"_id":           prev.Owner,
		"points":        prev.Points,
		"amount_staked": prev.AmountStaked,
	}
	update := bson.M{
		"$set": bson.M{
			"points":        next.Points,
			"amount_staked": next.AmountStaked,
		},
	}

	res, err := db.collection(model.UserLedgerCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return &ConflictError{
			Key:     prev.Owner,
			Message: "user ledger changed concurrently or does not exist",
		}
	}

	return nil
}
