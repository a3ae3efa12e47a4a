package db

import (
	"context"
	"errors"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) SaveGlobalConfig(ctx context.Context, doc *model.GlobalConfigDocument) error {
	_, err := db.collection(model.GlobalConfigCollection).InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKey(err) {
			return &DuplicateKeyError{
				Key:     doc.ID,
				Message: "global config already exists",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetGlobalConfig(ctx context.Context, id string) (*model.GlobalConfigDocument, error) {
	var doc model.GlobalConfigDocument
	err := db.collection(model.GlobalConfigCollection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "global config not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}
