package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	GlobalConfigCollection: {{Indexes: map[string]int{}}},
	UserLedgerCollection:   {{Indexes: map[string]int{}}},
	CustodyRecordCollection: {
		{Indexes: map[string]int{"owner": 1}, Unique: false},
		{Indexes: map[string]int{"staked_at": 1}, Unique: false},
	},
}

// Setup creates the collections and their indexes.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect from mongo after setup")
		}
	}()

	database := client.Database(cfg.DbName)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for collection, idxs := range collections {
		createCollection(ctx, database, collection)
		for _, idx := range idxs {
			if len(idx.Indexes) == 0 {
				continue
			}
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", collection, err)
			}
		}
	}

	log.Ctx(ctx).Info().Msg("collections and indexes created successfully")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) {
	// ignore the error if the collection already exists
	err := database.CreateCollection(ctx, collectionName)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
			log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("collection already exists")
			return
		}
		log.Ctx(ctx).Error().Err(err).Str("collection", collectionName).Msg("failed to create collection")
		return
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("collection created")
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	keys := bson.D{}
	for field, order := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: order})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	_, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("index created")
	return nil
}
