package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(dbName string) error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoClient.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runs := db.Collection("batch_runs")
	_, err := runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_run_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "started_at", Value: -1}},
			Options: options.Index().SetName("by_kind_started"),
		},
		// keep ninety days of history
		{
			Keys: bson.D{{Key: "finished_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_finished_at").
				SetExpireAfterSeconds(90 * 24 * 3600),
		},
	})
	return err
}
