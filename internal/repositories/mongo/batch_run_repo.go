package mongo

import (
	"context"
	"time"

	"github.com/yoockh/convolens/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const BatchRunsCollection = "batch_runs"

type BatchRunRepository interface {
	Insert(ctx context.Context, run *models.BatchRun) error
	ListRecent(ctx context.Context, kind models.BatchKind, limit int64) ([]models.BatchRun, error)
}

type batchRunRepo struct {
	col *mongo.Collection
}

func NewBatchRunRepo(db *mongo.Database) BatchRunRepository {
	return &batchRunRepo{col: db.Collection(BatchRunsCollection)}
}

func (r *batchRunRepo) Insert(ctx context.Context, run *models.BatchRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Errors == nil {
		run.Errors = []models.BatchError{}
	}
	_, err := r.col.InsertOne(ctx, run)
	return err
}

// ListRecent returns the newest runs first. An empty kind matches every kind.
func (r *batchRunRepo) ListRecent(ctx context.Context, kind models.BatchKind, limit int64) ([]models.BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.BatchRun{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
