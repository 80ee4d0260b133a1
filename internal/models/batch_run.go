package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BatchKind string

const (
	BatchKindAnalysis BatchKind = "analysis"
	BatchKindChurn    BatchKind = "churn"
)

// BatchError records one conversation that failed inside a batch.
type BatchError struct {
	ConversationID string `bson:"conversation_id" json:"conversation_id"`
	Error          string `bson:"error" json:"error"`
}

// BatchRun is the persisted outcome of a batch invocation.
type BatchRun struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RunID     string             `bson:"run_id" json:"run_id"` // uuid v4
	Kind      BatchKind          `bson:"kind" json:"kind"`
	Requested int                `bson:"requested" json:"requested"`
	Succeeded int                `bson:"succeeded" json:"succeeded"`
	Failed    int                `bson:"failed" json:"failed"`
	Errors    []BatchError       `bson:"errors" json:"errors"`

	StartedAt  time.Time `bson:"started_at" json:"started_at"`
	FinishedAt time.Time `bson:"finished_at" json:"finished_at"`
	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
}
