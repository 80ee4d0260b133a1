package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/churn"
	"github.com/yoockh/convolens/internal/metrics"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/utils"
)

// BatchRecorder persists the outcome of a batch run.
type BatchRecorder interface {
	Insert(ctx context.Context, run *models.BatchRun) error
}

type BatchLimits struct {
	Default int
	Max     int
}

func DefaultBatchLimits() BatchLimits {
	return BatchLimits{Default: 100, Max: 500}
}

// BatchRequest selects the conversations of a batch. Explicit ids win; without
// them the newest matching conversations are taken up to Limit.
type BatchRequest struct {
	ConversationIDs []string `json:"conversation_ids"`
	AccountID       string   `json:"account_id"`
	Limit           int      `json:"limit"`
}

// BatchResult always describes a completed run; per-item failures are listed
// in Errors and never abort the batch.
type BatchResult struct {
	RunID      string              `json:"run_id"`
	Kind       models.BatchKind    `json:"kind"`
	Requested  int                 `json:"requested"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Errors     []models.BatchError `json:"errors"`
	Results    []churn.Result      `json:"results"`
	DurationMS int64               `json:"duration_ms"`
}

type batchRunner struct {
	convos   sqlrepo.ConversationRepository
	recorder BatchRecorder
	limits   BatchLimits
	log      *logrus.Logger
}

func (b *batchRunner) resolve(ctx context.Context, op string, req BatchRequest, filter models.ConversationFilter) ([]string, error) {
	if len(req.ConversationIDs) > 0 {
		if len(req.ConversationIDs) > b.limits.Max {
			return nil, utils.E(utils.CodeInvalidArgument, op, "too many conversation_ids", nil)
		}
		return dedupe(req.ConversationIDs), nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = b.limits.Default
	}
	if limit > b.limits.Max {
		limit = b.limits.Max
	}
	filter.AccountID = req.AccountID
	filter.Limit = limit

	rows, err := b.convos.List(ctx, filter)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to select batch", err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// run processes ids one after another. A cancelled context marks the
// remaining ids as failed.
func (b *batchRunner) run(ctx context.Context, kind models.BatchKind, ids []string, fn func(context.Context, string) (*churn.Result, error)) *BatchResult {
	started := time.Now().UTC()
	res := &BatchResult{
		RunID:     uuid.NewString(),
		Kind:      kind,
		Requested: len(ids),
		Errors:    []models.BatchError{},
		Results:   []churn.Result{},
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, models.BatchError{ConversationID: id, Error: err.Error()})
			continue
		}
		out, err := fn(ctx, id)
		if err != nil {
			res.Errors = append(res.Errors, models.BatchError{ConversationID: id, Error: err.Error()})
			continue
		}
		res.Results = append(res.Results, *out)
	}

	res.Failed = len(res.Errors)
	res.Succeeded = len(res.Results)
	finished := time.Now().UTC()
	res.DurationMS = finished.Sub(started).Milliseconds()

	metrics.BatchDuration.WithLabelValues(string(kind)).Observe(finished.Sub(started).Seconds())
	metrics.BatchItemFailures.WithLabelValues(string(kind)).Add(float64(res.Failed))

	b.log.WithFields(logrus.Fields{
		"run_id":    res.RunID,
		"kind":      kind,
		"requested": res.Requested,
		"failed":    res.Failed,
	}).Info("batch finished")

	if b.recorder != nil {
		run := &models.BatchRun{
			RunID:      res.RunID,
			Kind:       kind,
			Requested:  res.Requested,
			Succeeded:  res.Succeeded,
			Failed:     res.Failed,
			Errors:     res.Errors,
			StartedAt:  started,
			FinishedAt: finished,
			DurationMS: res.DurationMS,
		}
		// history is best effort; the caller still gets the result
		if err := b.recorder.Insert(context.WithoutCancel(ctx), run); err != nil {
			b.log.WithError(err).WithField("run_id", res.RunID).Warn("failed to record batch run")
		}
	}
	return res
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
