package services

import (
	"context"

	"github.com/yoockh/convolens/internal/models"
	"github.com/yoockh/convolens/internal/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// BatchHistory reads back recorded batch runs.
type BatchHistory interface {
	ListRecent(ctx context.Context, kind models.BatchKind, limit int64) ([]models.BatchRun, error)
}

type BatchHistoryService interface {
	Recent(ctx context.Context, kind string, limit int) ([]models.BatchRun, error)
}

type batchHistoryService struct {
	runs BatchHistory
}

// NewBatchHistoryService accepts a nil store; Recent then reports the
// history as unavailable.
func NewBatchHistoryService(runs BatchHistory) BatchHistoryService {
	return &batchHistoryService{runs: runs}
}

func (s *batchHistoryService) Recent(ctx context.Context, kind string, limit int) ([]models.BatchRun, error) {
	const op = "BatchHistoryService.Recent"

	if s.runs == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "batch history requires MongoDB", nil)
	}
	k := models.BatchKind(kind)
	switch k {
	case "", models.BatchKindAnalysis, models.BatchKindChurn:
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "kind must be analysis or churn", nil)
	}
	if limit < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "limit must be >= 0", nil)
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	runs, err := s.runs.ListRecent(ctx, k, int64(limit))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list batch runs", err)
	}
	return runs, nil
}
