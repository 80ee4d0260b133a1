package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/churn"
	"github.com/yoockh/convolens/internal/events"
	"github.com/yoockh/convolens/internal/metrics"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/utils"
	"gorm.io/datatypes"
)

type ChurnService interface {
	// Compute scores a stored conversation and persists the assessment.
	Compute(ctx context.Context, conversationID string) (*churn.Result, error)
	// Score assesses a conversation whose Analysis is already loaded.
	Score(ctx context.Context, c *models.Conversation) (*churn.Result, error)
	Batch(ctx context.Context, req BatchRequest) (*BatchResult, error)
	HighRisk(ctx context.Context, limit int) ([]models.Conversation, error)
	Summary(ctx context.Context) (*models.RiskDistribution, error)
}

type churnService struct {
	convos   sqlrepo.ConversationRepository
	analyses sqlrepo.AnalysisRepository
	scorer   *churn.Scorer
	pub      events.Publisher
	batch    batchRunner
	log      *logrus.Logger
	now      func() time.Time
}

func NewChurnService(
	convos sqlrepo.ConversationRepository,
	analyses sqlrepo.AnalysisRepository,
	model churn.Model,
	pub events.Publisher,
	recorder BatchRecorder,
	limits BatchLimits,
	log *logrus.Logger,
) ChurnService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &churnService{
		convos:   convos,
		analyses: analyses,
		scorer:   churn.NewScorer(model),
		pub:      pub,
		batch:    batchRunner{convos: convos, recorder: recorder, limits: limits, log: log},
		log:      log,
		now:      time.Now,
	}
}

func (s *churnService) Compute(ctx context.Context, conversationID string) (*churn.Result, error) {
	const op = "ChurnService.Compute"

	if strings.TrimSpace(conversationID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}

	c, err := s.convos.GetWithAnalysis(ctx, conversationID)
	if err != nil {
		return nil, utils.FromStore(op, "conversation not found", "failed to load conversation", err)
	}
	return s.Score(ctx, c)
}

func (s *churnService) Score(ctx context.Context, c *models.Conversation) (*churn.Result, error) {
	const op = "ChurnService.Score"

	if c.Analysis == nil {
		return nil, utils.E(utils.CodeNotFound, op, "analysis not found for conversation", utils.ErrNotFound)
	}

	in := churn.Input{
		ConversationID:   c.ID,
		Transcript:       c.Transcript,
		OverallSentiment: c.Analysis.OverallSentiment,
		DurationMinutes:  c.DurationMinutes,
	}
	if c.ExternalID != nil {
		in.ExternalID = strings.TrimSpace(*c.ExternalID)
	}
	if in.ExternalID != "" {
		since := s.now().UTC().AddDate(0, 0, -s.scorer.Model().RepeatWindowDays)
		n, err := s.convos.CountSimilarExternalID(ctx, churn.ExternalIDFragment(in.ExternalID), since, c.ID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to count repeat contacts", err)
		}
		in.SimilarContacts = int(n)
	}

	res := s.scorer.Evaluate(in)

	factors, err := json.Marshal(res.Factors)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode risk factors", err)
	}
	actions, err := json.Marshal(res.Actions)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode actions", err)
	}

	err = s.analyses.UpsertChurn(ctx, c.ID, sqlrepo.ChurnUpdate{
		Score:    res.Score,
		Level:    string(res.Level),
		Factors:  datatypes.JSON(factors),
		Actions:  datatypes.JSON(actions),
		ScoredAt: s.now(),
	})
	if err != nil {
		return nil, utils.FromStore(op, "analysis not found for conversation", "failed to store churn score", err)
	}

	metrics.ObserveChurn(res.Score, string(res.Level))
	s.log.WithFields(logrus.Fields{
		"conversation_id": c.ID,
		"score":           res.Score,
		"level":           res.Level,
		"factors":         len(res.Factors),
	}).Debug("churn scored")

	if err := s.pub.Publish(ctx, events.Event{
		Type:           events.TypeChurnScored,
		ConversationID: c.ID,
		Payload:        res,
		At:             s.now().UTC(),
	}); err != nil {
		s.log.WithError(err).WithField("conversation_id", c.ID).Warn("failed to publish churn event")
	}
	return &res, nil
}

func (s *churnService) Batch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	const op = "ChurnService.Batch"

	ids, err := s.batch.resolve(ctx, op, req, models.ConversationFilter{OnlyAnalyzed: true})
	if err != nil {
		return nil, err
	}
	return s.batch.run(ctx, models.BatchKindChurn, ids, s.Compute), nil
}

func (s *churnService) HighRisk(ctx context.Context, limit int) ([]models.Conversation, error) {
	const op = "ChurnService.HighRisk"

	rows, err := s.convos.ListByRiskLevel(ctx, string(churn.LevelHigh), limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list high risk conversations", err)
	}
	return rows, nil
}

func (s *churnService) Summary(ctx context.Context) (*models.RiskDistribution, error) {
	const op = "ChurnService.Summary"

	dist, err := s.analyses.RiskDistribution(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute risk distribution", err)
	}
	return dist, nil
}
