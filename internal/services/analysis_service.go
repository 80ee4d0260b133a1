package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/churn"
	"github.com/yoockh/convolens/internal/events"
	"github.com/yoockh/convolens/internal/lexical"
	"github.com/yoockh/convolens/internal/metrics"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/utils"
)

// AnalysisOutcome is the lexical analysis of a conversation together with the
// churn assessment derived from it.
type AnalysisOutcome struct {
	ConversationID string           `json:"conversation_id"`
	Analysis       *models.Analysis `json:"analysis"`
	Churn          *churn.Result    `json:"churn"`
}

type AnalysisService interface {
	// Analyze runs the lexical scorer, stores its output and then scores churn.
	Analyze(ctx context.Context, conversationID string) (*AnalysisOutcome, error)
	AnalyzeBatch(ctx context.Context, req BatchRequest) (*BatchResult, error)
}

type analysisService struct {
	convos   sqlrepo.ConversationRepository
	analyses sqlrepo.AnalysisRepository
	churn    ChurnService
	pub      events.Publisher
	batch    batchRunner
	log      *logrus.Logger
}

func NewAnalysisService(
	convos sqlrepo.ConversationRepository,
	analyses sqlrepo.AnalysisRepository,
	churnSvc ChurnService,
	pub events.Publisher,
	recorder BatchRecorder,
	limits BatchLimits,
	log *logrus.Logger,
) AnalysisService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &analysisService{
		convos:   convos,
		analyses: analyses,
		churn:    churnSvc,
		pub:      pub,
		batch:    batchRunner{convos: convos, recorder: recorder, limits: limits, log: log},
		log:      log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, conversationID string) (*AnalysisOutcome, error) {
	const op = "AnalysisService.Analyze"

	if strings.TrimSpace(conversationID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}

	c, err := s.convos.GetWithAnalysis(ctx, conversationID)
	if err != nil {
		return nil, utils.FromStore(op, "conversation not found", "failed to load conversation", err)
	}

	lex := lexical.Analyze(c.Transcript)
	row := &models.Analysis{
		ConversationID:    c.ID,
		OverallSentiment:  lex.OverallSentiment,
		SentimentScore:    lex.SentimentScore,
		SentimentLabel:    lex.Label,
		SentimentCategory: string(lex.Category),
		PositiveMessages:  lex.PositiveMessages,
		NegativeMessages:  lex.NegativeMessages,
		NeutralMessages:   lex.NeutralMessages,
		MessageCount:      lex.MessageCount,
		AvgMessageLength:  lex.AvgMessageLength,
		AvgResponseTime:   lex.AvgResponseTime,
	}
	if err := s.analyses.UpsertLexical(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store analysis", err)
	}
	metrics.AnalysesTotal.WithLabelValues(row.SentimentCategory).Inc()

	stored, err := s.analyses.GetByConversationID(ctx, c.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload analysis", err)
	}
	c.Analysis = stored

	res, err := s.churn.Score(ctx, c)
	if err != nil {
		s.publishFailure(ctx, c.ID, err)
		return nil, err
	}

	// reflect the churn columns just written
	score, level := res.Score, string(res.Level)
	stored.ChurnRiskScore = &score
	stored.ChurnRiskLevel = &level

	s.log.WithFields(logrus.Fields{
		"conversation_id": c.ID,
		"label":           lex.Label,
		"messages":        lex.MessageCount,
		"churn_score":     res.Score,
	}).Info("conversation analysed")

	out := &AnalysisOutcome{ConversationID: c.ID, Analysis: stored, Churn: res}
	if err := s.pub.Publish(ctx, events.Event{
		Type:           events.TypeAnalysisCompleted,
		ConversationID: c.ID,
		Payload:        out,
	}); err != nil {
		s.log.WithError(err).WithField("conversation_id", c.ID).Warn("failed to publish analysis event")
	}
	return out, nil
}

func (s *analysisService) AnalyzeBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	const op = "AnalysisService.AnalyzeBatch"

	ids, err := s.batch.resolve(ctx, op, req, models.ConversationFilter{OnlyUnanalyzed: true})
	if err != nil {
		return nil, err
	}
	return s.batch.run(ctx, models.BatchKindAnalysis, ids, func(ctx context.Context, id string) (*churn.Result, error) {
		out, err := s.Analyze(ctx, id)
		if err != nil {
			return nil, err
		}
		return out.Churn, nil
	}), nil
}

func (s *analysisService) publishFailure(ctx context.Context, conversationID string, cause error) {
	err := s.pub.Publish(ctx, events.Event{
		Type:           events.TypeAnalysisFailed,
		ConversationID: conversationID,
		Error:          cause.Error(),
	})
	if err != nil {
		s.log.WithError(err).WithField("conversation_id", conversationID).Warn("failed to publish failure event")
	}
}
