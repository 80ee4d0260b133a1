package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/utils"
)

// AnalysisQueue hands conversations to the asynchronous analysis workers.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, conversationID string) error
}

type CreateConversationInput struct {
	AccountID       string     `json:"account_id"`
	ExternalID      *string    `json:"external_id"`
	Transcript      string     `json:"transcript"`
	Date            *time.Time `json:"date"`
	DurationMinutes *float64   `json:"duration_minutes"`
	// Analyze requests analysis right after the upload.
	Analyze bool `json:"analyze"`
}

type ConversationService interface {
	Create(ctx context.Context, in CreateConversationInput) (*models.Conversation, error)
	Get(ctx context.Context, id string) (*models.Conversation, error)
	List(ctx context.Context, f models.ConversationFilter) ([]models.Conversation, error)
}

type conversationService struct {
	convos   sqlrepo.ConversationRepository
	analysis AnalysisService
	queue    AnalysisQueue
	log      *logrus.Logger
}

// NewConversationService wires the conversation store. queue may be nil, in
// which case requested analysis runs inline.
func NewConversationService(convos sqlrepo.ConversationRepository, analysis AnalysisService, queue AnalysisQueue, log *logrus.Logger) ConversationService {
	return &conversationService{convos: convos, analysis: analysis, queue: queue, log: log}
}

func (s *conversationService) Create(ctx context.Context, in CreateConversationInput) (*models.Conversation, error) {
	const op = "ConversationService.Create"

	if strings.TrimSpace(in.Transcript) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript is required", nil)
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "duration_minutes must be >= 0", nil)
	}

	row := &models.Conversation{
		ID:              uuid.NewString(),
		AccountID:       strings.TrimSpace(in.AccountID),
		Transcript:      in.Transcript,
		DurationMinutes: in.DurationMinutes,
		CreatedAt:       time.Now().UTC(),
	}
	if in.ExternalID != nil {
		if ext := strings.TrimSpace(*in.ExternalID); ext != "" {
			row.ExternalID = &ext
		}
	}
	if in.Date != nil {
		d := in.Date.UTC()
		row.Date = &d
	}

	if err := s.convos.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert conversation", err)
	}

	if !in.Analyze {
		return row, nil
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, row.ID); err != nil {
			// the upload succeeded; analysis can be retried through the batch endpoint
			s.log.WithError(err).WithField("conversation_id", row.ID).Warn("failed to enqueue analysis")
			return row, nil
		}
		row.AnalysisQueued = true
		return row, nil
	}

	out, err := s.analysis.Analyze(ctx, row.ID)
	if err != nil {
		s.log.WithError(err).WithField("conversation_id", row.ID).Warn("inline analysis failed")
		return row, nil
	}
	row.Analysis = out.Analysis
	return row, nil
}

func (s *conversationService) Get(ctx context.Context, id string) (*models.Conversation, error) {
	const op = "ConversationService.Get"

	if strings.TrimSpace(id) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	c, err := s.convos.GetWithAnalysis(ctx, id)
	if err != nil {
		return nil, utils.FromStore(op, "conversation not found", "failed to get conversation", err)
	}
	return c, nil
}

func (s *conversationService) List(ctx context.Context, f models.ConversationFilter) ([]models.Conversation, error) {
	const op = "ConversationService.List"

	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "end_date is before start_date", nil)
	}

	rows, err := s.convos.List(ctx, f)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}
