package sqldb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/convolens/internal/models"
	"github.com/yoockh/convolens/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChurnUpdate is the churn assessment written onto an analysis row.
type ChurnUpdate struct {
	Score    int
	Level    string
	Factors  datatypes.JSON
	Actions  datatypes.JSON
	ScoredAt time.Time
}

type AnalysisRepository interface {
	UpsertLexical(ctx context.Context, a *models.Analysis) error
	UpsertChurn(ctx context.Context, conversationID string, u ChurnUpdate) error
	GetByConversationID(ctx context.Context, conversationID string) (*models.Analysis, error)
	RiskDistribution(ctx context.Context) (*models.RiskDistribution, error)
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

var lexicalColumns = []string{
	"overall_sentiment", "sentiment_score", "sentiment_label", "sentiment_category",
	"positive_messages", "negative_messages", "neutral_messages", "message_count",
	"avg_message_length", "avg_response_time", "updated_at",
}

// UpsertLexical inserts the lexical analysis of a conversation or overwrites
// the lexical columns of the existing row. Churn columns are left alone.
func (r *analysisRepo) UpsertLexical(ctx context.Context, a *models.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			DoUpdates: clause.AssignmentColumns(lexicalColumns),
		}).
		Create(a).Error
}

func (r *analysisRepo) UpsertChurn(ctx context.Context, conversationID string, u ChurnUpdate) error {
	res := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("conversation_id = ?", conversationID).
		Updates(map[string]any{
			"churn_risk_score":    u.Score,
			"churn_risk_level":    u.Level,
			"churn_risk_factors":  u.Factors,
			"recommended_actions": u.Actions,
			"churn_scored_at":     u.ScoredAt.UTC(),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *analysisRepo) GetByConversationID(ctx context.Context, conversationID string) (*models.Analysis, error) {
	var row models.Analysis
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *analysisRepo) RiskDistribution(ctx context.Context) (*models.RiskDistribution, error) {
	var rows []struct {
		Level string
		Count int64
		Sum   float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Select("churn_risk_level AS level, COUNT(*) AS count, COALESCE(SUM(churn_risk_score), 0) AS sum").
		Where("churn_risk_score IS NOT NULL").
		Group("churn_risk_level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := &models.RiskDistribution{}
	var total float64
	for _, row := range rows {
		switch row.Level {
		case "low":
			out.Low = row.Count
		case "medium":
			out.Medium = row.Count
		case "high":
			out.High = row.Count
		}
		out.Total += row.Count
		total += row.Sum
	}
	if out.Total > 0 {
		out.AverageScore = total / float64(out.Total)
	}
	return out, nil
}
