package sqldb

import (
	"context"
	"time"

	"github.com/yoockh/convolens/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrendRepository interface {
	UpsertDaily(ctx context.Context, rows []models.DailyTrend) error
	QueryDaily(ctx context.Context, accountID, startDate, endDate string) ([]models.DailyTrend, error)
	SentimentObservations(ctx context.Context, f models.ConversationFilter) ([]models.SentimentRow, error)
}

type trendRepo struct {
	db *gorm.DB
}

func NewTrendRepo(db *gorm.DB) TrendRepository {
	return &trendRepo{db: db}
}

// UpsertDaily writes one row per (date, account). Recomputing the same day
// overwrites its statistics instead of adding a duplicate.
func (r *trendRepo) UpsertDaily(ctx context.Context, rows []models.DailyTrend) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		rows[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}, {Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"avg_sentiment", "conversation_count", "positive_count",
				"negative_count", "neutral_count", "updated_at",
			}),
		}).
		CreateInBatches(rows, 200).Error
}

// QueryDaily returns stored days for an account, oldest first. Empty bounds
// are open.
func (r *trendRepo) QueryDaily(ctx context.Context, accountID, startDate, endDate string) ([]models.DailyTrend, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if startDate != "" {
		q = q.Where("date >= ?", startDate)
	}
	if endDate != "" {
		q = q.Where("date <= ?", endDate)
	}

	var rows []models.DailyTrend
	err := q.Order("date ASC").Find(&rows).Error
	return rows, err
}

// SentimentObservations selects the sentiment of every analysed conversation
// matching the filter. Limit is ignored.
func (r *trendRepo) SentimentObservations(ctx context.Context, f models.ConversationFilter) ([]models.SentimentRow, error) {
	q := r.db.WithContext(ctx).
		Table("analyses").
		Select("analyses.conversation_id, conversations.date, conversations.created_at, analyses.overall_sentiment, analyses.sentiment_category").
		Joins("JOIN conversations ON conversations.id = analyses.conversation_id")
	if f.AccountID != "" {
		q = q.Where("conversations.account_id = ?", f.AccountID)
	}
	if f.StartDate != nil {
		q = q.Where("COALESCE(conversations.date, conversations.created_at) >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("COALESCE(conversations.date, conversations.created_at) <= ?", f.EndDate.UTC())
	}

	var rows []models.SentimentRow
	err := q.Order("analyses.conversation_id").Scan(&rows).Error
	return rows, err
}
