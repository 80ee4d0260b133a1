// Package sqldb holds the gorm-backed repositories. Queries stay portable
// between the postgres and sqlite dialects.
package sqldb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yoockh/convolens/internal/models"
	"github.com/yoockh/convolens/internal/utils"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type ConversationRepository interface {
	Insert(ctx context.Context, c *models.Conversation) error
	GetWithAnalysis(ctx context.Context, id string) (*models.Conversation, error)
	List(ctx context.Context, f models.ConversationFilter) ([]models.Conversation, error)
	CountSimilarExternalID(ctx context.Context, fragment string, since time.Time, excludeID string) (int64, error)
	ListByRiskLevel(ctx context.Context, level string, limit int) ([]models.Conversation, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Insert(ctx context.Context, c *models.Conversation) error {
	return r.db.WithContext(ctx).Omit("Analysis").Create(c).Error
}

func (r *conversationRepo) GetWithAnalysis(ctx context.Context, id string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) List(ctx context.Context, f models.ConversationFilter) ([]models.Conversation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := r.db.WithContext(ctx).Model(&models.Conversation{}).Preload("Analysis")
	if f.AccountID != "" {
		q = q.Where("conversations.account_id = ?", f.AccountID)
	}
	if f.StartDate != nil {
		q = q.Where("COALESCE(conversations.date, conversations.created_at) >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("COALESCE(conversations.date, conversations.created_at) <= ?", f.EndDate.UTC())
	}
	if f.OnlyUnanalyzed {
		q = q.Where("NOT EXISTS (SELECT 1 FROM analyses a WHERE a.conversation_id = conversations.id)")
	}
	if f.OnlyAnalyzed {
		q = q.Where("EXISTS (SELECT 1 FROM analyses a WHERE a.conversation_id = conversations.id)")
	}

	var rows []models.Conversation
	err := q.Order("conversations.created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListByRiskLevel returns scored conversations at a churn level, riskiest first.
func (r *conversationRepo) ListByRiskLevel(ctx context.Context, level string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Joins("JOIN analyses ON analyses.conversation_id = conversations.id").
		Where("analyses.churn_risk_level = ?", level).
		Order("analyses.churn_risk_score DESC").
		Order("conversations.created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountSimilarExternalID counts other conversations whose external id
// contains fragment and whose date (or upload time) is on or after since.
func (r *conversationRepo) CountSimilarExternalID(ctx context.Context, fragment string, since time.Time, excludeID string) (int64, error) {
	if fragment == "" {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id <> ?", excludeID).
		Where("external_id LIKE ? ESCAPE '\\'", "%"+escapeLike(fragment)+"%").
		Where("COALESCE(date, created_at) >= ?", since.UTC()).
		Count(&n).Error
	return n, err
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
