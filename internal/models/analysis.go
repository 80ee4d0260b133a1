package models

import (
	"time"

	"gorm.io/datatypes"
)

// Analysis is the per-conversation derived record: lexical scores plus the
// churn assessment computed from them.
type Analysis struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string `gorm:"column:conversation_id;type:uuid;uniqueIndex" json:"conversation_id"`

	OverallSentiment  float64 `gorm:"column:overall_sentiment" json:"overall_sentiment"` // 0..1
	SentimentScore    float64 `gorm:"column:sentiment_score" json:"sentiment_score"`     // 0..100
	SentimentLabel    string  `gorm:"column:sentiment_label;type:text" json:"sentiment_label"`
	SentimentCategory string  `gorm:"column:sentiment_category;type:text;index" json:"sentiment_category"` // positive|negative|neutral
	PositiveMessages  int     `gorm:"column:positive_messages" json:"positive_messages"`
	NegativeMessages  int     `gorm:"column:negative_messages" json:"negative_messages"`
	NeutralMessages   int     `gorm:"column:neutral_messages" json:"neutral_messages"`
	MessageCount      int     `gorm:"column:message_count" json:"message_count"`
	AvgMessageLength  float64 `gorm:"column:avg_message_length" json:"avg_message_length"`
	AvgResponseTime   float64 `gorm:"column:avg_response_time" json:"avg_response_time"` // minutes

	ChurnRiskScore     *int           `gorm:"column:churn_risk_score;index" json:"churn_risk_score,omitempty"`
	ChurnRiskLevel     *string        `gorm:"column:churn_risk_level;index" json:"churn_risk_level,omitempty"`
	ChurnRiskFactors   datatypes.JSON `gorm:"column:churn_risk_factors" json:"churn_risk_factors,omitempty"`
	RecommendedActions datatypes.JSON `gorm:"column:recommended_actions" json:"recommended_actions,omitempty"`
	ChurnScoredAt      *time.Time     `gorm:"column:churn_scored_at" json:"churn_scored_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Analysis) TableName() string { return "analyses" }

// RiskDistribution is the count of scored conversations per churn level.
type RiskDistribution struct {
	Low          int64   `json:"low"`
	Medium       int64   `json:"medium"`
	High         int64   `json:"high"`
	Total        int64   `json:"total"`
	AverageScore float64 `json:"average_score"`
}
