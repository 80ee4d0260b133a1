package models

import "time"

// GlobalAccount is the account key of trend rows aggregated over every account.
const GlobalAccount = "all"

// DailyTrend is one day of aggregated sentiment for an account scope.
type DailyTrend struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Date              string    `gorm:"column:date;size:10;not null;uniqueIndex:idx_daily_trend_date_account" json:"date"`
	AccountID         string    `gorm:"column:account_id;size:64;not null;uniqueIndex:idx_daily_trend_date_account" json:"account_id"`
	AvgSentiment      float64   `gorm:"column:avg_sentiment" json:"avg_sentiment"`
	ConversationCount int       `gorm:"column:conversation_count" json:"conversation_count"`
	PositiveCount     int       `gorm:"column:positive_count" json:"positive_count"`
	NegativeCount     int       `gorm:"column:negative_count" json:"negative_count"`
	NeutralCount      int       `gorm:"column:neutral_count" json:"neutral_count"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (DailyTrend) TableName() string { return "daily_trends" }

// SentimentRow is an analysis joined to its conversation's date, the input of
// the trend calculator.
type SentimentRow struct {
	ConversationID    string
	Date              *time.Time
	CreatedAt         time.Time
	OverallSentiment  float64
	SentimentCategory string
}

// EffectiveDate is the conversation date, or the upload time when the
// transcript carried no date.
func (r SentimentRow) EffectiveDate() time.Time {
	if r.Date != nil {
		return r.Date.UTC()
	}
	return r.CreatedAt.UTC()
}
