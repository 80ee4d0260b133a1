package models

import "time"

type Conversation struct {
	ID              string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AccountID       string     `gorm:"column:account_id;index" json:"account_id,omitempty"`
	ExternalID      *string    `gorm:"column:external_id;index" json:"external_id,omitempty"`
	Transcript      string     `gorm:"column:transcript;type:text" json:"transcript"`
	Date            *time.Time `gorm:"column:date;index" json:"date,omitempty"`
	DurationMinutes *float64   `gorm:"column:duration_minutes" json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Analysis *Analysis `gorm:"foreignKey:ConversationID;references:ID" json:"analysis,omitempty"`
	// AnalysisQueued is set on create when analysis was handed to the workers.
	AnalysisQueued bool `gorm:"-" json:"analysis_queued,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationFilter narrows conversation listings. Zero values mean "any".
type ConversationFilter struct {
	AccountID string
	StartDate *time.Time
	EndDate   *time.Time
	// OnlyUnanalyzed keeps conversations without an analysis row.
	OnlyUnanalyzed bool
	// OnlyAnalyzed keeps conversations that have an analysis row.
	OnlyAnalyzed bool
	Limit        int
}
