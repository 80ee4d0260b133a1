package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/lexical"
	"github.com/yoockh/convolens/internal/metrics"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/trends"
	"github.com/yoockh/convolens/internal/utils"
)

// TrendQuery scopes a trend operation. An empty AccountID means every account.
type TrendQuery struct {
	AccountID string
	StartDate *time.Time
	EndDate   *time.Time
}

func (q TrendQuery) accountKey() string {
	if a := strings.TrimSpace(q.AccountID); a != "" {
		return a
	}
	return models.GlobalAccount
}

type ForecastLimits struct {
	DefaultDays int
	MaxDays     int
}

type RecomputeResult struct {
	AccountID     string         `json:"account_id"`
	Days          int            `json:"days"`
	Conversations int            `json:"conversations"`
	Points        []trends.Point `json:"points"`
}

type TrendService interface {
	// Recompute aggregates analysed conversations into daily rows and upserts
	// them. Running it twice over the same data leaves the same rows.
	Recompute(ctx context.Context, q TrendQuery) (*RecomputeResult, error)
	Series(ctx context.Context, q TrendQuery) ([]trends.Point, error)
	Forecast(ctx context.Context, q TrendQuery, days int) ([]trends.ForecastPoint, error)
	Anomalies(ctx context.Context, q TrendQuery) ([]trends.Anomaly, error)
	Insights(ctx context.Context, q TrendQuery, days int) (*trends.Insight, error)
}

type trendService struct {
	repo   sqlrepo.TrendRepository
	limits ForecastLimits
	log    *logrus.Logger
}

func NewTrendService(repo sqlrepo.TrendRepository, limits ForecastLimits, log *logrus.Logger) TrendService {
	return &trendService{repo: repo, limits: limits, log: log}
}

func (s *trendService) Recompute(ctx context.Context, q TrendQuery) (*RecomputeResult, error) {
	const op = "TrendService.Recompute"

	if err := validateRange(op, q); err != nil {
		return nil, err
	}

	rows, err := s.repo.SentimentObservations(ctx, models.ConversationFilter{
		AccountID: strings.TrimSpace(q.AccountID),
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load sentiment observations", err)
	}

	obs := make([]trends.Observation, len(rows))
	for i, r := range rows {
		obs[i] = trends.Observation{
			Date:      r.EffectiveDate(),
			Sentiment: r.OverallSentiment,
			Category:  lexical.Category(r.SentimentCategory),
		}
	}
	points := trends.Aggregate(obs)

	key := q.accountKey()
	daily := make([]models.DailyTrend, len(points))
	for i, p := range points {
		daily[i] = models.DailyTrend{
			Date:              p.Date,
			AccountID:         key,
			AvgSentiment:      p.AvgSentiment,
			ConversationCount: p.ConversationCount,
			PositiveCount:     p.PositiveCount,
			NegativeCount:     p.NegativeCount,
			NeutralCount:      p.NeutralCount,
		}
	}
	if err := s.repo.UpsertDaily(ctx, daily); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store daily trends", err)
	}
	metrics.TrendPointsUpserted.Add(float64(len(daily)))

	s.log.WithFields(logrus.Fields{
		"account_id":    key,
		"days":          len(points),
		"conversations": len(rows),
	}).Info("trends recomputed")

	return &RecomputeResult{
		AccountID:     key,
		Days:          len(points),
		Conversations: len(rows),
		Points:        points,
	}, nil
}

func (s *trendService) Series(ctx context.Context, q TrendQuery) ([]trends.Point, error) {
	const op = "TrendService.Series"

	if err := validateRange(op, q); err != nil {
		return nil, err
	}

	var start, end string
	if q.StartDate != nil {
		start = q.StartDate.UTC().Format(trends.DateLayout)
	}
	if q.EndDate != nil {
		end = q.EndDate.UTC().Format(trends.DateLayout)
	}

	rows, err := s.repo.QueryDaily(ctx, q.accountKey(), start, end)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load daily trends", err)
	}

	out := make([]trends.Point, len(rows))
	for i, r := range rows {
		out[i] = trends.Point{
			Date:              r.Date,
			AvgSentiment:      r.AvgSentiment,
			ConversationCount: r.ConversationCount,
			PositiveCount:     r.PositiveCount,
			NegativeCount:     r.NegativeCount,
			NeutralCount:      r.NeutralCount,
		}
	}
	return out, nil
}

func (s *trendService) Forecast(ctx context.Context, q TrendQuery, days int) ([]trends.ForecastPoint, error) {
	const op = "TrendService.Forecast"

	days, err := s.forecastDays(op, days)
	if err != nil {
		return nil, err
	}
	series, err := s.Series(ctx, q)
	if err != nil {
		return nil, err
	}
	return trends.Forecast(series, days), nil
}

func (s *trendService) Anomalies(ctx context.Context, q TrendQuery) ([]trends.Anomaly, error) {
	series, err := s.Series(ctx, q)
	if err != nil {
		return nil, err
	}
	return trends.DetectAnomalies(series), nil
}

func (s *trendService) Insights(ctx context.Context, q TrendQuery, days int) (*trends.Insight, error) {
	const op = "TrendService.Insights"

	days, err := s.forecastDays(op, days)
	if err != nil {
		return nil, err
	}
	series, err := s.Series(ctx, q)
	if err != nil {
		return nil, err
	}
	in := trends.Summarize(series, days)
	return &in, nil
}

// forecastDays applies the default for 0 and rejects values outside 1..max.
func (s *trendService) forecastDays(op string, days int) (int, error) {
	if days == 0 {
		return s.limits.DefaultDays, nil
	}
	if days < 1 || days > s.limits.MaxDays {
		return 0, utils.E(utils.CodeInvalidArgument, op, "days out of range", nil)
	}
	return days, nil
}

func validateRange(op string, q TrendQuery) error {
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return utils.E(utils.CodeInvalidArgument, op, "end_date is before start_date", nil)
	}
	return nil
}
