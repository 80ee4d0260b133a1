package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/convolens/internal/churn"
	"github.com/yoockh/convolens/internal/events"
	"github.com/yoockh/convolens/internal/models"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/utils"
)

type fakePublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.got))
	for i, ev := range p.got {
		out[i] = ev.Type
	}
	return out
}

type fakeRecorder struct {
	runs []*models.BatchRun
	err  error
}

func (r *fakeRecorder) Insert(_ context.Context, run *models.BatchRun) error {
	r.runs = append(r.runs, run)
	return r.err
}

func (r *fakeRecorder) ListRecent(_ context.Context, kind models.BatchKind, limit int64) ([]models.BatchRun, error) {
	out := []models.BatchRun{}
	for i := len(r.runs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if kind == "" || r.runs[i].Kind == kind {
			out = append(out, *r.runs[i])
		}
	}
	return out, nil
}

type fakeQueue struct {
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id string) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type fixture struct {
	convos   ConversationService
	analysis AnalysisService
	churn    ChurnService
	trends   TrendService
	pub      *fakePublisher
	recorder *fakeRecorder
	db       *gorm.DB
}

func newFixture(t *testing.T, queue AnalysisQueue) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, sqlrepo.AutoMigrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	convRepo := sqlrepo.NewConversationRepo(db)
	anRepo := sqlrepo.NewAnalysisRepo(db)
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	limits := BatchLimits{Default: 10, Max: 20}

	churnSvc := NewChurnService(convRepo, anRepo, churn.DefaultModel(), pub, rec, limits, log)
	analysisSvc := NewAnalysisService(convRepo, anRepo, churnSvc, pub, rec, limits, log)
	return &fixture{
		convos:   NewConversationService(convRepo, analysisSvc, queue, log),
		analysis: analysisSvc,
		churn:    churnSvc,
		trends:   NewTrendService(sqlrepo.NewTrendRepo(db), ForecastLimits{DefaultDays: 7, MaxDays: 30}, log),
		pub:      pub,
		recorder: rec,
		db:       db,
	}
}

func (f *fixture) upload(t *testing.T, in CreateConversationInput) *models.Conversation {
	t.Helper()
	c, err := f.convos.Create(context.Background(), in)
	require.NoError(t, err)
	return c
}

func strp(s string) *string { return &s }

func factorNames(fs []churn.Factor) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Factor
	}
	return out
}

func TestCreateValidatesTranscript(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.convos.Create(context.Background(), CreateConversationInput{Transcript: "   "})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	neg := -1.0
	_, err = f.convos.Create(context.Background(), CreateConversationInput{Transcript: "hi", DurationMinutes: &neg})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCreateWithAnalyzeEnqueues(t *testing.T) {
	q := &fakeQueue{}
	f := newFixture(t, q)

	c := f.upload(t, CreateConversationInput{Transcript: "Customer: hello", Analyze: true})
	assert.Equal(t, []string{c.ID}, q.ids)
	assert.Nil(t, c.Analysis)
	assert.True(t, c.AnalysisQueued)
}

func TestCreateWithFailedEnqueueIsNotQueued(t *testing.T) {
	f := newFixture(t, &fakeQueue{err: errors.New("redis down")})

	c := f.upload(t, CreateConversationInput{Transcript: "Customer: hello", Analyze: true})
	assert.False(t, c.AnalysisQueued)
	assert.Nil(t, c.Analysis)

	got, err := f.convos.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCreateWithAnalyzeRunsInlineWithoutQueue(t *testing.T) {
	f := newFixture(t, nil)

	c := f.upload(t, CreateConversationInput{Transcript: "Customer: thanks, great help", Analyze: true})
	require.NotNil(t, c.Analysis)
	assert.False(t, c.AnalysisQueued)

	got, err := f.convos.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	require.NotNil(t, got.Analysis.ChurnRiskScore)
}

func TestGetMissingConversation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.convos.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Equal(t, 404, utils.HTTPStatus(err))
}

func TestAnalyzeScoresChurnAndPublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	c := f.upload(t, CreateConversationInput{
		Transcript: "Customer: I want to cancel, this is terrible and still not working\nAgent: I am sorry to hear that",
	})

	out, err := f.analysis.Analyze(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Churn)
	assert.Equal(t, 2, out.Analysis.MessageCount)
	assert.Contains(t, factorNames(out.Churn.Factors), churn.FactorChurnKeywords)
	assert.Contains(t, factorNames(out.Churn.Factors), churn.FactorUnresolvedIssue)
	assert.Contains(t, out.Churn.Actions, "retention_offer")
	assert.NotEqual(t, churn.LevelLow, out.Churn.Level)
	require.NotNil(t, out.Analysis.ChurnRiskScore)
	assert.Equal(t, out.Churn.Score, *out.Analysis.ChurnRiskScore)

	assert.Equal(t, []string{events.TypeChurnScored, events.TypeAnalysisCompleted}, f.pub.types())

	// re-running overwrites instead of duplicating
	_, err = f.analysis.Analyze(ctx, c.ID)
	require.NoError(t, err)
	var n int64
	require.NoError(t, f.db.Model(&models.Analysis{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestComputeRequiresAnalysis(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	c := f.upload(t, CreateConversationInput{Transcript: "Customer: hi"})

	_, err := f.churn.Compute(ctx, c.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.churn.Compute(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.churn.Compute(ctx, "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestComputeCountsRepeatContacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	recent := time.Now().UTC().Add(-24 * time.Hour)
	old := time.Now().UTC().AddDate(0, 0, -30)
	var last *models.Conversation
	for _, ext := range []string{"CUST-77777", "ORD-77777", "X77777", "CUST-77777"} {
		last = f.upload(t, CreateConversationInput{Transcript: "Customer: ok", ExternalID: strp(ext), Date: &recent})
	}
	f.upload(t, CreateConversationInput{Transcript: "Customer: ok", ExternalID: strp("CUST-77777"), Date: &old})

	_, err := f.analysis.Analyze(ctx, last.ID)
	require.NoError(t, err)

	res, err := f.churn.Compute(ctx, last.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, res.SubScores.RepeatContact)
	assert.Contains(t, factorNames(res.Factors), churn.FactorRepeatContact)
	assert.Contains(t, res.Actions, "root_cause_analysis")
}

func TestUnknownCustomerScoresThirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	c := f.upload(t, CreateConversationInput{Transcript: "Customer: ok"})

	out, err := f.analysis.Analyze(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Churn.SubScores.RepeatContact)
}

func TestBatchCollectsPerItemErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	a := f.upload(t, CreateConversationInput{Transcript: "Customer: thanks, resolved"})
	b := f.upload(t, CreateConversationInput{Transcript: "Customer: still broken"})
	missing := "00000000-0000-0000-0000-000000000000"

	res, err := f.analysis.AnalyzeBatch(ctx, BatchRequest{ConversationIDs: []string{a.ID, missing, b.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, missing, res.Errors[0].ConversationID)

	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, models.BatchKindAnalysis, f.recorder.runs[0].Kind)
	assert.Equal(t, res.RunID, f.recorder.runs[0].RunID)

	// churn batch without ids picks analysed conversations only
	f.upload(t, CreateConversationInput{Transcript: "Customer: not analysed"})
	cres, err := f.churn.Batch(ctx, BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, cres.Requested)
	assert.Empty(t, cres.Errors)
}

func TestBatchSurvivesRecorderFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.recorder.err = errors.New("mongo down")
	c := f.upload(t, CreateConversationInput{Transcript: "Customer: hi"})

	res, err := f.analysis.AnalyzeBatch(context.Background(), BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, c.ID, res.Results[0].ConversationID)
}

func TestBatchRejectsOversizedIDList(t *testing.T) {
	f := newFixture(t, nil)
	ids := make([]string, 21)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	_, err := f.churn.Batch(context.Background(), BatchRequest{ConversationIDs: ids})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestHighRiskAndSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dur := 45.0
	risky := f.upload(t, CreateConversationInput{
		Transcript:      "Customer: this is terrible, awful, I will cancel and switch to a competitor. Still not working, frustrated and angry",
		DurationMinutes: &dur,
	})
	calm := f.upload(t, CreateConversationInput{Transcript: "Customer: thanks, that fixed it, great service"})
	for _, id := range []string{risky.ID, calm.ID} {
		_, err := f.analysis.Analyze(ctx, id)
		require.NoError(t, err)
	}

	dist, err := f.churn.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dist.Total)
	assert.Equal(t, int64(1), dist.Low)

	high, err := f.churn.HighRisk(ctx, 10)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, risky.ID, high[0].ID)
}

func TestTrendRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		d := base.AddDate(0, 0, i)
		c := f.upload(t, CreateConversationInput{Transcript: "Customer: good", AccountID: "acme", Date: &d})
		_, err := f.analysis.Analyze(ctx, c.ID)
		require.NoError(t, err)
	}

	first, err := f.trends.Recompute(ctx, TrendQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.GlobalAccount, first.AccountID)
	assert.Equal(t, 10, first.Days)

	_, err = f.trends.Recompute(ctx, TrendQuery{})
	require.NoError(t, err)
	_, err = f.trends.Recompute(ctx, TrendQuery{AccountID: "acme"})
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.db.Model(&models.DailyTrend{}).Where("account_id = ?", models.GlobalAccount).Count(&n).Error)
	assert.Equal(t, int64(10), n)

	series, err := f.trends.Series(ctx, TrendQuery{AccountID: "acme"})
	require.NoError(t, err)
	assert.Len(t, series, 10)
	assert.Equal(t, "2024-04-01", series[0].Date)

	fc, err := f.trends.Forecast(ctx, TrendQuery{}, 0)
	require.NoError(t, err)
	assert.Len(t, fc, 7)
	assert.Equal(t, "2024-04-11", fc[0].Date)

	an, err := f.trends.Anomalies(ctx, TrendQuery{})
	require.NoError(t, err)
	assert.Empty(t, an)

	in, err := f.trends.Insights(ctx, TrendQuery{}, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, in.DataPoints)
}

func TestTrendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.trends.Forecast(ctx, TrendQuery{}, 31)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	_, err = f.trends.Forecast(ctx, TrendQuery{}, -1)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	start := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = f.trends.Recompute(ctx, TrendQuery{StartDate: &start, EndDate: &end})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	in, err := f.trends.Insights(ctx, TrendQuery{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "insufficient_data", in.Trend)

	fc, err := f.trends.Forecast(ctx, TrendQuery{}, 7)
	require.NoError(t, err)
	assert.Empty(t, fc)
}

func TestBatchHistoryReadsRecordedRuns(t *testing.T) {
	f := newFixture(t, nil)
	f.upload(t, CreateConversationInput{Transcript: "Customer: thanks, all fixed"})
	ctx := context.Background()

	_, err := f.analysis.AnalyzeBatch(ctx, BatchRequest{})
	require.NoError(t, err)
	_, err = f.churn.Batch(ctx, BatchRequest{})
	require.NoError(t, err)

	svc := NewBatchHistoryService(f.recorder)
	runs, err := svc.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, models.BatchKindChurn, runs[0].Kind)

	runs, err = svc.Recent(ctx, "analysis", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Succeeded)

	_, err = svc.Recent(ctx, "bogus", 0)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	_, err = svc.Recent(ctx, "", -1)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestBatchHistoryWithoutStoreIsUnavailable(t *testing.T) {
	_, err := NewBatchHistoryService(nil).Recent(context.Background(), "", 0)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
