package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/cache"
	"github.com/yoockh/convolens/internal/metrics"
	"github.com/yoockh/convolens/internal/services"
	"github.com/yoockh/convolens/internal/utils"
)

const (
	DefaultStream = "analysis:stream"
	DefaultGroup  = "analysis-workers"

	pendingTTL = 10 * time.Minute
)

// PendingKey marks a conversation that is queued but not yet analysed.
func PendingKey(conversationID string) string {
	return "analysis:pending:" + conversationID
}

// StreamQueue enqueues conversations on a Redis stream for AnalysisWorkerPool.
// With Claims set, a conversation already waiting in the stream is not added
// again.
type StreamQueue struct {
	Redis  *redis.Client
	Stream string
	Claims cache.Claims
}

func NewStreamQueue(rdb *redis.Client, stream string) *StreamQueue {
	if stream == "" {
		stream = DefaultStream
	}
	q := &StreamQueue{Redis: rdb, Stream: stream}
	if rdb != nil {
		q.Claims = cache.NewRedisClaims(rdb)
	}
	return q
}

func (q *StreamQueue) Enqueue(ctx context.Context, conversationID string) error {
	if q.Claims != nil {
		ok, err := q.Claims.Claim(ctx, PendingKey(conversationID), pendingTTL)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	err := q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{
			"conversation_id": conversationID,
			"ts_unix":         strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
	if err != nil && q.Claims != nil {
		// nothing reached the stream, so a retry must be able to claim again
		_ = q.Claims.Release(ctx, PendingKey(conversationID))
	}
	return err
}

// AnalysisWorkerPool consumes the analysis stream through a consumer group and
// runs the full analysis for each queued conversation.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Analysis   services.AnalysisService
	NumWorkers int

	Logger *logrus.Logger
	// Claims, when set, releases the pending mark of each handled job.
	Claims cache.Claims

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Analysis == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Analysis must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 1
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{
		"stream":    p.Stream,
		"group":     p.Group,
		"consumers": p.NumWorkers,
	}).Info("analysis workers started")
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// handleMsg never returns an error: failures are logged, counted and
// published by the analysis service, and the message is acked either way.
func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	conversationID, _ := msg.Values["conversation_id"].(string)
	if conversationID == "" {
		metrics.JobsProcessed.WithLabelValues("invalid").Inc()
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":        msg.ID,
		"conversation_id": conversationID,
	})
	if p.Claims != nil {
		defer func() {
			if err := p.Claims.Release(ctx, PendingKey(conversationID)); err != nil {
				log.WithError(err).Warn("failed to release pending mark")
			}
		}()
	}

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := p.Analysis.Analyze(jobCtx, conversationID); err != nil {
		outcome := "failed"
		if utils.IsCode(err, utils.CodeNotFound) {
			outcome = "not_found"
		}
		metrics.JobsProcessed.WithLabelValues(outcome).Inc()
		log.WithError(err).Error("analysis job failed")
		return
	}
	metrics.JobsProcessed.WithLabelValues("ok").Inc()
	log.Debug("analysis job done")
}
