package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/convolens/config"
	"github.com/yoockh/convolens/internal/api/handlers"
	"github.com/yoockh/convolens/internal/api/middleware"
	"github.com/yoockh/convolens/internal/api/routes"
	"github.com/yoockh/convolens/internal/events"
	"github.com/yoockh/convolens/internal/logger"
	"github.com/yoockh/convolens/internal/metrics"
	mongorepo "github.com/yoockh/convolens/internal/repositories/mongo"
	sqlrepo "github.com/yoockh/convolens/internal/repositories/sqldb"
	"github.com/yoockh/convolens/internal/services"
	"github.com/yoockh/convolens/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("").WithError(err).Fatal("config load error")
	}
	log := logger.New(cfg.LogLevel)

	if err := config.InitDatabase(cfg.Database, log); err != nil {
		log.WithError(err).Fatal("database init error")
	}
	if err := sqlrepo.AutoMigrate(config.DB); err != nil {
		log.WithError(err).Fatal("database migrate error")
	}
	log.WithField("driver", cfg.Database.Driver).Info("database connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional stores: each one switches on a feature when configured.
	var recorder services.BatchRecorder
	var history services.BatchHistory
	if cfg.Mongo.URI != "" {
		if err := config.InitMongo(cfg.Mongo.URI); err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		if err := config.EnsureMongoIndexes(cfg.Mongo.DB); err != nil {
			log.WithError(err).Warn("MongoDB index setup failed")
		}
		runs := mongorepo.NewBatchRunRepo(config.MongoClient.Database(cfg.Mongo.DB))
		recorder, history = runs, runs
		log.Info("MongoDB connected")
	}

	var pubs events.Multi
	var queue *workers.StreamQueue
	if cfg.Redis.Addr != "" {
		if err := config.InitRedis(cfg.Redis.Addr); err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		pubs = append(pubs, events.NewRedisPublisher(config.RedisClient, cfg.Redis.EventsChannel))
		queue = workers.NewStreamQueue(config.RedisClient, cfg.Redis.Stream)
		log.Info("Redis connected")
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pubs = append(pubs, events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ChurnTopic))
		log.WithField("topic", cfg.Kafka.ChurnTopic).Info("Kafka publisher enabled")
	}
	var pub events.Publisher = events.Nop{}
	if len(pubs) > 0 {
		pub = pubs
	}
	defer pub.Close()

	convRepo := sqlrepo.NewConversationRepo(config.DB)
	anRepo := sqlrepo.NewAnalysisRepo(config.DB)
	trendRepo := sqlrepo.NewTrendRepo(config.DB)

	limits := services.BatchLimits{Default: cfg.Batch.DefaultLimit, Max: cfg.Batch.MaxLimit}
	churnSvc := services.NewChurnService(convRepo, anRepo, cfg.Churn, pub, recorder, limits, log)
	analysisSvc := services.NewAnalysisService(convRepo, anRepo, churnSvc, pub, recorder, limits, log)
	var analysisQueue services.AnalysisQueue
	if queue != nil {
		analysisQueue = queue
	}
	convSvc := services.NewConversationService(convRepo, analysisSvc, analysisQueue, log)
	trendSvc := services.NewTrendService(trendRepo, services.ForecastLimits{
		DefaultDays: cfg.Trends.DefaultForecastDays,
		MaxDays:     cfg.Trends.MaxForecastDays,
	}, log)

	if config.RedisClient != nil {
		pool := &workers.AnalysisWorkerPool{
			Redis:      config.RedisClient,
			Analysis:   analysisSvc,
			NumWorkers: cfg.Worker.Consumers,
			Logger:     log,
			Claims:     queue.Claims,
			Stream:     cfg.Redis.Stream,
			Group:      cfg.Worker.Group,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("worker start error")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.Server.CORSOrigins),
		metrics.GinMiddleware(),
	)
	routes.RegisterRoutes(r, routes.Deps{
		Conversation: handlers.NewConversationHandler(convSvc, analysisSvc),
		Analysis:     handlers.NewAnalysisHandler(analysisSvc),
		Churn:        handlers.NewChurnHandler(churnSvc),
		Trend:        handlers.NewTrendHandler(trendSvc),
		Batch:        handlers.NewBatchHandler(services.NewBatchHistoryService(history)),
		WS:           handlers.NewWSHandler(config.RedisClient, cfg.Redis.EventsChannel, nil, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Server.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	shutdown(srv, log)
}

func shutdown(srv *http.Server, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown error")
	}
	if config.MongoClient != nil {
		_ = config.MongoClient.Disconnect(ctx)
	}
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	log.Info("server stopped")
}
