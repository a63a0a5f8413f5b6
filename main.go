package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialfeed/config"
	"socialfeed/cron"
	"socialfeed/database"
	followRepoPkg "socialfeed/database/repository/follow"
	postRepoPkg "socialfeed/database/repository/post"
	userRepoPkg "socialfeed/database/repository/user"
	"socialfeed/handlers"
	"socialfeed/middleware"
	"socialfeed/models"
	"socialfeed/routes"
	"socialfeed/services/activity"
	"socialfeed/services/bloom"
	"socialfeed/services/events"
	"socialfeed/services/feed"
	"socialfeed/services/ranking"
	"socialfeed/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const trendingWindow = 72 * time.Hour

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func activityConfig(c config.Config) activity.Config {
	return activity.Config{
		HighPostsPerHour:   c.ActivityHighPostsPerHour,
		MediumPostsPerHour: c.ActivityMediumPostsPerHour,
		LowPostsPerHour:    c.ActivityLowPostsPerHour,
		DormantAfter:       time.Duration(c.ActivityDormantHours * float64(time.Hour)),
		MetricsTTL:         seconds(c.ActivityMetricsTTLSeconds),
		TTLHigh:            seconds(c.TTLHighSeconds),
		TTLMedium:          seconds(c.TTLMediumSeconds),
		TTLLow:             seconds(c.TTLLowSeconds),
		TTLDormant:         seconds(c.TTLDormantSeconds),
	}
}

// startEventBus wires the configured event backend and its consumers.
// The returned function releases everything it started.
func startEventBus(ctx context.Context, handlersByType map[string]events.HandlerFunc, logger *zap.Logger) (*events.Bus, func()) {
	if config.AppConfig.EventBackend == "memory" {
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewStdLogger(false, false))
		for eventType, fn := range handlersByType {
			if err := events.Consume(ctx, pubSub, eventType, fn, logger); err != nil {
				logger.Fatal("main: failed to subscribe", zap.String("type", eventType), zap.Error(err))
			}
		}
		bus := events.NewBus(events.NewWatermillSink(pubSub), 0, logger)
		bus.Start()
		return bus, func() {
			bus.Close()
			_ = pubSub.Close()
		}
	}

	client := asynq.NewClient(cron.QueueRedisOpt())
	worker := cron.InitEventWorker(ctx, handlersByType, logger)
	bus := events.NewBus(events.NewAsynqSink(client), 0, logger)
	bus.Start()
	return bus, func() {
		bus.Close()
		worker.Shutdown()
		_ = client.Close()
	}
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	database.InitDB()
	utils.InitRedis()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	db := database.Database()
	userRepo := userRepoPkg.NewMongoUserRepo(db)
	followRepo := followRepoPkg.NewMongoFollowRepo(db)
	postRepo := postRepoPkg.NewMongoPostRepo(db)

	// redis-backed stores.
	cacheClient := utils.GetCacheClient()
	feedClient := utils.GetFeedCacheClient()
	store := feed.NewStore(feedClient, seconds(config.AppConfig.ForYouFeedTTLSeconds), logger)
	filter := bloom.NewFilter(feedClient, logger)

	tracker, err := activity.NewTracker(cacheClient, store, activityConfig(config.AppConfig), clock.New(), logger)
	if err != nil {
		logger.Fatal("main: invalid activity configuration", zap.Error(err))
	}

	// events.
	seeder := feed.NewColdStartSeeder(store, logger)
	bus, closeBus := startEventBus(ctx, map[string]events.HandlerFunc{
		models.EventColdStartFeedGenerated: seeder.HandleColdStart,
		models.EventPostPublished:          cron.LogPostPublished(logger),
	}, logger)

	// services.
	opts := ranking.DefaultOptions()
	opts.FollowingCacheTTL = seconds(config.AppConfig.FollowingCacheTTLSeconds)
	rankingService := ranking.NewService(ranking.Deps{
		Users:     userRepo,
		Tags:      userRepo,
		Graph:     followRepo,
		Ranked:    postRepo,
		Feeds:     store,
		Cache:     cacheClient,
		Publisher: bus,
		Activity:  tracker,
	}, opts, logger)
	seenService := ranking.NewSeenService(filter, ranking.DefaultSeenOptions)

	// background jobs.
	aggregator := feed.NewTrendingAggregator(postRepo, store, tracker.CalculateDynamicTTL, trendingWindow, logger)
	go feed.StartTrendingCron(ctx, aggregator, time.Duration(config.AppConfig.TrendingRefreshMinutes)*time.Minute)
	utils.StartHealthMonitor(ctx, []*redis.Client{cacheClient, feedClient}, database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		Feeds:    rankingService,
		Seen:     seenService,
		Activity: tracker,
	})

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	stop()
	closeBus()
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}
	_ = cacheClient.Close()
	_ = feedClient.Close()

	logger.Sugar().Info("main: server stopped gracefully")
}
