package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cuongbtq/botmr-be/internal/api/handler"
	"github.com/cuongbtq/botmr-be/internal/api/router"
	"github.com/cuongbtq/botmr-be/internal/app"
	"github.com/cuongbtq/botmr-be/internal/cache"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/cuongbtq/botmr-be/internal/events"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/cuongbtq/botmr-be/internal/worker"
	wdomain "github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/cuongbtq/botmr-be/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	appLogger, err := app.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	logger := appLogger.Logger

	logger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("Store ready", slog.String("driver", cfg.Database.Driver))

	audioStore, err := app.OpenAudioStore(ctx, &cfg.Audio)
	if err != nil {
		return fmt.Errorf("failed to initialize audio store: %w", err)
	}

	transcriber, summarizer := app.NewAIProviders(&cfg.AI, logger)

	// Background loops share one context canceled at shutdown
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	var bg sync.WaitGroup
	goBackground := func(fn func()) {
		bg.Add(1)
		go func() {
			defer bg.Done()
			fn()
		}()
	}

	bus := events.NewBus(appLogger.Component("events"))
	hub := events.NewHub(appLogger.Component("websocket"), cfg.Server.CORSOrigins)
	bus.AddSink(hub)

	var rabbitClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err = app.NewRabbitMQ(&cfg.RabbitMQ, appLogger.Component("rabbitmq"))
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()
		bus.AddSink(events.NewAMQPSink(rabbitClient))
		logger.Info("RabbitMQ connection established")
	}

	var settingsCache service.SettingsCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		settingsCache = newSettingsCache(redisClient, cfg, appLogger.Component("cache"))
		logger.Info("Redis settings cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	queue := worker.New(worker.Config{
		Logger:       appLogger.Component("worker"),
		MaxRetries:   cfg.Worker.MaxRetries,
		BackoffUnit:  cfg.Worker.BackoffUnit,
		PollInterval: cfg.Worker.PollInterval,
		JobTimeout:   cfg.Worker.JobTimeout,
		MaxPending:   cfg.Worker.MaxPending,
	})

	svcs := app.NewServices(app.ServiceDeps{
		Store:       store,
		Audio:       audioStore,
		Queue:       queue,
		Transcriber: transcriber,
		Summarizer:  summarizer,
		Events:      bus,
		Cache:       settingsCache,
		Recording:   cfg.Recording,
		Logger:      logger,
	})

	queue.RegisterHandler(wdomain.TopicMeetingProcess, worker.Typed(svcs.Meetings.HandleProcessJob))
	queue.AddObserver(svcs.Meetings.ObserveJob)
	queue.AddObserver(events.JobObserver(bus))

	goBackground(func() { bus.Run(bgCtx) })
	goBackground(func() { hub.Run(bgCtx) })

	if err := queue.StartWorkers(bgCtx, cfg.Worker.Concurrency); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	if rabbitClient != nil && cfg.RabbitMQ.Queue.Name != "" {
		relay := worker.NewRelay(queue, rabbitClient, appLogger.Component("relay"), cfg.RabbitMQ.Consumer.Tag)
		goBackground(func() {
			if err := relay.Run(bgCtx); err != nil {
				logger.Error("Job relay stopped", slog.Any("error", err))
			}
		})
	}

	scheduler, err := newScheduler(cfg, svcs.Recordings, appLogger.Component("scheduler"))
	if err != nil {
		return err
	}
	scheduler.Start()

	var broker handler.BrokerStatus
	if rabbitClient != nil {
		broker = rabbitClient
	}
	r := initRouter(cfg, logger, svcs, queue, store, broker, hub)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("API service is running",
		slog.String("address", addr),
		slog.Int("workers", cfg.Worker.Concurrency),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		logger.Error("Server failed", slog.Any("error", err))
		return err
	}

	// Tear down in reverse order of construction
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	<-scheduler.Stop().Done()

	stopWorkers(queue, cfg.Worker.ShutdownTimeout, logger)

	cancelBg()
	bg.Wait()

	logger.Info("Server shutdown complete")
	return nil
}

func newSettingsCache(client *redis.Client, cfg *config.Config, logger *slog.Logger) service.SettingsCache {
	return cache.NewSettingsCache(client, cfg.Redis.Prefix, cfg.Redis.TTL, logger)
}

// newScheduler registers the recording maintenance sweeps. Schedules use
// six fields, seconds first.
func newScheduler(cfg *config.Config, recordings *service.RecordingService, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(cfg.Recording.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deleted, err := recordings.CleanupOldSessions(ctx, cfg.Recording.RetentionDays)
		if err != nil {
			logger.Error("Session cleanup failed", slog.Any("error", err))
			return
		}
		logger.Info("Session cleanup finished", slog.Int64("deleted", deleted))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Recording.CleanupSchedule, err)
	}

	_, err = c.AddFunc(cfg.Recording.ExpirySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		expired, err := recordings.ExpireStaleSessions(ctx)
		if err != nil {
			logger.Error("Session expiry failed", slog.Any("error", err))
			return
		}
		if expired > 0 {
			logger.Info("Stale sessions expired", slog.Int("expired", expired))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", cfg.Recording.ExpirySchedule, err)
	}

	return c, nil
}

// stopWorkers waits for in-flight jobs up to timeout.
func stopWorkers(queue *worker.JobQueue, timeout time.Duration, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		queue.StopWorkers()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Workers stopped gracefully")
	case <-time.After(timeout):
		logger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, svcs *app.Services, queue *worker.JobQueue, store handler.Pinger, broker handler.BrokerStatus, hub http.Handler) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	deps := &handler.Dependencies{
		Logger:     logger.With(slog.String("component", "http")),
		Recordings: svcs.Recordings,
		Meetings:   svcs.Meetings,
		Tasks:      svcs.Tasks,
		Messages:   svcs.Messages,
		Settings:   svcs.Settings,
		Jobs:       queue,
		Store:      store,
		Broker:     broker,
		Events:     hub,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
		// multipart framing on top of the largest accepted chunk
		MaxUploadSize: cfg.Recording.MaxChunkSize + 1<<20,
	}

	return router.SetupRouter(deps, cfg.Server.CORSOrigins)
}
