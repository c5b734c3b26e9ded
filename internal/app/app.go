// Package app builds the runtime components described by the configuration.
// Both binaries use it so the API service and the maintenance CLI see the
// same store, audio backend and providers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/botmr-be/internal/ai"
	"github.com/cuongbtq/botmr-be/internal/audio"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/cuongbtq/botmr-be/internal/storage"
	"github.com/cuongbtq/botmr-be/internal/storage/memstore"
	"github.com/cuongbtq/botmr-be/internal/storage/sqlstore"
	"github.com/cuongbtq/botmr-be/shared/database"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/cuongbtq/botmr-be/shared/rabbitmq"
)

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewLogger initializes and configures the application logger
func NewLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
	})
}

// OpenDatabase connects to the configured SQL database.
func OpenDatabase(cfg *config.DatabaseConfig, log *slog.Logger) (*database.Client, error) {
	return database.NewClient(&database.Config{
		Driver:          strings.ToLower(cfg.Driver),
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, log)
}

// OpenStore returns the repository backend selected by the database driver
// and a function releasing it. SQL schemas are migrated first when
// auto_migrate is set.
func OpenStore(ctx context.Context, cfg *config.DatabaseConfig, log *slog.Logger) (storage.Store, func() error, error) {
	if strings.ToLower(cfg.Driver) == config.DriverMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return memstore.New(), func() error { return nil }, nil
	}

	client, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := sqlstore.Migrate(ctx, client.GetDB().DB, client.Driver(), log); err != nil {
			client.Close()
			return nil, nil, err
		}
	}

	return sqlstore.New(client), client.Close, nil
}

// OpenAudioStore returns the configured chunk store.
func OpenAudioStore(ctx context.Context, cfg *config.AudioConfig) (audio.Store, error) {
	if cfg.Backend == config.AudioBackendS3 {
		return audio.NewS3Store(ctx, audio.S3Options{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Prefix:       cfg.S3.Prefix,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	}
	return audio.NewLocalStore(cfg.LocalDir)
}

// NewAIProviders returns the transcription and summary providers. A missing
// API key selects the offline mock for that provider.
func NewAIProviders(cfg *config.AIConfig, log *slog.Logger) (ai.Transcriber, ai.Summarizer) {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	var transcriber ai.Transcriber = ai.MockTranscriber{}
	if cfg.MistralAPIKey != "" {
		transcriber = ai.NewMistralTranscriber(cfg.MistralAPIKey, cfg.MistralBaseURL, cfg.TranscriptionModel, client)
	} else {
		log.Warn("No transcription API key configured, using mock transcriber")
	}

	var summarizer ai.Summarizer = ai.MockSummarizer{}
	if cfg.AnthropicAPIKey != "" {
		summarizer = ai.NewAnthropicSummarizer(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.SummaryModel, cfg.MaxTokens, client)
	} else {
		log.Warn("No summary API key configured, using mock summarizer")
	}

	return transcriber, summarizer
}

// NewRabbitMQ initializes the RabbitMQ client
func NewRabbitMQ(cfg *config.RabbitMQConfig, log *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		BindingKeys:        cfg.BindingKeys,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
	}, log)
}
