package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory keeps everything in process memory
	DriverMemory = "memory"
)

// Audio store backends
const (
	AudioBackendLocal = "local"
	AudioBackendS3    = "s3"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Worker    WorkerConfig    `yaml:"worker"`
	Recording RecordingConfig `yaml:"recording"`
	Audio     AudioConfig     `yaml:"audio"`
	AI        AIConfig        `yaml:"ai"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig holds SQL connection configuration. Driver selects
// between PostgreSQL and an embedded SQLite file.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	User        string           `yaml:"user"`
	Password    string           `yaml:"password"`
	VHost       string           `yaml:"vhost"`
	Exchange    ExchangeConfig   `yaml:"exchange"`
	Queue       QueueConfig      `yaml:"queue"`
	BindingKeys []string         `yaml:"binding_keys"`
	Connection  ConnectionConfig `yaml:"connection"`
	Publish     PublishConfig    `yaml:"publish"`
	Consumer    ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds the queue relayed into the job queue
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	Tag           string `yaml:"tag"`
	PrefetchCount int    `yaml:"prefetch_count"`
}

// RedisConfig holds the settings cache connection
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
	NoColor      bool   `yaml:"no_color"`
}

// WorkerConfig holds job queue configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	MaxRetries      int           `yaml:"max_retries"`
	BackoffUnit     time.Duration `yaml:"backoff_unit"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	MaxPending      int           `yaml:"max_pending"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RecordingConfig holds recording session policy
type RecordingConfig struct {
	RetentionDays     int           `yaml:"retention_days"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout"`
	CleanupSchedule   string        `yaml:"cleanup_schedule"`
	ExpirySchedule    string        `yaml:"expiry_schedule"`
	UploadPathPrefix  string        `yaml:"upload_path_prefix"`
	MaxChunkSize      int64         `yaml:"max_chunk_size"`
	AllowedAudioTypes []string      `yaml:"allowed_audio_types"`
}

// AudioConfig selects where uploaded chunks are stored
type AudioConfig struct {
	Backend  string   `yaml:"backend"`
	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config holds S3 bucket settings for the audio store
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Prefix       string `yaml:"prefix"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// AIConfig holds transcription and summarization provider settings. An
// empty API key selects the offline mock provider.
type AIConfig struct {
	MistralAPIKey      string        `yaml:"mistral_api_key"`
	MistralBaseURL     string        `yaml:"mistral_base_url"`
	TranscriptionModel string        `yaml:"transcription_model"`
	AnthropicAPIKey    string        `yaml:"anthropic_api_key"`
	AnthropicBaseURL   string        `yaml:"anthropic_base_url"`
	SummaryModel       string        `yaml:"summary_model"`
	MaxTokens          int           `yaml:"max_tokens"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
}

// Load reads and parses the configuration file, then applies defaults and
// environment overrides.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "botmr-api"
	}
	if c.App.Version == "" {
		c.App.Version = "1.0.0"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "botmr"
	}

	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Worker.BackoffUnit == 0 {
		c.Worker.BackoffUnit = time.Second
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = time.Second
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}

	if c.Recording.RetentionDays == 0 {
		c.Recording.RetentionDays = 30
	}
	if c.Recording.HeartbeatTimeout == 0 {
		c.Recording.HeartbeatTimeout = 5 * time.Minute
	}
	if c.Recording.CleanupSchedule == "" {
		c.Recording.CleanupSchedule = "0 0 3 * * *"
	}
	if c.Recording.ExpirySchedule == "" {
		c.Recording.ExpirySchedule = "0 * * * * *"
	}
	if c.Recording.UploadPathPrefix == "" {
		c.Recording.UploadPathPrefix = "/api/v1/recordings"
	}
	if c.Recording.MaxChunkSize == 0 {
		c.Recording.MaxChunkSize = 25 << 20
	}
	if len(c.Recording.AllowedAudioTypes) == 0 {
		c.Recording.AllowedAudioTypes = []string{
			"audio/webm", "audio/wav", "audio/x-wav", "audio/mpeg",
			"audio/mp4", "audio/ogg", "application/octet-stream",
		}
	}

	if c.Audio.Backend == "" {
		c.Audio.Backend = AudioBackendLocal
	}
	if c.Audio.LocalDir == "" {
		c.Audio.LocalDir = "data/audio"
	}

	if c.AI.MistralBaseURL == "" {
		c.AI.MistralBaseURL = "https://api.mistral.ai"
	}
	if c.AI.TranscriptionModel == "" {
		c.AI.TranscriptionModel = "voxtral-mini-latest"
	}
	if c.AI.AnthropicBaseURL == "" {
		c.AI.AnthropicBaseURL = "https://api.anthropic.com"
	}
	if c.AI.SummaryModel == "" {
		c.AI.SummaryModel = "claude-haiku-4-5"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}
	if c.AI.RequestTimeout == 0 {
		c.AI.RequestTimeout = 2 * time.Minute
	}
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"BOTMR_DATABASE_PASSWORD", &c.Database.Password},
		{"BOTMR_RABBITMQ_PASSWORD", &c.RabbitMQ.Password},
		{"BOTMR_REDIS_PASSWORD", &c.Redis.Password},
		{"BOTMR_MISTRAL_API_KEY", &c.AI.MistralAPIKey},
		{"BOTMR_ANTHROPIC_API_KEY", &c.AI.AnthropicAPIKey},
		{"BOTMR_S3_BUCKET", &c.Audio.S3.Bucket},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.Database.validate(); err != nil {
		return err
	}

	if c.RabbitMQ.Enabled {
		if err := c.RabbitMQ.validate(); err != nil {
			return err
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	if err := c.ValidateWorkerConfig(); err != nil {
		return err
	}

	switch c.Audio.Backend {
	case AudioBackendLocal, "":
	case AudioBackendS3:
		if c.Audio.S3.Bucket == "" {
			return fmt.Errorf("audio s3 bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown audio backend: %q", c.Audio.Backend)
	}

	if c.Recording.RetentionDays < 0 {
		return fmt.Errorf("recording retention_days must not be negative")
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	switch strings.ToLower(d.Driver) {
	case DriverMemory:
		return nil
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
		return nil
	case DriverPostgres, "":
	default:
		return fmt.Errorf("unsupported database driver: %q", d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if d.Port < MinPort || d.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", d.Port, MinPort, MaxPort)
	}

	if d.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (r *RabbitMQConfig) validate() error {
	if r.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if r.Port < MinPort || r.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", r.Port, MinPort, MaxPort)
	}

	if r.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if r.Queue.Name != "" && len(r.BindingKeys) == 0 {
		return fmt.Errorf("rabbitmq binding_keys are required when a queue is configured")
	}

	return nil
}

// ValidateWorkerConfig checks the job queue settings
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.BackoffUnit <= 0 {
		return fmt.Errorf("worker backoff_unit must be greater than 0")
	}

	if c.Worker.JobTimeout < 0 {
		return fmt.Errorf("worker job_timeout must not be negative")
	}

	if c.Worker.MaxPending < 0 {
		return fmt.Errorf("worker max_pending must not be negative")
	}

	return nil
}
