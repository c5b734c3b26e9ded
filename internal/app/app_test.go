package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cuongbtq/botmr-be/internal/ai"
	"github.com/cuongbtq/botmr-be/internal/audio"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/cuongbtq/botmr-be/internal/storage/memstore"
	"github.com/cuongbtq/botmr-be/internal/storage/sqlstore"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		wantSQL bool
	}{
		{"memory", config.DatabaseConfig{Driver: config.DriverMemory}, false},
		{"sqlite with migrations", config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			Path:        filepath.Join(t.TempDir(), "botmr.db"),
			AutoMigrate: true,
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := OpenStore(ctx, &tt.cfg, logger.NewNop())
			require.NoError(t, err)
			defer closeFn()

			_, isSQL := store.(*sqlstore.Store)
			assert.Equal(t, tt.wantSQL, isSQL)
			require.NoError(t, store.Ping(ctx))

			us, err := service.NewSettingsService(store, nil, logger.NewNop()).GetSettings(ctx)
			require.NoError(t, err)
			assert.Equal(t, "en", us.PreferredLanguage)
		})
	}
}

func TestOpenAudioStore_Local(t *testing.T) {
	store, err := OpenAudioStore(context.Background(), &config.AudioConfig{
		Backend:  config.AudioBackendLocal,
		LocalDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.IsType(t, &audio.LocalStore{}, store)
}

func TestNewAIProviders(t *testing.T) {
	transcriber, summarizer := NewAIProviders(&config.AIConfig{}, logger.NewNop())
	assert.IsType(t, ai.MockTranscriber{}, transcriber)
	assert.IsType(t, ai.MockSummarizer{}, summarizer)

	transcriber, summarizer = NewAIProviders(&config.AIConfig{
		MistralAPIKey:   "m-key",
		AnthropicAPIKey: "a-key",
	}, logger.NewNop())
	assert.IsType(t, &ai.MistralTranscriber{}, transcriber)
	assert.IsType(t, &ai.AnthropicSummarizer{}, summarizer)
}

func TestNewServices(t *testing.T) {
	svcs := NewServices(ServiceDeps{
		Store:  memstore.New(),
		Logger: logger.NewNop(),
	})

	require.NotNil(t, svcs.Recordings)
	require.NotNil(t, svcs.Meetings)

	task, err := svcs.Tasks.CreateTask(context.Background(), service.CreateTaskInput{MeetingID: "m1", Title: "Follow up"})
	require.NoError(t, err)
	assert.Equal(t, "m1", task.MeetingID)
}
