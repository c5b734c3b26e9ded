package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/storage"
)

// SettingsCache is the optional read-through cache in front of settings.
type SettingsCache interface {
	Get(ctx context.Context) (*domain.UserSettings, bool)
	Set(ctx context.Context, us *domain.UserSettings)
	Invalidate(ctx context.Context)
}

type SettingsService struct {
	repo   storage.SettingsRepository
	cache  SettingsCache
	logger *slog.Logger
}

// NewSettingsService builds the service. cache may be nil.
func NewSettingsService(repo storage.SettingsRepository, cache SettingsCache, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, logger: logger}
}

// GetSettings returns the stored settings, or the defaults when nothing has
// been saved.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	if s.cache != nil {
		if us, ok := s.cache.Get(ctx); ok {
			return us, nil
		}
	}

	us, err := s.load(ctx)
	if err != nil {
		return nil, domain.WrapService("failed to get settings", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, us)
	}
	return us, nil
}

func (s *SettingsService) load(ctx context.Context) (*domain.UserSettings, error) {
	us, err := s.repo.GetSettings(ctx)
	if domain.IsKind(err, domain.KindNotFound) {
		def := domain.DefaultSettings()
		return &def, nil
	}
	return us, err
}

// ReplaceSettings overwrites the whole document.
func (s *SettingsService) ReplaceSettings(ctx context.Context, us domain.UserSettings) (*domain.UserSettings, error) {
	if strings.TrimSpace(us.PreferredLanguage) == "" {
		us.PreferredLanguage = domain.DefaultSettings().PreferredLanguage
	}
	if err := validateSettings(&us); err != nil {
		return nil, err
	}
	us.ID = domain.SettingsID

	if err := s.save(ctx, &us); err != nil {
		return nil, domain.WrapService("failed to update settings", err)
	}
	s.logger.Info("Settings updated")
	return &us, nil
}

// PatchSettings changes only the provided fields. An empty patch returns
// the current settings.
func (s *SettingsService) PatchSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.UserSettings, error) {
	us, err := s.load(ctx)
	if err != nil {
		return nil, domain.WrapService("failed to patch settings", err)
	}
	if patch == (domain.SettingsPatch{}) {
		return us, nil
	}

	patch.ApplyTo(us)
	if err := validateSettings(us); err != nil {
		return nil, err
	}
	if err := s.save(ctx, us); err != nil {
		return nil, domain.WrapService("failed to patch settings", err)
	}
	s.logger.Info("Settings patched")
	return us, nil
}

func (s *SettingsService) save(ctx context.Context, us *domain.UserSettings) error {
	if err := s.repo.SaveSettings(ctx, us); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

func validateSettings(us *domain.UserSettings) error {
	if strings.TrimSpace(us.PreferredLanguage) == "" {
		return domain.NewValidationError("preferred_language cannot be empty")
	}
	if us.AutoDeleteDays != nil && *us.AutoDeleteDays < 1 {
		return domain.NewValidationError("auto_delete_days must be at least 1")
	}
	if us.RetentionPolicyDays != nil && *us.RetentionPolicyDays < 1 {
		return domain.NewValidationError("retention_policy_days must be at least 1")
	}
	return nil
}
