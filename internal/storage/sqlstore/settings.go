package sqlstore

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

func (s *Store) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	var us domain.UserSettings
	query := s.rebind(`
		SELECT id, openai_api_key, preferred_language, auto_delete_days,
		       cloud_sync_enabled, privacy_mode, enable_redaction, retention_policy_days
		FROM user_settings
		WHERE id = ?
	`)

	if err := s.db.GetContext(ctx, &us, query, domain.SettingsID); err != nil {
		return nil, notFoundOr(err, "failed to get settings", "settings not found")
	}
	return &us, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, us *domain.UserSettings) error {
	us.ID = domain.SettingsID
	query := `
		INSERT INTO user_settings (
			id, openai_api_key, preferred_language, auto_delete_days,
			cloud_sync_enabled, privacy_mode, enable_redaction, retention_policy_days
		) VALUES (
			:id, :openai_api_key, :preferred_language, :auto_delete_days,
			:cloud_sync_enabled, :privacy_mode, :enable_redaction, :retention_policy_days
		)
		ON CONFLICT (id) DO UPDATE SET
			openai_api_key = excluded.openai_api_key,
			preferred_language = excluded.preferred_language,
			auto_delete_days = excluded.auto_delete_days,
			cloud_sync_enabled = excluded.cloud_sync_enabled,
			privacy_mode = excluded.privacy_mode,
			enable_redaction = excluded.enable_redaction,
			retention_policy_days = excluded.retention_policy_days
	`

	if _, err := s.db.NamedExecContext(ctx, query, us); err != nil {
		return domain.NewStorageError("failed to save settings", err)
	}
	return nil
}
