package dto

import "github.com/cuongbtq/botmr-be/internal/domain"

type SettingsRequest struct {
	OpenAIAPIKey        string `json:"openai_api_key"`
	PreferredLanguage   string `json:"preferred_language"`
	AutoDeleteDays      *int   `json:"auto_delete_days"`
	CloudSyncEnabled    bool   `json:"cloud_sync_enabled"`
	PrivacyMode         bool   `json:"privacy_mode"`
	EnableRedaction     bool   `json:"enable_redaction"`
	RetentionPolicyDays *int   `json:"retention_policy_days"`
}

func (r SettingsRequest) Settings() domain.UserSettings {
	return domain.UserSettings{
		OpenAIAPIKey:        r.OpenAIAPIKey,
		PreferredLanguage:   r.PreferredLanguage,
		AutoDeleteDays:      r.AutoDeleteDays,
		CloudSyncEnabled:    r.CloudSyncEnabled,
		PrivacyMode:         r.PrivacyMode,
		EnableRedaction:     r.EnableRedaction,
		RetentionPolicyDays: r.RetentionPolicyDays,
	}
}

type SettingsPatchRequest struct {
	OpenAIAPIKey        *string `json:"openai_api_key"`
	PreferredLanguage   *string `json:"preferred_language"`
	AutoDeleteDays      *int    `json:"auto_delete_days"`
	CloudSyncEnabled    *bool   `json:"cloud_sync_enabled"`
	PrivacyMode         *bool   `json:"privacy_mode"`
	EnableRedaction     *bool   `json:"enable_redaction"`
	RetentionPolicyDays *int    `json:"retention_policy_days"`
}

func (r SettingsPatchRequest) Patch() domain.SettingsPatch {
	return domain.SettingsPatch{
		OpenAIAPIKey:        r.OpenAIAPIKey,
		PreferredLanguage:   r.PreferredLanguage,
		AutoDeleteDays:      r.AutoDeleteDays,
		CloudSyncEnabled:    r.CloudSyncEnabled,
		PrivacyMode:         r.PrivacyMode,
		EnableRedaction:     r.EnableRedaction,
		RetentionPolicyDays: r.RetentionPolicyDays,
	}
}
