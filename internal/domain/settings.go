package domain

// SettingsID is the key of the single settings document.
const SettingsID = "default"

// UserSettings holds user preferences. There is exactly one document.
type UserSettings struct {
	ID                  string `db:"id" json:"id"`
	OpenAIAPIKey        string `db:"openai_api_key" json:"openai_api_key,omitempty"`
	PreferredLanguage   string `db:"preferred_language" json:"preferred_language"`
	AutoDeleteDays      *int   `db:"auto_delete_days" json:"auto_delete_days"`
	CloudSyncEnabled    bool   `db:"cloud_sync_enabled" json:"cloud_sync_enabled"`
	PrivacyMode         bool   `db:"privacy_mode" json:"privacy_mode"`
	EnableRedaction     bool   `db:"enable_redaction" json:"enable_redaction"`
	RetentionPolicyDays *int   `db:"retention_policy_days" json:"retention_policy_days"`
}

// DefaultSettings returns the settings used before anything is stored.
func DefaultSettings() UserSettings {
	retention := 30
	return UserSettings{
		ID:                  SettingsID,
		PreferredLanguage:   "en",
		CloudSyncEnabled:    true,
		RetentionPolicyDays: &retention,
	}
}

// SettingsPatch carries the fields of a partial update. Nil means unchanged.
type SettingsPatch struct {
	OpenAIAPIKey        *string
	PreferredLanguage   *string
	AutoDeleteDays      *int
	CloudSyncEnabled    *bool
	PrivacyMode         *bool
	EnableRedaction     *bool
	RetentionPolicyDays *int
}

func (p SettingsPatch) ApplyTo(s *UserSettings) {
	if p.OpenAIAPIKey != nil {
		s.OpenAIAPIKey = *p.OpenAIAPIKey
	}
	if p.PreferredLanguage != nil {
		s.PreferredLanguage = *p.PreferredLanguage
	}
	if p.AutoDeleteDays != nil {
		v := *p.AutoDeleteDays
		s.AutoDeleteDays = &v
	}
	if p.CloudSyncEnabled != nil {
		s.CloudSyncEnabled = *p.CloudSyncEnabled
	}
	if p.PrivacyMode != nil {
		s.PrivacyMode = *p.PrivacyMode
	}
	if p.EnableRedaction != nil {
		s.EnableRedaction = *p.EnableRedaction
	}
	if p.RetentionPolicyDays != nil {
		v := *p.RetentionPolicyDays
		s.RetentionPolicyDays = &v
	}
}
