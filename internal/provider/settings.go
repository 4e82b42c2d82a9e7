package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sydlexius/melisma/internal/encryption"
)

// SettingsService stores provider API keys encrypted in the settings table.
type SettingsService struct {
	db        *sql.DB
	encryptor *encryption.Encryptor
}

// NewSettingsService creates a settings service.
func NewSettingsService(db *sql.DB, encryptor *encryption.Encryptor) *SettingsService {
	return &SettingsService{db: db, encryptor: encryptor}
}

func apiKeySettingKey(name ProviderName) string {
	return fmt.Sprintf("provider.%s.api_key", name)
}

type apiKeyOverrideContextKey ProviderName

// WithAPIKeyOverride returns a context carrying a one-off API key for the
// given provider, bypassing stored settings. Used by tests and the
// connection check in set-key.
func WithAPIKeyOverride(ctx context.Context, name ProviderName, key string) context.Context {
	return context.WithValue(ctx, apiKeyOverrideContextKey(name), key)
}

// GetAPIKey returns the decrypted API key for the given provider, or an
// empty string when none is stored.
func (s *SettingsService) GetAPIKey(ctx context.Context, name ProviderName) (string, error) {
	if v, ok := ctx.Value(apiKeyOverrideContextKey(name)).(string); ok && v != "" {
		return v, nil
	}

	var encrypted string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, apiKeySettingKey(name)).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading API key setting: %w", err)
	}

	key, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting API key: %w", err)
	}
	return key, nil
}

// SetAPIKey encrypts and stores the API key for the given provider.
func (s *SettingsService) SetAPIKey(ctx context.Context, name ProviderName, apiKey string) error {
	encrypted, err := s.encryptor.Encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("encrypting API key: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, apiKeySettingKey(name), encrypted, now)
	if err != nil {
		return fmt.Errorf("storing API key setting: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the stored API key for the given provider.
func (s *SettingsService) DeleteAPIKey(ctx context.Context, name ProviderName) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE key = ?`, apiKeySettingKey(name)); err != nil {
		return fmt.Errorf("deleting API key setting: %w", err)
	}
	return nil
}

// HasAPIKey reports whether an API key is stored for the given provider.
func (s *SettingsService) HasAPIKey(ctx context.Context, name ProviderName) (bool, error) {
	key, err := s.GetAPIKey(ctx, name)
	if err != nil {
		return false, err
	}
	return key != "", nil
}
