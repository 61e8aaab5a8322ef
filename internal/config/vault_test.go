package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "int value", input: 7, expected: 7},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKV2(t *testing.T) {
	secret, err := parseKV2(map[string]any{
		"data":     map[string]any{"api_key": "abc"},
		"metadata": map[string]any{"version": float64(3)},
	}, "secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, "abc", secret.Data["api_key"])
	assert.Equal(t, int64(3), secret.Version)

	_, err = parseKV2(map[string]any{"api_key": "abc"}, "secret/gemini")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = parseKV2(map[string]any{"data": map[string]any{}}, "secret/gemini")
	assert.ErrorContains(t, err, "missing 'metadata' field")
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		assert.ErrorContains(t, err, "failed to read vault token file")
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeConfig))
	})

	t.Run("empty token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("   \n  \n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

type fakeSecrets struct {
	strings map[string]string
	err     error
}

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.strings[path+"#"+key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	return v, nil
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	v, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(v), nil
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{Quiz: OperationAIConfig{APIKey: "quiz-specific"}},
		Vault: VaultConfig{Secrets: VaultSecrets{
			APIKeys:   "secret/data/nexa/api",
			GeminiKey: "secret/data/nexa/gemini",
			Database:  "secret/data/nexa/db",
		}},
	}
	reader := fakeSecrets{strings: map[string]string{
		"secret/data/nexa/api#keys":       "k1, k2 ,,k3",
		"secret/data/nexa/gemini#api_key": "gemini-key",
		"secret/data/nexa/db#dsn":         "postgres://nexa@db/nexa",
	}}

	require.NoError(t, applySecrets(reader, cfg, nil))

	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-key", cfg.AI.Insight.APIKey)
	assert.Equal(t, "gemini-key", cfg.AI.CoverLetter.APIKey)
	assert.Equal(t, "quiz-specific", cfg.AI.Quiz.APIKey)
	assert.Equal(t, "postgres://nexa@db/nexa", cfg.Database.DSN)
}

func TestApplySecretsFailure(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{GeminiKey: "secret/data/nexa/gemini"}}}
	err := applySecrets(fakeSecrets{err: fmt.Errorf("permission denied")}, cfg, nil)
	assert.ErrorContains(t, err, "failed to load Gemini API key from vault")
	assert.Empty(t, cfg.AI.APIKey)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false, Secrets: VaultSecrets{GeminiKey: "unused"}}}
	require.NoError(t, ApplyVaultSecrets(cfg, nil))
	assert.Empty(t, cfg.AI.APIKey)

	client, err := NewVaultClient(cfg.Vault, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "abcd****6789", mask("abcdef0123456789"))
	assert.Equal(t, "****", mask("short"))
	assert.Empty(t, mask(""))
}
