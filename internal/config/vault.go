package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// WatchInterval polls the API key secret for new versions while serving. Zero disables it.
	WatchInterval time.Duration `mapstructure:"watchInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets are KV v2 paths. Empty paths are skipped.
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma separated server API keys
	APIKeys string `mapstructure:"apiKeys"`
	// GeminiKey holds an "api_key" field
	GeminiKey string `mapstructure:"geminiKey"`
	// Database holds a "dsn" field
	Database string `mapstructure:"database"`
}

// secretReader is the part of VaultClient the secret loaders need.
type secretReader interface {
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *apperrors.Logger
}

// NewVaultClient creates a Vault client and checks that the server is reachable.
// It returns nil, nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *apperrors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "failed to create vault client", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, apperrors.NewNetworkError(apperrors.ErrCodeNetworkFailure, "failed to connect to vault", err).
			WithContext("address", config.Address)
	}
	logger.Info("Connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken returns the configured token, reading TokenFile when the
// token itself is empty
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "failed to read vault token file", err).
				WithContext("file", config.TokenFile)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// VaultSecret is a secret read from a KV v2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 reads a KV v2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKV2(secret.Data, path)
}

func parseKV2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the number types JSON decoding may produce
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string field from a secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	vc.logger.Debug("String secret retrieved from Vault", "path", path, "key", key, "masked_value", mask(str))
	return str, nil
}

// GetStringSliceSecret retrieves a comma separated field as a slice
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

func mask(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case s != "":
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *apperrors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}
	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	return applySecrets(client, config, client.logger)
}

func applySecrets(reader secretReader, config *Config, logger *apperrors.Logger) error {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		keys, err := reader.GetStringSliceSecret(paths.APIKeys, "keys")
		if err != nil {
			return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "failed to load API keys from vault", err)
		}
		if len(keys) > 0 {
			config.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		}
	}

	if paths.GeminiKey != "" {
		key, err := reader.GetStringSecret(paths.GeminiKey, "api_key")
		if err != nil {
			return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "failed to load Gemini API key from vault", err)
		}
		if key != "" {
			applyGeminiKeyToConfig(config, key)
			logger.Info("Gemini API key loaded from Vault")
		}
	}

	if paths.Database != "" {
		dsn, err := reader.GetStringSecret(paths.Database, "dsn")
		if err != nil {
			return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "failed to load database DSN from vault", err)
		}
		if dsn != "" {
			config.Database.DSN = dsn
			logger.Info("Database DSN loaded from Vault")
		}
	}

	return nil
}

// applyGeminiKeyToConfig sets the global key and fills operations without their own
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	for _, op := range []*OperationAIConfig{
		&config.AI.Insight, &config.AI.Quiz, &config.AI.Interview,
		&config.AI.Scoring, &config.AI.Resume, &config.AI.CoverLetter,
	} {
		if op.APIKey == "" {
			op.APIKey = geminiKey
		}
	}
}
