package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// VaultClientInterface is the part of the Vault client the watcher needs
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// KeysReloadCallback receives the new key list, or the error that prevented reading it
type KeysReloadCallback func(keys []string, err error)

// VaultWatcher polls the API key secret and calls back when its KV version
// increases. The first poll always reports the current keys.
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeysReloadCallback
	logger         *apperrors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback KeysReloadCallback, logger *apperrors.Logger) *VaultWatcher {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one check and reports new keys through the callback
func (vw *VaultWatcher) poll() {
	changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for updates", "secret_path", vw.secretPath)
		return
	}
	if !changed {
		return
	}

	keys, err := vw.client.GetStringSliceSecret(vw.secretPath, "keys")
	if err != nil {
		vw.logger.LogError(err, "Failed to fetch API keys from Vault", "secret_path", vw.secretPath)
		vw.reloadCallback(nil, err)
		return
	}
	vw.logger.Info("API keys rotated in Vault", "count", len(keys))
	vw.reloadCallback(keys, nil)
}

// checkForUpdates reports whether the secret version has increased
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}

// reloadAPIKeys keeps the current keys when Vault returns none, so a
// misconfigured secret cannot open the API.
func (s *Server) reloadAPIKeys(keys []string, err error) {
	if err != nil {
		return
	}
	if len(keys) == 0 {
		s.Logger.Warn("Vault returned no API keys, keeping the current set")
		return
	}
	s.APIKeys.Replace(keys)
}
