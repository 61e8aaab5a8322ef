package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tanishka82/nexa-app/internal/config"
)

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	httpServer := s.setupHTTPServer()

	watcher, err := s.startVaultWatcher()
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() {
			if err := watcher.Stop(); err != nil {
				s.Logger.LogError(err, "Failed to stop Vault watcher")
			}
		}()
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startVaultWatcher polls the API key secret when Vault and a watch interval are configured
func (s *Server) startVaultWatcher() (*VaultWatcher, error) {
	if s.AppConfig == nil {
		return nil, nil
	}
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.WatchInterval <= 0 || vaultCfg.Secrets.APIKeys == "" {
		return nil, nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client for key rotation: %w", err)
	}
	if client == nil {
		return nil, nil
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.WatchInterval, s.reloadAPIKeys, s.Logger)
	if err := watcher.Start(); err != nil {
		return nil, err
	}
	return watcher, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown drains in-flight requests, then releases the limiter
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server...")
	err := server.Shutdown(shutdownCtx)

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}

	if err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
