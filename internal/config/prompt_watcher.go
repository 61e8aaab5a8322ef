package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// PromptWatcher reloads a PromptStore when one of its files changes.
type PromptWatcher struct {
	mu sync.Mutex

	store  *PromptStore
	files  []string
	logger *apperrors.Logger

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	onReload   func(error)

	running bool
}

// NewPromptWatcher creates a watcher for the store's files. onReload, when
// set, is called after every reload attempt.
func NewPromptWatcher(store *PromptStore, debounceDelay time.Duration, onReload func(error), logger *apperrors.Logger) *PromptWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &PromptWatcher{
		store:         store,
		files:         store.Files(),
		logger:        logger,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
	}
}

// Start begins watching. Watching an empty file set is a no-op.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		pw.logger.Debug("No prompt files configured, watcher not started")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	// Directories, so that editors replacing files by rename are seen
	var dirs []string
	for _, f := range pw.files {
		dir := filepath.Dir(f)
		if slices.Contains(dirs, dir) {
			continue
		}
		dirs = append(dirs, dir)
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	pw.logger.Info("Prompt file watcher started",
		"files", pw.files,
		"debounce_delay", pw.debounceDelay)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}
	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		pw.logger.LogError(err, "Failed to close prompt file watcher")
		return err
	}
	pw.logger.Info("Prompt file watcher stopped")
	return nil
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			pw.logger.LogError(err, "Prompt file watcher error")

		case <-pw.reloadChan:
			err := pw.store.Reload()
			if err != nil {
				pw.logger.LogError(err, "Prompt reload failed, keeping previous prompts")
			} else {
				pw.logger.Info("Prompt files reloaded")
			}
			if pw.onReload != nil {
				pw.onReload(err)
			}

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil || !slices.Contains(pw.files, abs) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
		}
	})
}
