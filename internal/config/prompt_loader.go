package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// OperationPrompts is the resolved custom prompt text for one operation.
// Empty fields mean the built-in template is used.
type OperationPrompts struct {
	System string
	User   string
}

// PromptStore holds custom prompts loaded from configuration and files.
// Reload swaps the whole set at once so readers never see a partial update.
type PromptStore struct {
	mu      sync.RWMutex
	cfg     *Config
	prompts map[Operation]OperationPrompts
}

// NewPromptStore loads every configured prompt file.
func NewPromptStore(cfg *Config) (*PromptStore, error) {
	s := &PromptStore{cfg: cfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the custom prompts for op.
func (s *PromptStore) Get(op Operation) OperationPrompts {
	if s == nil {
		return OperationPrompts{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts[op]
}

// Reload re-reads every prompt file. On error the previous set stays active.
func (s *PromptStore) Reload() error {
	loaded := make(map[Operation]OperationPrompts, len(Operations()))
	count := 0

	for _, op := range Operations() {
		opCfg, _ := s.cfg.operationConfig(op)
		custom := opCfg.CustomPrompts

		system, err := resolvePrompt(custom.System, custom.SystemFile, "system", op)
		if err != nil {
			return err
		}
		user, err := resolvePrompt(custom.User, custom.UserFile, "user", op)
		if err != nil {
			return err
		}
		if system != "" {
			count++
		}
		if user != "" {
			count++
		}
		loaded[op] = OperationPrompts{System: system, User: user}
	}

	s.mu.Lock()
	s.prompts = loaded
	s.mu.Unlock()

	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
	return nil
}

// Files returns the absolute paths of every configured prompt file.
func (s *PromptStore) Files() []string {
	var files []string
	for _, op := range Operations() {
		opCfg, _ := s.cfg.operationConfig(op)
		for _, f := range []string{opCfg.CustomPrompts.SystemFile, opCfg.CustomPrompts.UserFile} {
			if f == "" {
				continue
			}
			if abs, err := filepath.Abs(f); err == nil {
				files = append(files, abs)
			}
		}
	}
	return files
}

func resolvePrompt(inline, file, promptType string, op Operation) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return strings.TrimSpace(inline), nil
	}
	if file == "" {
		return "", nil
	}
	return loadPromptFromFile(file, promptType, op)
}

// loadPromptFromFile reads one prompt file and rejects empty content
func loadPromptFromFile(filePath, promptType string, op Operation) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", op, promptType, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", op, promptType, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", op, promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", op, promptType, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)", op, promptType, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType string, op Operation) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", op, promptType, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", op, promptType, absPath))
		}
	}

	for _, op := range Operations() {
		opCfg, _ := c.operationConfig(op)
		validateFile(opCfg.CustomPrompts.SystemFile, "system", op)
		validateFile(opCfg.CustomPrompts.UserFile, "user", op)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
