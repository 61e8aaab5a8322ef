package config

// Operation names a model-backed operation with its own AI settings
type Operation string

const (
	OpInsight     Operation = "insight"
	OpQuiz        Operation = "quiz"
	OpInterview   Operation = "interview"
	OpScoring     Operation = "scoring"
	OpResume      Operation = "resume"
	OpCoverLetter Operation = "coverLetter"
)

// Operations lists every operation in a stable order.
func Operations() []Operation {
	return []Operation{OpInsight, OpQuiz, OpInterview, OpScoring, OpResume, OpCoverLetter}
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.UseSystemPrompts == nil {
		useSystem := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystem
	}
	if opCfg.JSONMode == nil {
		jsonMode := c.AI.JSONMode
		opCfg.JSONMode = &jsonMode
	}
}

func (c *Config) operationConfig(op Operation) (OperationAIConfig, bool) {
	switch op {
	case OpInsight:
		return c.AI.Insight, true
	case OpQuiz:
		return c.AI.Quiz, true
	case OpInterview:
		return c.AI.Interview, true
	case OpScoring:
		return c.AI.Scoring, true
	case OpResume:
		return c.AI.Resume, true
	case OpCoverLetter:
		return c.AI.CoverLetter, true
	default:
		return OperationAIConfig{}, false
	}
}

// GetOperationConfig returns the AI configuration for op with fallback to the
// global settings. Unknown operations get the global settings alone.
func (c *Config) GetOperationConfig(op Operation) OperationAIConfig {
	cfg, _ := c.operationConfig(op)
	c.applyOperationDefaults(&cfg)
	return cfg
}
