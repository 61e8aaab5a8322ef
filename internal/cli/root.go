package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/config"
	"github.com/Tanishka82/nexa-app/internal/errors"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "nexa",
	Short: "AI career coach backed by a structured generation cache",
	Long: `Nexa serves career coaching features built on a language model:
industry insights, résumé analysis, quizzes, mock interviews and cover letters.

Model output is extracted, validated against a schema and cached per
industry or résumé so repeated requests do not pay for a new generation.`,
	SilenceUsage: true,
}

// Execute attaches config and logger to the context and runs the root command
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(insightCmd)
	rootCmd.AddCommand(analyzeResumeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
