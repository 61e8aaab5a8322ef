package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/common"
	"github.com/Tanishka82/nexa-app/internal/types"
)

var analyzeResumeCmd = &cobra.Command{
	Use:   "analyze-resume [resume-file]",
	Short: "Run an ATS-style review of a résumé",
	Long: `Analyze a résumé for applicant tracking systems. Plain text, markdown
and PDF files are accepted. Results are cached by résumé content, so analyzing
the same file twice reuses the first answer until it expires.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&analyzeResumeConfig),
	RunE:    runAnalyzeResume,
}

var analyzeResumeConfig common.CommandConfig

func init() {
	addOutputFlags(analyzeResumeCmd, &analyzeResumeConfig)
}

func runAnalyzeResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	rt, err := newRuntime(ctx, cfg, logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(content string, cmdConfig common.CommandConfig) {
		logger.Info("Starting résumé analysis",
			"resume_chars", len(content),
			"output_format", cmdConfig.OutputFormat)
	}

	analyze := func(ctx context.Context, content string) (*types.ResumeAnalysis, error) {
		return rt.coach.AnalyzeResume(ctx, content)
	}

	if err := common.RunFileCommand(ctx, logger, analyzeResumeConfig, cfg.App.MaxFileSize,
		args, createInput, analyze, logDetails); err != nil {
		return fmt.Errorf("failed to analyze résumé: %w", err)
	}
	logger.Info("Résumé analysis completed successfully")
	return nil
}
