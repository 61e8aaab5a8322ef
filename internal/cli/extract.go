package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/coach"
	"github.com/Tanishka82/nexa-app/internal/common"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file]",
	Short: "Extract and validate a JSON payload from model output",
	Long: `Run the extraction pipeline on text saved from a model response:
locate the JSON payload (fenced or bare), decode it, normalize it against a
registered schema and report degenerate fields. No model is called.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&extractConfig),
	RunE:    runExtract,
}

var (
	extractConfig common.CommandConfig
	extractShape  string
	extractSchema string
)

func init() {
	addOutputFlags(extractCmd, &extractConfig)
	extractCmd.Flags().StringVar(&extractShape, "shape", "", "Expected payload shape: object or array (default from schema)")
	extractCmd.Flags().StringVar(&extractSchema, "schema", "", fmt.Sprintf("Schema to validate against: %s", strings.Join(schema.Names(), ", ")))
	_ = extractCmd.MarkFlagRequired("schema")

	_ = extractCmd.RegisterFlagCompletionFunc("schema", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return schema.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = extractCmd.RegisterFlagCompletionFunc("shape", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"object", "array"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	createInput := func(contents []string) (types.ExtractRequest, error) {
		if len(contents) != 1 {
			return types.ExtractRequest{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.ExtractRequest{Text: contents[0], Shape: extractShape, Schema: extractSchema}, nil
	}

	logDetails := func(req types.ExtractRequest, cmdConfig common.CommandConfig) {
		logger.Debug("Extracting payload",
			"schema", req.Schema,
			"shape", req.Shape,
			"text_chars", len(req.Text))
	}

	extract := func(_ context.Context, req types.ExtractRequest) (*types.ExtractResponse, error) {
		return coach.Extract(req)
	}

	return common.RunFileCommand(ctx, logger, extractConfig, cfg.App.MaxFileSize,
		args, createInput, extract, logDetails)
}
