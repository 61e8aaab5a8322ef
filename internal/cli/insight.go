package cli

import (
	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/common"
)

var insightCmd = &cobra.Command{
	Use:   "insight [industry]",
	Short: "Show the cached market insight for an industry",
	Long: `Print the industry insight, generating and caching it first when no
fresh entry exists. Use --refresh to drop the cached entry before reading.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&insightConfig),
	RunE:    runInsight,
}

var (
	insightConfig  common.CommandConfig
	insightRefresh bool
)

func init() {
	addOutputFlags(insightCmd, &insightConfig)
	insightCmd.Flags().BoolVar(&insightRefresh, "refresh", false, "Invalidate the cached insight first")
}

func runInsight(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	rt, err := newRuntime(ctx, cfg, logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if insightRefresh {
		removed, err := rt.coach.InvalidateInsight(ctx, args[0])
		if err != nil {
			return err
		}
		logger.Info("Cached insight invalidated", "industry", args[0], "removed", removed)
	}

	report, err := rt.coach.Insight(ctx, args[0])
	if err != nil {
		return err
	}
	logger.Info("Industry insight ready",
		"industry", report.Industry,
		"degenerate", report.Degenerate,
		"expires_at", report.ExpiresAt)

	return common.NewOutputHandler(logger).HandleOutput(report, insightConfig)
}
