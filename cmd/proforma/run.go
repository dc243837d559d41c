package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/proforma/internal/config"
	"github.com/iwvelando/proforma/internal/forecast"
	"github.com/iwvelando/proforma/pkg/constants"
	"github.com/iwvelando/proforma/pkg/output"
	"github.com/iwvelando/proforma/pkg/validation"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Project and value every active scenario of the configuration",
		RunE:  runForecast,
	}
	cmd.Flags().String("output-format", "", "type of output override: pretty, csv")
	return cmd
}

func runForecast(cmd *cobra.Command, args []string) error {
	configLocation, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	outputFormatFlag, _ := cmd.Flags().GetString("output-format")

	conf, err := config.LoadConfiguration(configLocation)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", configLocation, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.runForecast"),
		)
	}

	results, err := forecast.GetForecast(cmd.Context(), logger, *conf)
	if err != nil {
		logger.Error("failed to compute forecast",
			zap.String("op", "main.runForecast"),
			zap.Error(err),
		)
		return err
	}

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.WriteCSV(cmd.OutOrStdout(), results)
	default:
		output.WritePretty(cmd.OutOrStdout(), results)
	}
	return nil
}
