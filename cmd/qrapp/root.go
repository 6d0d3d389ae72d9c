package main

import (
	"fmt"

	"go-qr-webapp/internal/config"
	"go-qr-webapp/internal/logger"

	"github.com/spf13/cobra"
)

const serviceName = "go-qr-webapp"

// cli carries state shared by every subcommand once the root has run
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	log        *logger.StructuredLogger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "qrapp",
		Short:        "Scan QR codes from images or a camera, and generate new ones",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "config.json", "path to the JSON config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newScanCmd(c),
		newCameraCmd(c),
		newGenerateCmd(c),
		newServeCmd(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	c.cfg = cfg

	output := cfg.Logging.File
	// keep stdout for command results outside the server
	if cmd.Name() != "serve" && (output == "" || output == "stdout") {
		output = "stderr"
	}

	if err := logger.InitializeLogger(logger.LoggerConfig{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		Service:    serviceName,
		OutputPath: output,
		Format:     cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.log = logger.GlobalLogger
	return nil
}
