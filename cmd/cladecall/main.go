package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.5.0"

var (
	verbose     bool
	debug       bool
	logFilePath string

	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:     "cladecall",
		Short:   "Candida auris clade typing from mash distances",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "very verbose output")
	root.PersistentFlags().StringVar(&logFilePath, "log-file", "", "also write the log to this file")

	root.AddCommand(newClassifyCmd())
	root.AddCommand(newBatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch {
	case debug:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	if logFilePath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFilePath)
	}
	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}
