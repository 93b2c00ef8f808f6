package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altafino/schedkit/internal/app"
	"github.com/altafino/schedkit/internal/logger"
)

var (
	propsFile string
	jobsDir   string
	logLevel  string
	logFormat string
	log       *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "schedulerd",
	Short: "Property-driven job scheduling daemon",
	Long: `A daemon that bootstraps a named scheduler from layered properties
configuration and runs job definitions found in a jobs directory.`,
	RunE: run,
}

func init() {
	// Setup default logger until flags are parsed
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Command line flags
	rootCmd.PersistentFlags().StringVar(&propsFile, "properties", "", "properties file or bundled resource (default is the resolution cascade)")
	rootCmd.PersistentFlags().StringVar(&jobsDir, "jobs-dir", "./jobs", "directory containing *.job.yaml definitions")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "logging format (text, json, dev)")

	// Bind flags to viper so SCHEDULERD_* environment variables work too
	viper.SetEnvPrefix("schedulerd")
	viper.AutomaticEnv()
	viper.BindPFlag("properties", rootCmd.PersistentFlags().Lookup("properties"))
	viper.BindPFlag("jobs_dir", rootCmd.PersistentFlags().Lookup("jobs-dir"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func run(cmd *cobra.Command, args []string) error {
	log = logger.Setup(viper.GetString("logging.level"), viper.GetString("logging.format"))
	slog.SetDefault(log)

	application, err := app.New(log, viper.GetString("properties"), viper.GetString("jobs_dir"))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	return nil
}
