package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/prism/internal/runner"
	"github.com/ajitpratap0/prism/pkg/compression"
	"github.com/ajitpratap0/prism/pkg/config"
	"github.com/ajitpratap0/prism/pkg/formats"
	"github.com/ajitpratap0/prism/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.SetEnvPrefix("PRISM")
	viper.AutomaticEnv()

	root := &cobra.Command{
		Use:   "prism",
		Short: "Prism - Lazy tabular data pipelines",
		Long: `Prism reads tabular files, transforms them through lazy single-pass
pipelines and writes the result. Jobs are described in YAML: source files,
row transformations, an optional grouping stage and an output.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-encoding", "json", "Log encoding (json or console)")
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_encoding", root.PersistentFlags().Lookup("log-encoding"))

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Prism v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Formats command to show supported file formats
	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List supported file formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Input formats:")
			for _, f := range []formats.Format{formats.CSV, formats.TSV, formats.JSONL, formats.Avro, formats.Parquet} {
				fmt.Printf("  - %s\n", f)
			}
			fmt.Println("\nOutput formats:")
			for _, f := range []formats.Format{formats.CSV, formats.TSV, formats.JSONL, formats.Avro} {
				fmt.Printf("  - %s\n", f)
			}
			fmt.Println("\nCompression (by extension):")
			for _, a := range []compression.Algorithm{compression.Gzip, compression.Zstd, compression.Snappy, compression.S2, compression.LZ4} {
				fmt.Printf("  - %s (%s)\n", a, a.Extension())
			}
		},
	})

	// Init command to write a starter job file
	var initName string
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter job file",
		Long: `Write a starter job file to the given path (default prism.yaml).
Edit the source paths, steps and output to describe your job, then run it
with prism run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "prism.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.DefaultJob(initName)); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initName, "name", "my-job", "Name of the job")
	root.AddCommand(initCmd)

	// Validate command to check a job file without running it
	root.AddCommand(&cobra.Command{
		Use:   "validate <job.yaml>",
		Short: "Validate a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.LoadJob(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (job %q, %d sources, %d steps)\n",
				args[0], job.Name, len(job.Source.Paths), len(job.Steps))
			return nil
		},
	})

	// Main run command
	var timeout time.Duration
	runCmd := &cobra.Command{
		Use:   "run <job.yaml>",
		Short: "Run a job",
		Long: `Run the job described by a YAML job file. Without an output path the
result is written as CSV to standard output; logs go to standard error.

Example:
  prism run totals.yaml --timeout 5m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(args[0], timeout)
		},
	}
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the run after this duration (0 means no timeout)")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger initializes the global logger from flags and PRISM_ environment
// variables.
func initLogger() error {
	return logger.Init(logger.Config{
		Level:    viper.GetString("log_level"),
		Encoding: viper.GetString("log_encoding"),
	})
}

// runJob loads, validates and executes one job file.
func runJob(path string, timeout time.Duration) error {
	job, err := config.LoadJob(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log := logger.Get().With(zap.String("component", "prism-cli"))
	defer func() { _ = logger.Sync() }()

	_, err = runner.New(log).Run(ctx, job)
	return err
}
