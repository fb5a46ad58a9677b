package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/resolve"
	"github.com/joshuapare/flagkit/internal/scan"
	"github.com/joshuapare/flagkit/internal/table"
	"github.com/joshuapare/flagkit/pkg/fflags"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// Target flags
	processName    string
	moduleName     string
	cachePath      string
	signatureText  string
	attachInterval time.Duration
	pollInterval   time.Duration
	fingerprint    bool
	debugPrivilege bool

	// Logging flags
	logLevel  string
	logFormat string
	logDir    string

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "flagctl",
	Short: "Read and write fast flags in a running client",
	Long: `flagctl attaches to a running client, locates its fast flag registry,
and reads or rewrites flag values in place. The registry location is cached
between runs so later attaches skip the signature scan.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")

	pf.StringVarP(&processName, "process", "p", fflags.DefaultProcess, "Executable name to attach to")
	pf.StringVar(&moduleName, "module", "", "Module holding the registry (default: the process image)")
	pf.StringVar(&cachePath, "cache", resolve.DefaultCachePath, "File the registry offset is cached in")
	pf.StringVar(&signatureText, "signature", "", "Override the registry signature (hex bytes, ?? for wildcards)")
	pf.DurationVar(&attachInterval, "attach-interval", remote.DefaultAttachInterval, "Delay between attach attempts")
	pf.DurationVar(&pollInterval, "poll-interval", table.DefaultPollInterval, "Delay between registry readiness checks")
	pf.BoolVar(&fingerprint, "fingerprint", false, "Tie the cached offset to the module build")
	pf.BoolVar(&debugPrivilege, "debug-privilege", false, "Request the debug privilege before attaching")

	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&logDir, "log-dir", "", "Write logs to a dated file in this directory")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v\n", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging routes engine logs to stderr when verbose, or to a file when
// --log-dir is given.
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		level = slog.LevelDebug
	}
	closer, err := logger.Init(logger.Options{
		Enabled: (verbose && !quiet) || logDir != "",
		Level:   level,
		Format:  logFormat,
		LogDir:  logDir,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	closeLog = closer
	return nil
}

// sessionOptions builds session options from the global flags.
func sessionOptions() (fflags.Options, error) {
	opts := fflags.DefaultOptions()
	opts.Process = processName
	opts.Module = moduleName
	opts.CachePath = cachePath
	opts.AttachInterval = attachInterval
	opts.PollInterval = pollInterval
	opts.Fingerprint = fingerprint
	opts.Debug = debugPrivilege
	opts.Logger = logger.L

	if signatureText != "" {
		sig, err := scan.ParseSignature(signatureText)
		if err != nil {
			return opts, fmt.Errorf("--signature: %w", err)
		}
		rule := resolve.DefaultRule()
		rule.Signature = sig
		opts.Rule = &rule
	}
	return opts, nil
}

// openSession attaches to the target. Tests replace it with an in-memory
// session.
var openSession = func(ctx context.Context, opts fflags.Options) (*fflags.Session, error) {
	printVerbose("Waiting for %s\n", opts.Process)
	return fflags.Open(ctx, opts)
}

// connect opens a session using the global flags.
func connect(ctx context.Context) (*fflags.Session, error) {
	opts, err := sessionOptions()
	if err != nil {
		return nil, err
	}
	return openSession(ctx, opts)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func hex(v uint64) string { return fmt.Sprintf("%#x", v) }
