package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/safeguard/internal/capability"
	"github.com/dusk-indust/safeguard/internal/config"
	"github.com/dusk-indust/safeguard/internal/operation"
	"github.com/dusk-indust/safeguard/internal/safety"
	"github.com/dusk-indust/safeguard/internal/safety/safetytest"
	"github.com/dusk-indust/safeguard/internal/scope"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.teardown()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app carries the global flags and the per-invocation client scope.
type app struct {
	verbose   bool
	configDir string
	baseURL   string
	offline   bool

	cfg    *config.ProjectConfig
	logger *zap.Logger
	scope  *scope.Scope
	out    io.Writer
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "safeguard",
		Short: "Child-safety and compliance API client",
		Long: `safeguard calls the child-safety and compliance API.

Every capability runs through its own tracked operation; results are printed
as JSON. Use --offline to answer from a local in-memory double instead of the
remote API.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.configDir, "config-dir", ".", "directory containing safeguard.yml")
	pf.StringVar(&a.baseURL, "base-url", "", "override the API base URL")
	pf.BoolVar(&a.offline, "offline", false, "use the in-memory client instead of the remote API")

	root.AddCommand(
		a.detectCmd(),
		a.analyzeCmd(),
		a.emotionsCmd(),
		a.actionPlanCmd(),
		a.reportCmd(),
		a.accountCmd(),
		a.breachCmd(),
		a.runCmd(),
		a.screenCmd(),
		a.capabilitiesCmd(),
		a.serveMCPCmd(),
		a.versionCmd(),
	)
	return root
}

// setup builds the logger, loads configuration and opens the client scope.
// The client itself is not constructed until a capability runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	a.cfg = cfg

	if a.logger == nil {
		zc := zap.NewProductionConfig()
		if a.verbose || cfg.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}

	opts := []scope.Option{scope.WithLogger(a.logger)}
	if a.offline {
		opts = append(opts, scope.WithFactory(func(string, *safety.Config) (safety.Client, error) {
			return safetytest.New(), nil
		}))
	}
	a.scope = scope.New(cfg.APIKey, cfg.SafetyConfig(), opts...)
	return nil
}

func (a *app) teardown() {
	if a.scope != nil {
		a.scope.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// set binds the capabilities to the scope's client, constructing it.
func (a *app) set() (*capability.Set, error) {
	if !a.offline {
		if err := a.cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return capability.NewSet(a.scope, operation.WithLogger(a.logger))
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// execute runs the operation pick selects with in and prints the result.
func execute[In, Out any](cmd *cobra.Command, a *app, pick func(*capability.Set) *operation.Operation[In, Out], in In) error {
	set, err := a.set()
	if err != nil {
		return err
	}
	out, err := pick(set).Execute(cmd.Context(), in)
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
