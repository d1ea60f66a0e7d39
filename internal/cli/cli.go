// ============================================================================
// Threadspark CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra front end for running task batches through the executor
//
// Command Structure:
//   threadspark                    # Root command
//   ├── run                        # Execute the tasks listed in the config file
//   │   ├── --file, -f             # Batch file (overrides --config)
//   │   ├── --concurrency, -k      # Override runner.max_concurrency
//   │   ├── --until-error          # Collapse to all values or first failure
//   │   └── --cancel-on-first-error
//   ├── bench                      # Run synthetic tasks and report peak concurrency
//   ├── validate                   # Check a config file
//   ├── --config, -c               # Config file (default: configs/default.yaml)
//   └── --version
//
// Configuration:
//   YAML file with runner, metrics, log and tasks sections. Each task sleeps
//   for its duration and then returns its value, fails, or panics.
//
// Signal Handling:
//   SIGINT/SIGTERM cancel the run context. Tasks that have not started are
//   reported as cancelled; running tasks finish normally.
//
// ============================================================================

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ChuLiYu/threadspark/pkg/metrics"
	"github.com/ChuLiYu/threadspark/pkg/runner"
	"github.com/ChuLiYu/threadspark/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config represents the complete CLI configuration structure
// Maps config file fields through YAML tags
type Config struct {
	Runner struct {
		MaxConcurrency     int  `yaml:"max_concurrency"`
		CancelOnFirstError bool `yaml:"cancel_on_first_error"`
		UntilError         bool `yaml:"until_error"`
		SerializeProgress  bool `yaml:"serialize_progress"`
	} `yaml:"runner"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec describes one simulated task
type TaskSpec struct {
	Name  string        `yaml:"name"`
	Sleep time.Duration `yaml:"sleep"`
	Value string        `yaml:"value"`
	Fail  bool          `yaml:"fail"`
	Panic bool          `yaml:"panic"`
}

var (
	configFile string

	errNoTasks = errors.New("config has no tasks")
)

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "threadspark",
		Short: "Threadspark: bounded-concurrency batch executor",
		Long: `Threadspark runs a batch of independent tasks with:
- at most K tasks executing at once
- results returned in submission order
- optional cancel-on-first-error
- progress reporting and Prometheus metrics`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildBenchCommand())
	rootCmd.AddCommand(buildValidateCommand())

	return rootCmd
}

// ============================================================================
// run
// ============================================================================

func buildRunCommand() *cobra.Command {
	var (
		batchFile          string
		concurrency        int
		untilError         bool
		cancelOnFirstError bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a batch run of the configured tasks",
		Long:  "Execute every task from the config file and print ordered outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if batchFile != "" {
				path = batchFile
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Runner.MaxConcurrency = concurrency
			}
			if cmd.Flags().Changed("until-error") {
				cfg.Runner.UntilError = untilError
			}
			if cmd.Flags().Changed("cancel-on-first-error") {
				cfg.Runner.CancelOnFirstError = cancelOnFirstError
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runBatch(ctx, cfg, cmd.OutOrStdout(), prometheus.DefaultRegisterer)
		},
	}

	cmd.Flags().StringVarP(&batchFile, "file", "f", "", "Batch file with runner settings and tasks")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "k", 4, "Maximum number of tasks executing at once")
	cmd.Flags().BoolVar(&untilError, "until-error", false, "Return all values or the lowest-index failure")
	cmd.Flags().BoolVar(&cancelOnFirstError, "cancel-on-first-error", false, "Skip tasks that have not started after the first failure")

	return cmd
}

func runBatch(ctx context.Context, cfg *Config, out io.Writer, reg prometheus.Registerer) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)
	opts := []runner.Option{runner.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(reg)
		opts = append(opts, runner.WithRecorder(collector))
		go func() {
			log.Printf("Starting metrics server on :%d\n", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port, nil); err != nil {
				log.Printf("Metrics server error: %v\n", err)
			}
		}()
	}

	r, err := runner.New(cfg.Runner.MaxConcurrency, opts...)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	fns := make([]runner.Func[string], len(cfg.Tasks))
	for i, task := range cfg.Tasks {
		fns[i] = simulate(task)
	}

	var mu sync.Mutex
	runCfg := runner.RunConfig[string]{
		CancelOnFirstError: cfg.Runner.CancelOnFirstError,
		SerializeProgress:  cfg.Runner.SerializeProgress,
		Progress: func(item types.ProgressItem[string]) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "[%d/%d] %s: %s\n",
				item.CompletedCount, item.Total, taskName(cfg.Tasks, item.Index), status(item.Outcome))
		},
	}

	log.Printf("Running %d tasks with max concurrency %d\n", len(fns), r.MaxConcurrency())
	start := time.Now()

	if cfg.Runner.UntilError {
		outcome := runner.RunUntilError(ctx, r, fns, runCfg)
		fmt.Fprintln(out)
		if v, err := outcome.Unwrap(); err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
		} else {
			fmt.Fprintf(out, "OK: %s\n", strings.Join(v, ", "))
		}
		fmt.Fprintf(out, "elapsed: %s\n", time.Since(start).Round(time.Millisecond))
		return outcome.Err()
	}

	outcomes := runner.Run(ctx, r, fns, runCfg)
	fmt.Fprintln(out)
	printOutcomes(out, cfg.Tasks, outcomes)
	fmt.Fprintf(out, "elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// simulate turns a task spec into a function body
func simulate(task TaskSpec) runner.Func[string] {
	return func() (string, error) {
		if task.Sleep > 0 {
			time.Sleep(task.Sleep)
		}
		switch {
		case task.Panic:
			panic(fmt.Sprintf("task %s panicked", task.Name))
		case task.Fail:
			return "", fmt.Errorf("task %s failed", task.Name)
		}
		return task.Value, nil
	}
}

func printOutcomes(out io.Writer, tasks []TaskSpec, outcomes []types.Outcome[string]) {
	succeeded, failed, cancelled := 0, 0, 0
	for i, o := range outcomes {
		switch {
		case o.IsSuccess():
			succeeded++
		case types.IsCancelled(o.Err()):
			cancelled++
		default:
			failed++
		}
		fmt.Fprintf(out, "  %3d  %-20s %s\n", i, taskName(tasks, i), status(o))
	}
	fmt.Fprintf(out, "succeeded: %d, failed: %d, cancelled: %d\n", succeeded, failed, cancelled)
}

func status(o types.Outcome[string]) string {
	v, err := o.Unwrap()
	switch {
	case err == nil:
		return "ok " + v
	case types.IsCancelled(err):
		return "cancelled"
	default:
		return "error " + err.Error()
	}
}

func taskName(tasks []TaskSpec, i int) string {
	if i < len(tasks) && tasks[i].Name != "" {
		return tasks[i].Name
	}
	return fmt.Sprintf("task-%d", i)
}

// ============================================================================
// bench
// ============================================================================

func buildBenchCommand() *cobra.Command {
	var (
		count       int
		concurrency int
		delay       time.Duration
		failEvery   int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run synthetic tasks and report observed concurrency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), count, concurrency, delay, failEvery)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "Number of tasks")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "k", 5, "Maximum number of tasks executing at once")
	cmd.Flags().DurationVar(&delay, "delay", 5*time.Millisecond, "Sleep inside each task")
	cmd.Flags().IntVar(&failEvery, "fail-every", 0, "Make every n-th task fail (0 disables)")

	return cmd
}

// BenchReport summarises one bench run
type BenchReport struct {
	Count          int
	MaxConcurrency int
	PeakObserved   int
	Failed         int
	Elapsed        time.Duration
}

func runBench(ctx context.Context, out io.Writer, count, concurrency int, delay time.Duration, failEvery int) error {
	report, err := bench(ctx, count, concurrency, delay, failEvery)
	if err != nil {
		return err
	}

	throughput := 0.0
	if report.Elapsed > 0 {
		throughput = float64(report.Count) / report.Elapsed.Seconds()
	}
	fmt.Fprintf(out, "tasks:            %d\n", report.Count)
	fmt.Fprintf(out, "max concurrency:  %d\n", report.MaxConcurrency)
	fmt.Fprintf(out, "peak observed:    %d\n", report.PeakObserved)
	fmt.Fprintf(out, "failed:           %d\n", report.Failed)
	fmt.Fprintf(out, "elapsed:          %s\n", report.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "throughput:       %.1f tasks/s\n", throughput)
	return nil
}

func bench(ctx context.Context, count, concurrency int, delay time.Duration, failEvery int) (BenchReport, error) {
	r, err := runner.New(concurrency)
	if err != nil {
		return BenchReport{}, fmt.Errorf("failed to create runner: %w", err)
	}

	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	fns := make([]runner.Func[int], count)
	for i := range fns {
		fns[i] = func() (int, error) {
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()

			time.Sleep(delay)

			mu.Lock()
			current--
			mu.Unlock()

			if failEvery > 0 && (i+1)%failEvery == 0 {
				return 0, fmt.Errorf("synthetic failure at %d", i)
			}
			return i, nil
		}
	}

	start := time.Now()
	outcomes := runner.Run(ctx, r, fns, runner.RunConfig[int]{})
	report := BenchReport{
		Count:          count,
		MaxConcurrency: concurrency,
		Elapsed:        time.Since(start),
	}
	for _, o := range outcomes {
		if o.IsFailure() {
			report.Failed++
		}
	}
	mu.Lock()
	report.PeakObserved = peak
	mu.Unlock()
	return report, nil
}

// ============================================================================
// validate
// ============================================================================

func buildValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := validateConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config OK: %d tasks, max concurrency %d\n",
				len(cfg.Tasks), cfg.Runner.MaxConcurrency)
			return nil
		},
	}
}

// ============================================================================
// config helpers
// ============================================================================

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Runner.MaxConcurrency <= 0 {
		return &types.ConfigurationError{
			Field: "runner.max_concurrency",
			Value: cfg.Runner.MaxConcurrency,
			Err:   types.ErrInvalidConcurrency,
		}
	}
	if len(cfg.Tasks) == 0 {
		return errNoTasks
	}
	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port %d", cfg.Metrics.Port)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
