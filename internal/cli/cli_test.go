package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ChuLiYu/threadspark/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `runner:
  max_concurrency: 2
  cancel_on_first_error: false
  until_error: false
  serialize_progress: true
metrics:
  enabled: false
  port: 9090
log:
  level: error
tasks:
  - name: fetch-users
    sleep: 10ms
    value: users
  - name: fetch-orders
    sleep: 5ms
    fail: true
  - name: fetch-items
    value: items
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(tasks ...TaskSpec) *Config {
	cfg := &Config{Tasks: tasks}
	cfg.Runner.MaxConcurrency = 2
	cfg.Log.Level = "error"
	return cfg
}

// ============================================================================
// Command structure
// ============================================================================

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "threadspark", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	commandNames := make(map[string]bool)
	for _, c := range cmd.Commands() {
		commandNames[c.Use] = true
	}
	assert.Len(t, commandNames, 3, "Should have 3 subcommands")
	assert.True(t, commandNames["run"])
	assert.True(t, commandNames["bench"])
	assert.True(t, commandNames["validate"])

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag, "Should have --config flag")
	assert.Equal(t, "configs/default.yaml", configFlag.DefValue)
}

func TestBuildRunCommand(t *testing.T) {
	cmd := buildRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.Contains(t, cmd.Short, "Start")
	assert.NotNil(t, cmd.RunE)

	fileFlag := cmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag, "Should have --file flag")
	assert.Equal(t, "f", fileFlag.Shorthand)

	concurrencyFlag := cmd.Flags().Lookup("concurrency")
	require.NotNil(t, concurrencyFlag)
	assert.Equal(t, "k", concurrencyFlag.Shorthand)

	assert.NotNil(t, cmd.Flags().Lookup("until-error"))
	assert.NotNil(t, cmd.Flags().Lookup("cancel-on-first-error"))
}

func TestBuildBenchCommand(t *testing.T) {
	cmd := buildBenchCommand()

	assert.Equal(t, "bench", cmd.Use)
	assert.Equal(t, "50", cmd.Flags().Lookup("count").DefValue)
	assert.Equal(t, "5", cmd.Flags().Lookup("concurrency").DefValue)
	assert.Equal(t, "5ms", cmd.Flags().Lookup("delay").DefValue)
	assert.Equal(t, "0", cmd.Flags().Lookup("fail-every").DefValue)
}

// ============================================================================
// Config loading
// ============================================================================

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Runner.MaxConcurrency)
	assert.True(t, cfg.Runner.SerializeProgress)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "error", cfg.Log.Level)

	require.Len(t, cfg.Tasks, 3)
	assert.Equal(t, "fetch-users", cfg.Tasks[0].Name)
	assert.Equal(t, 10*time.Millisecond, cfg.Tasks[0].Sleep)
	assert.Equal(t, "users", cfg.Tasks[0].Value)
	assert.True(t, cfg.Tasks[1].Fail)
	assert.Zero(t, cfg.Tasks[2].Sleep)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "runner: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(testConfig(TaskSpec{Name: "a"})))
	})

	t.Run("zero concurrency", func(t *testing.T) {
		cfg := testConfig(TaskSpec{Name: "a"})
		cfg.Runner.MaxConcurrency = 0

		err := validateConfig(cfg)
		var cfgErr *types.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "runner.max_concurrency", cfgErr.Field)
		assert.ErrorIs(t, err, types.ErrInvalidConcurrency)
	})

	t.Run("no tasks", func(t *testing.T) {
		assert.ErrorIs(t, validateConfig(testConfig()), errNoTasks)
	})

	t.Run("bad metrics port", func(t *testing.T) {
		cfg := testConfig(TaskSpec{Name: "a"})
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = 70000
		assert.Error(t, validateConfig(cfg))
	})
}

func TestValidateCommand(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	root := BuildCLI()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "--config", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "config OK: 3 tasks, max concurrency 2")
}

// ============================================================================
// Batch execution
// ============================================================================

func TestRunBatchPrintsOrderedOutcomes(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	var out bytes.Buffer
	err = runBatch(context.Background(), cfg, &out, prometheus.NewRegistry())
	require.NoError(t, err, "run-all mode reports failures per task")

	text := out.String()
	assert.Contains(t, text, "ok users")
	assert.Contains(t, text, "ok items")
	assert.Contains(t, text, "task fetch-orders failed")
	assert.Contains(t, text, "[3/3]")
	assert.Contains(t, text, "succeeded: 2, failed: 1, cancelled: 0")

	users := bytes.Index(out.Bytes(), []byte("  0  fetch-users"))
	orders := bytes.Index(out.Bytes(), []byte("  1  fetch-orders"))
	items := bytes.Index(out.Bytes(), []byte("  2  fetch-items"))
	require.True(t, users >= 0 && orders >= 0 && items >= 0, text)
	assert.Less(t, users, orders)
	assert.Less(t, orders, items)
}

func TestRunBatchUntilErrorReturnsFailure(t *testing.T) {
	cfg := testConfig(
		TaskSpec{Name: "a", Value: "x"},
		TaskSpec{Name: "b", Fail: true},
		TaskSpec{Name: "c", Value: "z"},
	)
	cfg.Runner.UntilError = true

	var out bytes.Buffer
	err := runBatch(context.Background(), cfg, &out, prometheus.NewRegistry())

	var execErr *types.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.Index)
	assert.Contains(t, out.String(), "FAILED:")
}

func TestRunBatchUntilErrorSuccess(t *testing.T) {
	cfg := testConfig(TaskSpec{Value: "x"}, TaskSpec{Value: "y"})
	cfg.Runner.UntilError = true

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), cfg, &out, prometheus.NewRegistry()))
	assert.Contains(t, out.String(), "OK: x, y")
}

func TestRunBatchCancelledContext(t *testing.T) {
	cfg := testConfig(TaskSpec{Name: "a"}, TaskSpec{Name: "b"}, TaskSpec{Name: "c"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, runBatch(ctx, cfg, &out, prometheus.NewRegistry()))
	assert.Contains(t, out.String(), "succeeded: 0, failed: 0, cancelled: 3")
}

func TestRunBatchRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()

	var out bytes.Buffer
	err := runBatch(context.Background(), cfg, &out, prometheus.NewRegistry())
	assert.True(t, errors.Is(err, errNoTasks))
	assert.Empty(t, out.String())
}

func TestSimulate(t *testing.T) {
	v, err := simulate(TaskSpec{Name: "ok", Value: "done"})()
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	_, err = simulate(TaskSpec{Name: "bad", Fail: true})()
	assert.EqualError(t, err, "task bad failed")

	assert.Panics(t, func() {
		_, _ = simulate(TaskSpec{Name: "boom", Panic: true})()
	})
}

func TestTaskName(t *testing.T) {
	tasks := []TaskSpec{{Name: "first"}, {}}
	assert.Equal(t, "first", taskName(tasks, 0))
	assert.Equal(t, "task-1", taskName(tasks, 1))
	assert.Equal(t, "task-7", taskName(tasks, 7))
}

// ============================================================================
// Bench
// ============================================================================

func TestBenchRespectsConcurrency(t *testing.T) {
	report, err := bench(context.Background(), 30, 3, 2*time.Millisecond, 10)
	require.NoError(t, err)

	assert.Equal(t, 30, report.Count)
	assert.Equal(t, 3, report.MaxConcurrency)
	assert.LessOrEqual(t, report.PeakObserved, 3)
	assert.GreaterOrEqual(t, report.PeakObserved, 1)
	assert.Equal(t, 3, report.Failed)
}

func TestBenchInvalidConcurrency(t *testing.T) {
	_, err := bench(context.Background(), 10, 0, 0, 0)
	assert.ErrorIs(t, err, types.ErrInvalidConcurrency)
}

func TestRunBenchOutput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runBench(context.Background(), &out, 5, 2, time.Millisecond, 0))
	assert.Contains(t, out.String(), "tasks:            5")
	assert.Contains(t, out.String(), "throughput:")
}
