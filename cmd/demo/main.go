package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChuLiYu/threadspark/pkg/runner"
	"github.com/ChuLiYu/threadspark/pkg/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Runner struct {
		MaxConcurrency    int  `yaml:"max_concurrency"`
		SerializeProgress bool `yaml:"serialize_progress"`
	} `yaml:"runner"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/demo/main.go <progress|cancel|join>")
		os.Exit(1)
	}

	mode := os.Args[1]
	cfg, err := loadConfig("configs/default.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	r, err := runner.New(cfg.Runner.MaxConcurrency)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}
	fmt.Printf("✓ Runner ready (max concurrency: %d)\n", r.MaxConcurrency())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "progress":
		demoProgress(ctx, r, cfg.Runner.SerializeProgress)
	case "cancel":
		demoCancel(ctx, r)
	case "join":
		demoJoin(ctx, r)
	default:
		log.Fatalf("Unknown mode %q", mode)
	}
}

// demoProgress starts a batch without blocking and polls it while the
// progress callback prints each completion.
func demoProgress(ctx context.Context, r *runner.Runner, serialize bool) {
	fns := make([]runner.Func[time.Duration], 12)
	for i := range fns {
		d := time.Duration(50+(i*37)%200) * time.Millisecond
		fns[i] = func() (time.Duration, error) {
			time.Sleep(d)
			return d, nil
		}
	}

	h := runner.BeginRun(ctx, r, fns, runner.RunConfig[time.Duration]{
		SerializeProgress: serialize,
		Progress: func(item types.ProgressItem[time.Duration]) {
			v, _ := item.Outcome.Unwrap()
			fmt.Printf("  [%2d/%d] item %2d slept %s\n", item.CompletedCount, item.Total, item.Index, v)
		},
	})

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for !h.IsCompleted() {
		select {
		case <-h.Done():
		case <-ticker.C:
			fmt.Println("  ... still running")
		}
	}

	var total time.Duration
	for _, o := range h.Result() {
		v, _ := o.Unwrap()
		total += v
	}
	fmt.Printf("\n✓ All %d items done, %s of work\n", len(fns), total)
}

// demoCancel trips an external flag part way through. Items already
// running finish; the rest come back cancelled. Ctrl+C has the same effect.
func demoCancel(ctx context.Context, r *runner.Runner) {
	var flag runner.Flag
	fns := make([]runner.Func[int], 20)
	for i := range fns {
		fns[i] = func() (int, error) {
			time.Sleep(100 * time.Millisecond)
			return i, nil
		}
	}

	h := runner.BeginRun(ctx, r, fns, runner.RunConfig[int]{Cancel: &flag})

	time.Sleep(250 * time.Millisecond)
	flag.Request()
	fmt.Println("⚡ Cancellation requested")

	succeeded, cancelled := 0, 0
	for _, o := range h.Result() {
		if o.IsSuccess() {
			succeeded++
		} else if types.IsCancelled(o.Err()) {
			cancelled++
		}
	}
	fmt.Printf("\n📊 Succeeded: %d, Cancelled: %d\n", succeeded, cancelled)
}

// demoJoin runs three differently typed calls and collects them as a tuple.
func demoJoin(ctx context.Context, r *runner.Runner) {
	name, port, secure, err := runner.Join3(ctx, r,
		func() (string, error) { return "api.internal", nil },
		func() (int, error) { return 8443, nil },
		func() (bool, error) { return true, nil },
		runner.RunConfig[any]{},
	)
	if err != nil {
		log.Fatalf("Join failed: %v", err)
	}
	fmt.Printf("✓ %s:%d (tls=%v)\n", name, port, secure)
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
