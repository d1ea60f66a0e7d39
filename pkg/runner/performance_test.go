// ============================================================================
// Runner Performance Tests
// ============================================================================
//
// TestRunThroughput:
//   400 tasks of ~10ms each at K=8. Ideal wall time is 500ms; the target is
//   at least 100 tasks/s, leaving room for slow CI machines.
//
// TestRunThroughputScalesWithConcurrency:
//   the same batch at K=1 and K=16 must be clearly faster at K=16.
//
// ============================================================================

package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepers(n int, d time.Duration, failRate int) []Func[int] {
	fns := make([]Func[int], n)
	for i := range fns {
		fns[i] = func() (int, error) {
			time.Sleep(d)
			if failRate > 0 && i%failRate == 0 {
				return 0, errors.New("simulated failure")
			}
			return i, nil
		}
	}
	return fns
}

func TestRunThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping throughput test in short mode")
	}

	const total = 400
	r := mustRunner(t, 8)

	start := time.Now()
	outcomes := Run(context.Background(), r, sleepers(total, 10*time.Millisecond, 10), RunConfig[int]{})
	elapsed := time.Since(start)

	require.Len(t, outcomes, total)
	failed := 0
	for _, o := range outcomes {
		if o.IsFailure() {
			failed++
		}
	}
	throughput := float64(total) / elapsed.Seconds()

	t.Logf("=== Throughput ===")
	t.Logf("Total: %d, failed: %d", total, failed)
	t.Logf("Elapsed: %v", elapsed)
	t.Logf("Throughput: %.2f tasks/s", throughput)

	assert.Equal(t, total/10, failed)
	assert.GreaterOrEqual(t, throughput, 100.0)
}

func TestRunThroughputScalesWithConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping throughput test in short mode")
	}

	measure := func(k int) time.Duration {
		start := time.Now()
		Run(context.Background(), mustRunner(t, k), sleepers(32, 5*time.Millisecond, 0), RunConfig[int]{})
		return time.Since(start)
	}

	serial := measure(1)
	parallel := measure(16)
	t.Logf("K=1: %v, K=16: %v", serial, parallel)

	assert.Less(t, parallel, serial/2)
}

func BenchmarkRunSleepers(b *testing.B) {
	r, err := New(16)
	require.NoError(b, err)
	fns := sleepers(64, time.Millisecond, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Run(context.Background(), r, fns, RunConfig[int]{})
	}
}
