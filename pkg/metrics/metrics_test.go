package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.itemsSubmitted, "itemsSubmitted counter should be initialized")
	assert.NotNil(t, collector.itemsStarted, "itemsStarted counter should be initialized")
	assert.NotNil(t, collector.itemsSucceeded, "itemsSucceeded counter should be initialized")
	assert.NotNil(t, collector.itemsFailed, "itemsFailed counter should be initialized")
	assert.NotNil(t, collector.itemsCancelled, "itemsCancelled counter should be initialized")
	assert.NotNil(t, collector.itemLatency, "itemLatency histogram should be initialized")
	assert.NotNil(t, collector.batchDuration, "batchDuration gauge should be initialized")
	assert.NotNil(t, collector.itemsPending, "itemsPending gauge should be initialized")
	assert.NotNil(t, collector.itemsInFlight, "itemsInFlight gauge should be initialized")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	assert.Panics(t, func() { NewCollector(reg) }, "registering twice on one registry should panic")
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSubmitted(10)
	for i := 0; i < 4; i++ {
		c.RecordStarted()
	}
	c.RecordSucceeded(10 * time.Millisecond)
	c.RecordSucceeded(20 * time.Millisecond)
	c.RecordFailed(5 * time.Millisecond)
	c.RecordCancelled()
	c.RecordCancelled()

	assert.Equal(t, 10.0, testutil.ToFloat64(c.itemsSubmitted))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.itemsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.itemsSucceeded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.itemsFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.itemsCancelled))
	assert.Equal(t, 1, testutil.CollectAndCount(c.itemLatency))
}

func TestCollectorGauges(t *testing.T) {
	testCases := []struct {
		name     string
		pending  []int
		inFlight []int
		wantPend float64
		wantFly  float64
	}{
		{"zero values", nil, nil, 0, 0},
		{"queued only", []int{50}, nil, 50, 0},
		{"drained", []int{5, -5}, []int{1, -1}, 0, 0},
		{"mixed", []int{10, -3}, []int{1, 1, 1, -1}, 7, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCollector(prometheus.NewRegistry())
			for _, d := range tc.pending {
				c.AddPending(d)
			}
			for _, d := range tc.inFlight {
				c.AddInFlight(d)
			}
			assert.Equal(t, tc.wantPend, testutil.ToFloat64(c.itemsPending))
			assert.Equal(t, tc.wantFly, testutil.ToFloat64(c.itemsInFlight))
		})
	}
}

func TestSetBatchDuration(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.SetBatchDuration(1500 * time.Millisecond)

	assert.Equal(t, 1.5, testutil.ToFloat64(c.batchDuration))
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}

	assert.NotPanics(t, func() {
		r.RecordSubmitted(1)
		r.RecordStarted()
		r.RecordSucceeded(time.Millisecond)
		r.RecordFailed(time.Millisecond)
		r.RecordCancelled()
		r.AddPending(1)
		r.AddInFlight(1)
		r.SetBatchDuration(time.Second)
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSubmitted(3)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "threadspark_items_submitted_total 3")
}
