package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_CycleOutcomes(t *testing.T) {
	t.Parallel()

	recorder := New(prometheus.NewRegistry())

	recorder.RecordCycleSuccess(250*time.Millisecond, 1200)
	recorder.RecordCycleSuccess(300*time.Millisecond, 800)
	recorder.RecordCycleFailure(100 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.cyclesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.cyclesTotal.WithLabelValues("failure")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(recorder.recordsStored))
	assert.Greater(t, testutil.ToFloat64(recorder.lastCycleTime), 0.0)
}

func TestRecorder_FetchErrorsByEndpoint(t *testing.T) {
	t.Parallel()

	recorder := New(prometheus.NewRegistry())

	recorder.RecordFetchError("snapshot")
	recorder.RecordFetchError("snapshot")
	recorder.RecordFetchError("history")

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.fetchErrors.WithLabelValues("snapshot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.fetchErrors.WithLabelValues("history")))
}

func TestRecorder_MalformedRecords(t *testing.T) {
	t.Parallel()

	recorder := New(prometheus.NewRegistry())

	recorder.RecordMalformedRecords(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(recorder.malformedRecords))

	recorder.RecordMalformedRecords(3)
	recorder.RecordMalformedRecords(2)
	assert.Equal(t, 5.0, testutil.ToFloat64(recorder.malformedRecords))
}
