package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romaudit/internal/store"
)

func TestRecordScanDuration(t *testing.T) {
	start := time.Now().Add(-100 * time.Millisecond)
	assert.NotPanics(t, func() { RecordScanDuration("test-dat", start) })
}

func TestFilesProcessedCounter(t *testing.T) {
	FilesProcessed.WithLabelValues("test-dat", "matched").Inc()
	v := testutil.ToFloat64(FilesProcessed.WithLabelValues("test-dat", "matched"))
	assert.GreaterOrEqual(t, v, float64(1))
}

func TestGaugesExist(t *testing.T) {
	DatsTotal.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(DatsTotal))

	SetsTotal.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(SetsTotal))

	RomsTotal.Set(50)
	assert.Equal(t, float64(50), testutil.ToFloat64(RomsTotal))

	FilesTotal.Set(40)
	assert.Equal(t, float64(40), testutil.ToFloat64(FilesTotal))
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, Snapshot(ctx, s.Conn()))
	assert.Equal(t, float64(0), testutil.ToFloat64(DatsTotal))
}
