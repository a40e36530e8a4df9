package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	hitsBefore := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	missBefore := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	IncCacheLookup(true)
	IncCacheLookup(false)
	IncCacheLookup(false)
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))

	before := testutil.ToFloat64(resolutions.WithLabelValues(TierFallback))
	IncResolution(TierFallback)
	assert.Equal(t, before+1, testutil.ToFloat64(resolutions.WithLabelValues(TierFallback)))

	dropped := testutil.ToFloat64(recordsDropped)
	IncRecordDropped()
	assert.Equal(t, dropped+1, testutil.ToFloat64(recordsDropped))
}

func TestObservers(t *testing.T) {
	ObserveAdapter("rag", time.Now().Add(-120*time.Millisecond), true)
	ObserveConfidence(95)

	assert.Equal(t, 1, testutil.CollectAndCount(confidence))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(adapterLatency), 1)
}
