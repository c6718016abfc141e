package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceRecordCacheOperation(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(false, 2*time.Millisecond)
	m.RecordCacheOperation(false, 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestMetricsServiceImportCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveImportBatch("SINGLE_SUBJECT")
	m.ObserveImportRow("SINGLE_SUBJECT", "CREATED")
	m.ObserveImportRow("SINGLE_SUBJECT", "REJECTED")
	m.ObserveImportRow("SINGLE_SUBJECT", "REJECTED")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.importBatches.WithLabelValues("SINGLE_SUBJECT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("SINGLE_SUBJECT", "CREATED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRows.WithLabelValues("SINGLE_SUBJECT", "REJECTED")))
}
