package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/gradebook-api/internal/ingest"
)

type stubScaleSource struct {
	scale ingest.Scale
	calls int
}

func (s *stubScaleSource) GetScale(ctx context.Context, academicLevelID string) (ingest.Scale, error) {
	s.calls++
	return s.scale, nil
}

type stubCacheRecorder struct {
	hits   int
	misses int
}

func (r *stubCacheRecorder) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func TestScaleCacheNilClientFallsThrough(t *testing.T) {
	source := &stubScaleSource{scale: ingest.Scale{Min: 1, Max: 5}}
	recorder := &stubCacheRecorder{}
	cache := NewScaleCache(source, nil, time.Minute, recorder, nil)

	scale, err := cache.GetScale(context.Background(), "level-11")
	require.NoError(t, err)
	assert.Equal(t, ingest.Scale{Min: 1, Max: 5}, scale)
	assert.Equal(t, 1, source.calls)
	// Without a client no lookup ran, so nothing is counted.
	assert.Equal(t, 0, recorder.hits)
	assert.Equal(t, 0, recorder.misses)
}

func TestScaleCacheUnreachableRedisCountsMiss(t *testing.T) {
	source := &stubScaleSource{scale: ingest.Scale{Min: 0, Max: 100}}
	recorder := &stubCacheRecorder{}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	cache := NewScaleCache(source, client, time.Minute, recorder, nil)

	scale, err := cache.GetScale(context.Background(), "level-11")
	require.NoError(t, err)
	assert.Equal(t, ingest.Scale{Min: 0, Max: 100}, scale)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 0, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
}
