package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	key := StatsCacheKey("complaints", "female", "7d")
	require.NoError(t, svc.Set(context.Background(), key, map[string]int{"total": 4}, 0))

	var out map[string]int
	hit, err := svc.Get(context.Background(), key, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, out["total"])

	var miss map[string]int
	hit, err = svc.Get(context.Background(), StatsCacheKey("complaints", "male", "7d"), &miss)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateSweepsResource(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), StatsCacheKey("complaints", "", ""), 1, 0))
	require.NoError(t, svc.Set(context.Background(), StatsCacheKey("outings", "", ""), 2, 0))

	require.NoError(t, svc.Invalidate(context.Background(), StatsCachePattern("complaints")))

	var out int
	hit, err := svc.Get(context.Background(), StatsCacheKey("complaints", "", ""), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = svc.Get(context.Background(), StatsCacheKey("outings", "", ""), &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCacheServiceDisabledAlwaysMisses(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, svc.Enabled())
}

func TestStatsCacheKeyDefaults(t *testing.T) {
	assert.Equal(t, "stats:complaints:all:overall", StatsCacheKey("complaints", "", ""))
	assert.Equal(t, "stats:outings:male:24h", StatsCacheKey("outings", "male", "24h"))
	assert.Equal(t, "stats:outings:*", StatsCachePattern("outings"))
}
