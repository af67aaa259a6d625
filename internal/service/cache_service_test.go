package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

type stubCacheRepo struct {
	store    map[string][]byte
	getErr   error
	setCalls int
	patterns []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{store: map[string][]byte{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.patterns = append(s.patterns, pattern)
	removed := 0
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
			removed++
		}
	}
	return removed, nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newStubCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"total": 4}, 0))
	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, out["total"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 1e-9)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newStubCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	assert.Zero(t, repo.setCalls)
	assert.False(t, cache.Enabled())

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newStubCacheRepo()
	repo.getErr = errors.New("connection refused")
	cache := NewCacheService(repo, nil, 0, nil, true)

	var out int
	hit, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateKPIs(t *testing.T) {
	repo := newStubCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, KPICacheKey("students", nil), 1, 0))
	require.NoError(t, cache.Set(ctx, "other:key", 1, 0))
	cache.InvalidateKPIs(ctx)

	assert.Equal(t, []string{"scas:kpi:*"}, repo.patterns)
	assert.Len(t, repo.store, 1)

	removed, err := cache.Invalidate(ctx, "other:*")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, repo.store)
}

func TestKPICacheKeyIsOrderInsensitive(t *testing.T) {
	a := KPICacheKey("students", models.Selection{
		"Program": {"BSc", "BA"},
		"Year":    {"2"},
	})
	b := KPICacheKey("students", models.Selection{
		"Year":    {"2"},
		"Program": {"BA", "BSc"},
		"Status":  {},
	})
	c := KPICacheKey("students", models.Selection{"Program": {"BA"}})
	d := KPICacheKey("faculty", models.Selection{"Program": {"BA"}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, c, d)
	assert.True(t, strings.HasPrefix(a, "scas:kpi:students:"))
}
