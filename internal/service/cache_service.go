package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

const (
	kpiCachePrefix  = "scas:kpi:"
	kpiCachePattern = kpiCachePrefix + "*"
)

// CacheRepository stores encoded payloads. Get returns appErrors.ErrCacheMiss for absent keys.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService fronts the dashboard payload cache: it times every lookup and write,
// and owns the key scheme shared by readers and invalidation.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service. enabled false turns every call into a no-op.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled reports whether lookups reach the repository.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes the entry at key into dest and reports whether it was found. Repository
// failures are returned alongside a false hit so callers can fall back to recomputing.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores value at key. ttl <= 0 uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes every entry matching pattern and returns how many went.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	removed, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Int("removed", removed), zap.Error(err))
		return removed, err
	}
	s.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("removed", removed))
	return removed, nil
}

// InvalidateKPIs drops every cached dashboard payload after a write to any collection.
// Failures are logged only; stale entries still expire with their TTL.
func (s *CacheService) InvalidateKPIs(ctx context.Context) {
	_, _ = s.Invalidate(ctx, kpiCachePattern)
}

// KPICacheKey derives a stable cache key for a dashboard view and filter selection.
// Field order and value order do not affect the key.
func KPICacheKey(view string, selection models.Selection) string {
	fields := make([]string, 0, len(selection))
	for field, values := range selection {
		if len(values) > 0 {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		values := append([]string(nil), selection[field]...)
		sort.Strings(values)
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, "\x1f"))
		b.WriteByte('\x1e')
	}

	sum := blake2b.Sum256([]byte(b.String()))
	return kpiCachePrefix + view + ":" + hex.EncodeToString(sum[:16])
}
