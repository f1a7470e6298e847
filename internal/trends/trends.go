// Package trends serves trending hashtags and content formats. Live
// platform data is rarely reachable, so a curated dataset backs every
// answer; a TTL cache keeps repeated reads cheap either way.
package trends

import (
	"context"
	"sync"
	"time"
)

// Hashtag is one trending tag with rough reach numbers.
type Hashtag struct {
	Hashtag         string  `json:"hashtag"`
	VideoCount      int64   `json:"video_count"`
	EngagementScore float64 `json:"engagement_score"`
}

// FormatMetrics are observed performance numbers for a trending format.
type FormatMetrics struct {
	AvgCompletionRate float64 `json:"avg_completion_rate"`
	AvgEngagement     float64 `json:"avg_engagement"`
	ViralPotential    float64 `json:"viral_potential"`
}

// TrendingFormat is a content pattern currently performing well.
type TrendingFormat struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Structure     string        `json:"structure"`
	Examples      []string      `json:"examples"`
	Metrics       FormatMetrics `json:"performance_metrics"`
	BestPractices []string      `json:"best_practices"`
}

// Fetcher pulls live trend data. Implementations may fail freely; the
// service falls back to the curated set.
type Fetcher interface {
	FetchHashtags(ctx context.Context, limit int) ([]Hashtag, error)
}

// Service answers trend queries with a TTL cache in front of either a
// live fetcher or the curated data.
type Service struct {
	Fetcher Fetcher
	TTL     time.Duration
	Now     func() time.Time

	mu        sync.Mutex
	hashtags  []Hashtag
	formats   []TrendingFormat
	refreshed time.Time
}

func NewService(fetcher Fetcher, ttl time.Duration, now func() time.Time) *Service {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Service{Fetcher: fetcher, TTL: ttl, Now: now}
}

func (s *Service) cacheValid() bool {
	return !s.refreshed.IsZero() && s.Now().Sub(s.refreshed) < s.TTL
}

// Hashtags returns up to limit trending hashtags, most engaged first.
func (s *Service) Hashtags(ctx context.Context, limit int) []Hashtag {
	if limit <= 0 || limit > len(curatedHashtags) {
		limit = len(curatedHashtags)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheValid() && len(s.hashtags) > 0 {
		return clip(s.hashtags, limit)
	}
	if s.Fetcher != nil {
		if live, err := s.Fetcher.FetchHashtags(ctx, limit); err == nil && len(live) > 0 {
			s.hashtags = live
			s.refreshed = s.Now()
			return clip(live, limit)
		}
	}
	s.hashtags = curatedHashtags
	s.refreshed = s.Now()
	return clip(curatedHashtags, limit)
}

// Formats returns the curated trending content formats.
func (s *Service) Formats(ctx context.Context) []TrendingFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheValid() && len(s.formats) > 0 {
		return s.formats
	}
	s.formats = curatedFormats
	s.refreshed = s.Now()
	return s.formats
}

func clip(h []Hashtag, limit int) []Hashtag {
	if len(h) > limit {
		return h[:limit]
	}
	return h
}
