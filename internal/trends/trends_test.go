package trends

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubFetcher struct {
	tags  []Hashtag
	err   error
	calls int
}

func (s *stubFetcher) FetchHashtags(ctx context.Context, limit int) ([]Hashtag, error) {
	s.calls++
	return s.tags, s.err
}

func TestHashtagsFallBackToCuratedOnFetchError(t *testing.T) {
	f := &stubFetcher{err: errors.New("blocked")}
	svc := NewService(f, time.Hour, nil)
	got := svc.Hashtags(context.Background(), 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].Hashtag != "fyp" {
		t.Fatalf("first tag = %q", got[0].Hashtag)
	}
}

func TestCacheSuppressesRefetchWithinTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	f := &stubFetcher{tags: []Hashtag{{Hashtag: "live", VideoCount: 1, EngagementScore: 0.5}}}
	svc := NewService(f, time.Hour, clock)

	svc.Hashtags(context.Background(), 1)
	svc.Hashtags(context.Background(), 1)
	if f.calls != 1 {
		t.Fatalf("fetcher called %d times within TTL", f.calls)
	}

	now = now.Add(2 * time.Hour)
	svc.Hashtags(context.Background(), 1)
	if f.calls != 2 {
		t.Fatalf("fetcher called %d times after TTL expiry", f.calls)
	}
}

func TestFormatsReturnFiveCuratedEntries(t *testing.T) {
	svc := NewService(nil, 0, nil)
	got := svc.Formats(context.Background())
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ID != "hook-problem-solution" {
		t.Fatalf("first format = %q", got[0].ID)
	}
}
