package suggest

import (
	"context"
	"testing"
	"time"

	"trendle/internal/db"
	"trendle/internal/gateway"
	"trendle/internal/media"
	"trendle/internal/migrate"
	"trendle/internal/store"
	"trendle/internal/trends"
)

func newTestAnalyzer(t *testing.T, gw gateway.Client) *Analyzer {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	tr := trends.NewService(nil, time.Hour, now)
	return NewAnalyzer(store.Store{DB: conn}, gw, &media.Fake{}, tr, now)
}

const goodReply = `Here is my analysis:
{
  "recommended_format": {"id": "transformation", "name": "Before → After Transformation", "reasoning": "The footage shows a clear change"},
  "suggestions": [
    {"type": "timestamp", "title": "Cut opening pause", "description": "Remove the silence before the first line", "confidence_score": 0.8},
    {"type": "audio", "title": "Add trending audio", "description": "Layer an upbeat track under the demo", "confidence_score": 0.7}
  ]
}
Good luck!`

func TestAnalyzeParsesModelReply(t *testing.T) {
	a := newTestAnalyzer(t, &gateway.Static{Reply: goodReply})
	res, err := a.Analyze(context.Background(), "vid-1", "", "Launching my app")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.RecommendedFormat.ID != "transformation" {
		t.Fatalf("recommended format = %q", res.RecommendedFormat.ID)
	}
	if len(res.Suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(res.Suggestions))
	}
	stored, err := a.List(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored suggestions = %d", len(stored))
	}
	for _, s := range stored {
		if s.Status != "pending" {
			t.Fatalf("status = %q, want pending", s.Status)
		}
	}
}

func TestAnalyzeFallsBackOnUnparsableReply(t *testing.T) {
	a := newTestAnalyzer(t, &gateway.Static{Reply: "Sorry, I can only answer in prose today."})
	res, err := a.Analyze(context.Background(), "vid-2", "", "")
	if err != nil {
		t.Fatalf("analyze should not fail on a parse error: %v", err)
	}
	if len(res.Suggestions) != 2 {
		t.Fatalf("suggestions = %d, want the fallback pair", len(res.Suggestions))
	}
	if res.Suggestions[0].Title != "Add Hook" || res.Suggestions[0].Confidence != 0.85 {
		t.Fatalf("first fallback = %+v", res.Suggestions[0])
	}
	if res.Suggestions[1].Title != "Add Key Points" || res.Suggestions[1].Confidence != 0.90 {
		t.Fatalf("second fallback = %+v", res.Suggestions[1])
	}
	// Unknown format id resolves to the top trending format.
	if res.RecommendedFormat.ID != "hook-problem-solution" {
		t.Fatalf("recommended format = %q", res.RecommendedFormat.ID)
	}
}

func TestAcceptRejectUpdateStatus(t *testing.T) {
	a := newTestAnalyzer(t, &gateway.Static{Reply: goodReply})
	ctx := context.Background()
	res, err := a.Analyze(ctx, "vid-3", "", "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := a.Accept(ctx, res.Suggestions[0].ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := a.Reject(ctx, res.Suggestions[1].ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	stored, _ := a.List(ctx, "vid-3")
	statuses := map[string]string{}
	for _, s := range stored {
		statuses[s.ID] = s.Status
	}
	if statuses[res.Suggestions[0].ID] != "accepted" {
		t.Fatalf("first status = %q", statuses[res.Suggestions[0].ID])
	}
	if statuses[res.Suggestions[1].ID] != "rejected" {
		t.Fatalf("second status = %q", statuses[res.Suggestions[1].ID])
	}
}

func TestAcceptUnknownSuggestionNotFound(t *testing.T) {
	a := newTestAnalyzer(t, &gateway.Static{})
	if err := a.Accept(context.Background(), "missing"); err != store.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
