package catalog_test

import (
	"math"
	"testing"

	"trendle/internal/catalog"
	"trendle/internal/domain"
)

func TestScoreWithinBounds(t *testing.T) {
	inputs := []struct {
		goal, product, platform string
	}{
		{"", "", ""},
		{"launch my app", "b2b saas startup demo professional extra tokens", "YouTube"},
		{"anything", "consumer", "TikTok"},
	}
	for _, f := range catalog.Seed() {
		for _, in := range inputs {
			s := catalog.Score(in.goal, in.product, in.platform, f)
			if s < 0 || s > 100 {
				t.Fatalf("score out of bounds for %s: %v", f.FormatID, s)
			}
		}
	}
}

func TestPlatformMembershipDominates(t *testing.T) {
	base := domain.Format{
		FormatID:    "a",
		PlatformFit: []string{"YouTube"},
		Tags:        []string{"saas"},
		Metrics:     domain.SuccessMetrics{ViralScore: 50},
	}
	other := base
	other.FormatID = "b"
	other.PlatformFit = []string{"TikTok"}

	withPlatform := catalog.Score("goal", "saas", "YouTube", base)
	without := catalog.Score("goal", "saas", "YouTube", other)
	if withPlatform-without < 40 {
		t.Fatalf("expected >=40 point platform gap, got %v - %v", withPlatform, without)
	}
}

func TestScoreWorkedExample(t *testing.T) {
	// Platform member, two tag tokens overlap, viral score 85:
	// 40 + 20 + 25.5 = 85.5
	f := domain.Format{
		FormatID:    "ex",
		PlatformFit: []string{"YouTube"},
		Tags:        []string{"b2b", "saas", "startup"},
		Metrics:     domain.SuccessMetrics{ViralScore: 85},
	}
	got := catalog.Score("demo video for my company", "b2b saas", "YouTube", f)
	if math.Abs(got-85.5) > 1e-9 {
		t.Fatalf("expected 85.5, got %v", got)
	}
}

func TestRepeatedTokensCountOnce(t *testing.T) {
	f := domain.Format{
		FormatID:    "dup",
		PlatformFit: []string{"YouTube"},
		Tags:        []string{"saas"},
		Metrics:     domain.SuccessMetrics{ViralScore: 0},
	}
	got := catalog.Score("", "saas saas", "None", f)
	if got != 10 {
		t.Fatalf("duplicate tokens should score once, got %v want 10", got)
	}
}

func TestTagPointsCapped(t *testing.T) {
	f := domain.Format{
		PlatformFit: []string{"YouTube"},
		Tags:        []string{"a", "b", "c", "d", "e"},
		Metrics:     domain.SuccessMetrics{ViralScore: 0},
	}
	got := catalog.Score("", "a b c d e", "YouTube", f)
	if got != 70 { // 40 platform + 30 capped tags
		t.Fatalf("expected cap at 70, got %v", got)
	}
}

func TestBestMatchFirstWinsOnTie(t *testing.T) {
	a := domain.Format{FormatID: "first", PlatformFit: []string{"TikTok"}, Metrics: domain.SuccessMetrics{ViralScore: 80}}
	b := domain.Format{FormatID: "second", PlatformFit: []string{"TikTok"}, Metrics: domain.SuccessMetrics{ViralScore: 80}}
	best, _, ok := catalog.BestMatch("goal", "", "TikTok", []domain.Format{a, b})
	if !ok || best.FormatID != "first" {
		t.Fatalf("expected first format to win tie, got %+v ok=%v", best, ok)
	}
}

func TestBestMatchEmpty(t *testing.T) {
	_, _, ok := catalog.BestMatch("goal", "saas", "YouTube", nil)
	if ok {
		t.Fatalf("expected no match on empty candidates")
	}
}

func TestQueryByPlatform(t *testing.T) {
	got := catalog.Query(catalog.Seed(), catalog.QueryFilter{Platform: "LinkedIn"})
	if len(got) != 1 || got[0].FormatID != "yc_demo_classic" {
		t.Fatalf("expected only yc_demo_classic for LinkedIn, got %d", len(got))
	}
}

func TestFallbackIsSingleRequiredSegment(t *testing.T) {
	f := catalog.Fallback("TikTok")
	if !f.Synthesized {
		t.Fatalf("expected synthesized flag")
	}
	if len(f.Structure) != 1 || !f.Structure[0].Required {
		t.Fatalf("expected one required segment, got %+v", f.Structure)
	}
	if f.PlatformFit[0] != "TikTok" {
		t.Fatalf("expected platform carried through")
	}
}
