// Package catalog holds the viral format templates and the matching
// logic that scores them against a user's stated goal.
package catalog

import (
	"strings"

	"trendle/internal/domain"
)

// QueryFilter narrows the catalog. Zero values mean "no constraint".
type QueryFilter struct {
	Platform    string
	Tags        []string
	MinDuration int
	MaxDuration int
}

// Query filters formats the way the catalog store is queried: platform
// must be a member of platform_fit, tags intersect, and the duration
// bounds apply to the format's minimum duration.
func Query(formats []domain.Format, f QueryFilter) []domain.Format {
	var res []domain.Format
	for _, fmtEntry := range formats {
		if f.Platform != "" && !containsFold(fmtEntry.PlatformFit, f.Platform) {
			continue
		}
		if len(f.Tags) > 0 && !intersects(fmtEntry.Tags, f.Tags) {
			continue
		}
		if f.MinDuration > 0 && fmtEntry.DurationRange[0] < f.MinDuration {
			continue
		}
		if f.MaxDuration > 0 && fmtEntry.DurationRange[0] > f.MaxDuration {
			continue
		}
		res = append(res, fmtEntry)
	}
	return res
}

// Score rates how well a format fits the request, 0 to 100:
// 40 points for platform membership, 10 per distinct product-type token
// found in the tag set (capped at 30), and up to 30 scaled from the
// format's viral score. Goal text is deliberately not inspected; the
// matcher is shallow token matching by design.
func Score(goal, productType, platform string, f domain.Format) float64 {
	score := 0.0
	if containsFold(f.PlatformFit, platform) {
		score += 40
	}
	// Tag overlap is a set intersection; repeating a token earns nothing.
	matched := map[string]bool{}
	for _, token := range strings.Fields(strings.ToLower(productType)) {
		if !matched[token] && containsFold(f.Tags, token) {
			matched[token] = true
		}
	}
	tagPoints := float64(len(matched) * 10)
	if tagPoints > 30 {
		tagPoints = 30
	}
	score += tagPoints
	score += f.Metrics.ViralScore / 100 * 30
	if score > 100 {
		score = 100
	}
	return score
}

// BestMatch returns the highest-scoring candidate. Ties keep the first
// occurrence in catalog order. ok is false when candidates is empty.
func BestMatch(goal, productType, platform string, candidates []domain.Format) (domain.Format, float64, bool) {
	var best domain.Format
	bestScore := -1.0
	for _, f := range candidates {
		s := Score(goal, productType, platform, f)
		if s > bestScore {
			best = f
			bestScore = s
		}
	}
	if bestScore < 0 {
		return domain.Format{}, 0, false
	}
	return best, bestScore, true
}

// Fallback synthesizes a minimal single-take format for goals no catalog
// entry covers, so a project is never dead-ended at its first stage.
func Fallback(platform string) domain.Format {
	if platform == "" {
		platform = "YouTube"
	}
	return domain.Format{
		FormatID:      "custom_single_take",
		Name:          "Custom Single Take",
		Description:   "A single continuous take covering your message from hook to call to action",
		PlatformFit:   []string{platform},
		DurationRange: [2]int{15, 90},
		Structure: []domain.SegmentTemplate{
			{
				Segment:        "full_take",
				Duration:       60,
				ScriptTemplate: "Open with your strongest hook, explain what you offer and who it helps, then tell viewers exactly what to do next",
				VisualGuide:    "Speak directly to camera in one continuous shot, good lighting, minimal background",
				Required:       true,
			},
		},
		Tags:        []string{"custom", "single-take"},
		Metrics:     domain.SuccessMetrics{ViralScore: 50},
		Synthesized: true,
	}
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range b {
		if containsFold(a, x) {
			return true
		}
	}
	return false
}
