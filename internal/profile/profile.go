// Package profile runs the conversational brand-discovery loop. Each
// turn sends the user's message to the language model for a reply,
// extracts profile fields heuristically from the same message, and
// recomputes per-field confidence from the stored values.
package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"trendle/internal/domain"
)

// Confidence maps a stored field value to a score. Longer answers are
// assumed to carry more signal; the buckets are coarse on purpose.
func Confidence(value string) float64 {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	n := utf8.RuneCountInString(value)
	switch {
	case n < 10:
		return 30
	case n < 30:
		return 60
	default:
		return 90
	}
}

// Scores recomputes the per-field confidence map plus the "overall"
// aggregate, the mean over all five canonical fields with missing
// fields counting as zero.
func Scores(data map[string]string) map[string]float64 {
	out := make(map[string]float64, len(domain.ProfileFields)+1)
	var sum float64
	for _, field := range domain.ProfileFields {
		c := Confidence(data[field])
		out[field] = c
		sum += c
	}
	out["overall"] = sum / float64(len(domain.ProfileFields))
	return out
}

var (
	knownPlatforms = []string{"tiktok", "instagram", "youtube", "linkedin", "twitter", "facebook"}
	knownVibes     = []string{"professional", "casual", "fun", "playful", "edgy", "educational", "trustworthy", "authentic", "energetic", "calm", "inspiring"}
	productCues    = []string{"app", "service", "product", "brand", "business", "company"}
	audienceCues   = []string{"professional", "students", "young", "adults", "teenagers", "working", "entrepreneurs", "parents"}
	targetCues     = []string{"targeting", "for", "age", "demographic"}
)

// Extract pulls profile fields out of a single user message using fixed
// keyword lists. It returns only the fields the message gave evidence
// for; the model's conversational reply is never parsed.
func Extract(message string) map[string]string {
	lower := strings.ToLower(message)
	out := map[string]string{}

	if hits := matchAll(lower, knownPlatforms); len(hits) > 0 {
		out["platform"] = titleJoin(hits)
	}
	if hits := matchAll(lower, knownVibes); len(hits) > 0 {
		out["vibes"] = titleJoin(hits)
	}
	if containsAny(lower, productCues) {
		out["product"] = snippet(message)
	}
	if containsAny(lower, audienceCues) {
		out["audience"] = snippet(message)
	}
	if containsAny(lower, targetCues) {
		out["target_customer"] = snippet(message)
	}
	return out
}

func matchAll(lower string, vocab []string) []string {
	var hits []string
	for _, w := range vocab {
		if strings.Contains(lower, w) {
			hits = append(hits, w)
		}
	}
	return hits
}

func containsAny(lower string, vocab []string) bool {
	for _, w := range vocab {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func titleJoin(words []string) string {
	titled := make([]string, len(words))
	for i, w := range words {
		titled[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(titled, ", ")
}

// snippet keeps the evidence cheap to store and display.
func snippet(message string) string {
	runes := []rune(message)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}

// Summarize builds the final profile summary. It refuses unless every
// field individually clears the threshold, even when the aggregate
// already does; the second return value lists the fields still short.
func Summarize(sess domain.ProfileSession, threshold float64, generatedAt string) (*domain.ProfileSummary, []string) {
	var missing []string
	for _, field := range domain.ProfileFields {
		if Confidence(sess.ProfileData[field]) < threshold {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}
	scores := Scores(sess.ProfileData)
	return &domain.ProfileSummary{
		TargetCustomer:   sess.ProfileData["target_customer"],
		Product:          sess.ProfileData["product"],
		Audience:         sess.ProfileData["audience"],
		Platform:         sess.ProfileData["platform"],
		Vibes:            sess.ProfileData["vibes"],
		ConfidenceScores: scores,
		GeneratedAt:      generatedAt,
	}, nil
}

// ContextBlock renders the current profile state for the model's system
// prompt. Fields without a value show as "Not yet collected".
func ContextBlock(sess domain.ProfileSession) string {
	var sb strings.Builder
	sb.WriteString("Current profile state:\n")
	for _, field := range domain.ProfileFields {
		v := sess.ProfileData[field]
		if strings.TrimSpace(v) == "" {
			v = "Not yet collected"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", field, v)
	}
	return sb.String()
}
