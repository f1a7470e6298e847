// Package suggest turns probe metadata plus current trends into
// accept/reject editing suggestions. The model's reply is expected to
// contain JSON; when it doesn't, a minimal hardcoded set stands in so
// the caller always gets something actionable.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"trendle/internal/domain"
	"trendle/internal/gateway"
	"trendle/internal/media"
	"trendle/internal/store"
	"trendle/internal/trends"
)

const analysisPrompt = `You are a personal director helping content creators make viral short-form videos. You provide advice on: 1) What content to create, 2) Where to cut (pauses, filler words, awkward silences), 3) Which trending audio to use, 4) How to structure their footage. Your advice is practical, specific, and focused on maximizing engagement. Always structure your suggestions as JSON with clear reasoning.`

// Analysis is the full result of one video analysis.
type Analysis struct {
	VideoID           string                `json:"video_id"`
	RecommendedFormat trends.TrendingFormat `json:"recommended_format"`
	FormatReasoning   string                `json:"format_reasoning,omitempty"`
	Suggestions       []domain.Suggestion   `json:"suggestions"`
}

// Analyzer runs analyses and manages suggestion status.
type Analyzer struct {
	Store   store.Store
	Gateway gateway.Client
	Media   media.Service
	Trends  *trends.Service
	Now     func() time.Time
}

func NewAnalyzer(st store.Store, gw gateway.Client, med media.Service, tr *trends.Service, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{Store: st, Gateway: gw, Media: med, Trends: tr, Now: now}
}

// Analyze probes the video when a path is known, asks the model for
// suggestions grounded in current trends, and persists whatever comes
// back. A reply that fails to parse falls back to the minimal set; that
// is logged, never surfaced as an error.
func (a *Analyzer) Analyze(ctx context.Context, videoID, videoPath, userContext string) (Analysis, error) {
	var meta media.Metadata
	if videoPath != "" && a.Media != nil {
		if m, err := a.Media.Probe(ctx, videoPath); err == nil {
			meta = m
		} else {
			log.Printf("suggest: probe %s failed: %v", videoPath, err)
		}
	}

	formats := a.Trends.Formats(ctx)
	hashtags := a.Trends.Hashtags(ctx, 10)
	prompt := buildPrompt(videoID, meta, userContext, formats, hashtags)

	reply, err := a.Gateway.Chat(ctx, analysisPrompt, videoID, prompt)
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis reply: %w", err)
	}

	parsed, ok := parseReply(reply)
	if !ok {
		log.Printf("suggest: reply for %s is not valid JSON, using fallback set", videoID)
		parsed = fallbackReply()
	}

	res := Analysis{
		VideoID:           videoID,
		RecommendedFormat: resolveFormat(parsed.RecommendedFormat.ID, formats),
		FormatReasoning:   parsed.RecommendedFormat.Reasoning,
	}
	ts := a.Now().UTC().Format(time.RFC3339)
	for _, raw := range parsed.Suggestions {
		sg := domain.Suggestion{
			ID:          uuid.NewString(),
			VideoID:     videoID,
			Type:        raw.Type,
			Title:       raw.Title,
			Description: raw.Description,
			Confidence:  raw.ConfidenceScore,
			Status:      "pending",
			CreatedAt:   ts,
		}
		if err := a.Store.InsertSuggestion(ctx, sg); err != nil {
			return Analysis{}, err
		}
		res.Suggestions = append(res.Suggestions, sg)
	}
	return res, nil
}

func (a *Analyzer) Accept(ctx context.Context, suggestionID string) error {
	return a.Store.UpdateSuggestionStatus(ctx, suggestionID, "accepted")
}

func (a *Analyzer) Reject(ctx context.Context, suggestionID string) error {
	return a.Store.UpdateSuggestionStatus(ctx, suggestionID, "rejected")
}

func (a *Analyzer) List(ctx context.Context, videoID string) ([]domain.Suggestion, error) {
	return a.Store.ListSuggestions(ctx, videoID)
}

type rawReply struct {
	RecommendedFormat struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Reasoning string `json:"reasoning"`
	} `json:"recommended_format"`
	Suggestions []rawSuggestion `json:"suggestions"`
}

type rawSuggestion struct {
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Content         string  `json:"content"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// parseReply digs the JSON object out of a reply that may carry prose
// before and after it.
func parseReply(reply string) (rawReply, bool) {
	var parsed rawReply
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return parsed, false
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return parsed, false
	}
	if len(parsed.Suggestions) == 0 {
		return parsed, false
	}
	return parsed, true
}

func fallbackReply() rawReply {
	var r rawReply
	r.RecommendedFormat.Reasoning = "This format has the highest engagement rates currently."
	r.Suggestions = []rawSuggestion{
		{
			Type:            "script",
			Title:           "Add Hook",
			Description:     "Start with attention-grabbing statement",
			Content:         "Open with 'Stop scrolling!' or surprising fact",
			Reasoning:       "First 3 seconds determine if viewers keep watching",
			ConfidenceScore: 0.85,
		},
		{
			Type:            "text_overlay",
			Title:           "Add Key Points",
			Description:     "Overlay text for main message",
			Content:         "Use bold text at 0:05, 0:15, 0:25",
			Reasoning:       "80% of short-form video is watched without sound",
			ConfidenceScore: 0.90,
		},
	}
	return r
}

func resolveFormat(id string, formats []trends.TrendingFormat) trends.TrendingFormat {
	for _, f := range formats {
		if f.ID == id {
			return f
		}
	}
	if len(formats) > 0 {
		return formats[0]
	}
	return trends.TrendingFormat{}
}

func buildPrompt(videoID string, meta media.Metadata, userContext string, formats []trends.TrendingFormat, hashtags []trends.Hashtag) string {
	var formatLines []string
	for i, f := range formats {
		if i == 3 {
			break
		}
		formatLines = append(formatLines, fmt.Sprintf("%d. %s: %s\n   Structure: %s", i+1, f.Name, f.Description, f.Structure))
	}
	var tagNames []string
	for _, h := range hashtags {
		tagNames = append(tagNames, h.Hashtag)
	}
	duration := "unknown"
	if meta.Duration > 0 {
		duration = fmt.Sprintf("%.1f", meta.Duration)
	}
	return fmt.Sprintf(`You are analyzing a video for content optimization.

**USER'S CONTEXT:**
%s

**VIDEO INFO:**
- Video: %s
- Duration: %s seconds

**TOP TRENDING FORMATS RIGHT NOW:**
%s

**TRENDING HASHTAGS:**
%s

**YOUR TASK:**
Recommend the best trending format for this content and generate specific, actionable editing suggestions (cuts, audio, text overlays, shots to re-record). Each suggestion needs a confidence score between 0.0 and 1.0.

Respond in this JSON format:
{
  "recommended_format": {"id": "format-id-from-list", "name": "Format Name", "reasoning": "Why this fits"},
  "suggestions": [
    {"type": "script", "title": "Brief title", "description": "What to do", "content": "Exact details", "reasoning": "Why", "confidence_score": 0.85}
  ]
}`, userContext, videoID, duration, strings.Join(formatLines, "\n"), strings.Join(tagNames, ", "))
}
