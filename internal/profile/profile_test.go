package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"trendle/internal/db"
	"trendle/internal/domain"
	"trendle/internal/events"
	"trendle/internal/gateway"
	"trendle/internal/migrate"
	"trendle/internal/store"
)

func testClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
}

func newTestAgent(t *testing.T, gw gateway.Client) (*Agent, *sql.DB) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := testClock()
	st := store.Store{DB: conn}
	ev := events.Writer{DB: conn, Now: now}
	return NewAgent(conn, st, ev, gw, 60, now), conn
}

func TestConfidenceBuckets(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"", 0},
		{"   ", 0},
		{"shrt", 30},
		{"123456789", 30},
		{"1234567890", 60},
		{"twelve chars!", 60},
		{strings.Repeat("x", 29), 60},
		{strings.Repeat("x", 30), 90},
		{"a detailed answer describing the product", 90},
	}
	for _, tc := range cases {
		if got := Confidence(tc.value); got != tc.want {
			t.Errorf("Confidence(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestScoresAggregateCountsMissingAsZero(t *testing.T) {
	data := map[string]string{
		"target_customer": strings.Repeat("a", 40),
		"product":         strings.Repeat("b", 40),
		"audience":        strings.Repeat("c", 40),
		"platform":        strings.Repeat("d", 40),
	}
	scores := Scores(data)
	if scores["vibes"] != 0 {
		t.Fatalf("missing field scored %v, want 0", scores["vibes"])
	}
	if scores["overall"] != 72 {
		t.Fatalf("overall = %v, want 72", scores["overall"])
	}
}

func TestExtractPlatformsAndVibes(t *testing.T) {
	got := Extract("I want fun TikTok and Instagram videos")
	if got["platform"] != "Tiktok, Instagram" {
		t.Errorf("platform = %q", got["platform"])
	}
	if got["vibes"] != "Fun" {
		t.Errorf("vibes = %q", got["vibes"])
	}
}

func TestExtractSnippetTruncatesAt100(t *testing.T) {
	msg := "Our product is " + strings.Repeat("x", 200)
	got := Extract(msg)
	if len([]rune(got["product"])) != 100 {
		t.Fatalf("product snippet length = %d, want 100", len([]rune(got["product"])))
	}
	if !strings.HasPrefix(got["product"], "Our product is ") {
		t.Fatalf("snippet should start with the message text, got %q", got["product"])
	}
}

func TestExtractIgnoresUnrelatedText(t *testing.T) {
	if got := Extract("Hello there!"); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
}

func TestProcessMessageAutoCreatesSession(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{Reply: "Nice, tell me more."})
	res, err := agent.ProcessMessage(context.Background(), "sess-1", "I want fun TikTok videos")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Message != "Nice, tell me more." {
		t.Fatalf("message = %q", res.Message)
	}
	sess, err := agent.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.Conversation) != 2 {
		t.Fatalf("conversation length = %d, want 2", len(sess.Conversation))
	}
	if sess.Conversation[0].Role != "user" || sess.Conversation[1].Role != "assistant" {
		t.Fatalf("conversation roles wrong: %+v", sess.Conversation)
	}
	if sess.ProfileData["platform"] != "Tiktok" {
		t.Fatalf("platform = %q", sess.ProfileData["platform"])
	}
}

func TestReplyIsNeverParsedForFields(t *testing.T) {
	// The model's reply names platforms; only the user's words count.
	agent, _ := newTestAgent(t, &gateway.Static{Reply: "Have you considered YouTube or LinkedIn?"})
	if _, err := agent.ProcessMessage(context.Background(), "sess-2", "Hello there!"); err != nil {
		t.Fatalf("process: %v", err)
	}
	sess, _ := agent.GetSession(context.Background(), "sess-2")
	if sess.ProfileData["platform"] != "" {
		t.Fatalf("platform should stay empty, got %q", sess.ProfileData["platform"])
	}
}

func TestLastWriteWinsPerField(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{})
	ctx := context.Background()
	if _, err := agent.ProcessMessage(ctx, "sess-3", "mostly tiktok"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := agent.ProcessMessage(ctx, "sess-3", "actually let's do youtube"); err != nil {
		t.Fatalf("second turn: %v", err)
	}
	sess, _ := agent.GetSession(ctx, "sess-3")
	if sess.ProfileData["platform"] != "Youtube" {
		t.Fatalf("platform = %q, want Youtube", sess.ProfileData["platform"])
	}
}

func TestSummaryRefusedWhileAnyFieldIsShort(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{})
	ctx := context.Background()
	long := strings.Repeat("detail ", 10)
	sess := domain.ProfileSession{
		SessionID: "sess-4",
		ProfileData: map[string]string{
			"target_customer": long,
			"product":         long,
			"audience":        long,
			"platform":        long,
		},
		CreatedAt: "2025-06-01T12:00:00Z",
		UpdatedAt: "2025-06-01T12:00:00Z",
	}
	if err := agent.Store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	res, err := agent.ProcessMessage(ctx, "sess-4", "Hello there!")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	// Aggregate is 72, above the threshold, but one field is still empty.
	if res.ConfidenceScores["overall"] != 72 {
		t.Fatalf("overall = %v, want 72", res.ConfidenceScores["overall"])
	}
	if res.SummaryStatus != SummaryIncomplete {
		t.Fatalf("summary status = %q, want %q", res.SummaryStatus, SummaryIncomplete)
	}
	if len(res.MissingFields) != 1 || res.MissingFields[0] != "vibes" {
		t.Fatalf("missing fields = %v", res.MissingFields)
	}
	if res.Summary != nil {
		t.Fatal("summary should not be generated")
	}
}

func TestSummaryGeneratedWhenEveryFieldClears(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{})
	ctx := context.Background()
	long := strings.Repeat("detail ", 10)
	sess := domain.ProfileSession{
		SessionID: "sess-5",
		ProfileData: map[string]string{
			"target_customer": long,
			"product":         long,
			"audience":        long,
			"platform":        long,
			"vibes":           long,
		},
		CreatedAt: "2025-06-01T12:00:00Z",
		UpdatedAt: "2025-06-01T12:00:00Z",
	}
	if err := agent.Store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	res, err := agent.ProcessMessage(ctx, "sess-5", "Hello there!")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.SummaryStatus != SummaryComplete {
		t.Fatalf("summary status = %q, want %q", res.SummaryStatus, SummaryComplete)
	}
	if res.Summary == nil || res.Summary.Platform == "" {
		t.Fatalf("summary = %+v", res.Summary)
	}
	stored, _ := agent.GetSession(ctx, "sess-5")
	if !stored.SummaryGenerated || stored.Summary == nil {
		t.Fatal("summary not persisted")
	}
}

func TestNoSummaryStatusBelowAggregateGate(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{Reply: "Tell me more."})
	res, err := agent.ProcessMessage(context.Background(), "sess-8", "I want fun TikTok videos")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.ConfidenceScores["overall"] >= 60 {
		t.Fatalf("overall = %v, expected below the gate", res.ConfidenceScores["overall"])
	}
	if res.SummaryStatus != "" {
		t.Fatalf("summary status = %q, want empty before the gate", res.SummaryStatus)
	}
	wire, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(wire), "summary_status") {
		t.Fatalf("summary_status should be omitted from the wire, got %s", wire)
	}
}

func TestMissingFieldsKeepProfileFieldOrder(t *testing.T) {
	long := strings.Repeat("detail ", 10)
	sess := domain.ProfileSession{
		ProfileData: map[string]string{
			"product":  long,
			"platform": long,
		},
	}
	summary, missing := Summarize(sess, 60, "2025-06-01T12:00:00Z")
	if summary != nil {
		t.Fatal("summary should be refused")
	}
	// Reported in profile field order, not alphabetically.
	want := []string{"target_customer", "audience", "vibes"}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
}

func TestGatewayFailureKeepsUserMessage(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{Err: errors.New("provider unavailable")})
	ctx := context.Background()
	_, err := agent.ProcessMessage(ctx, "sess-6", "I want fun TikTok videos")
	if err == nil {
		t.Fatal("expected error")
	}
	sess, gerr := agent.GetSession(ctx, "sess-6")
	if gerr != nil {
		t.Fatalf("session should exist after failed turn: %v", gerr)
	}
	if len(sess.Conversation) != 1 || sess.Conversation[0].Role != "user" {
		t.Fatalf("conversation = %+v", sess.Conversation)
	}
	// Extraction runs only after a successful reply.
	if sess.ProfileData["platform"] != "" {
		t.Fatalf("fields should not update on a failed turn, got %q", sess.ProfileData["platform"])
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	agent, _ := newTestAgent(t, &gateway.Static{})
	if _, err := agent.ProcessMessage(context.Background(), "sess-7", "   "); err == nil {
		t.Fatal("expected validation error")
	}
}
