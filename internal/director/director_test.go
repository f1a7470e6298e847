package director

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trendle/internal/catalog"
	"trendle/internal/db"
	"trendle/internal/domain"
	"trendle/internal/events"
	"trendle/internal/gateway"
	"trendle/internal/media"
	"trendle/internal/migrate"
	"trendle/internal/storage"
	"trendle/internal/store"
)

type testEnv struct {
	engine  *Engine
	store   store.Store
	media   *media.Fake
	gateway *gateway.Static
}

func newTestEnv(t *testing.T, formats []domain.Format) *testEnv {
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
	st := store.Store{DB: conn}
	if err := st.SeedFormats(context.Background(), formats, now()); err != nil {
		t.Fatalf("seed formats: %v", err)
	}
	blobs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	med := &media.Fake{}
	gw := &gateway.Static{Reply: "Keep going, next step is ready."}
	eng := NewEngine(conn, st, events.Writer{DB: conn, Now: now}, gw, med, blobs, now)
	return &testEnv{engine: eng, store: st, media: med, gateway: gw}
}

func threeSegmentFormat() domain.Format {
	return domain.Format{
		FormatID:      "triptych",
		Name:          "Triptych",
		Description:   "Three beats from problem to payoff",
		PlatformFit:   []string{"Mytube"},
		DurationRange: [2]int{20, 45},
		Structure: []domain.SegmentTemplate{
			{Segment: "hook", Duration: 5, ScriptTemplate: "Open strong", VisualGuide: "Face camera", Required: true},
			{Segment: "body", Duration: 20, ScriptTemplate: "Explain the change", VisualGuide: "Show the screen", Required: true},
			{Segment: "cta", Duration: 5, ScriptTemplate: "Tell them what's next", VisualGuide: "Point down", Required: true},
		},
		Tags:    []string{"demo", "launch"},
		Metrics: domain.SuccessMetrics{ViralScore: 70},
	}
}

func TestRouteTable(t *testing.T) {
	cases := []struct {
		stage  domain.Stage
		hasMsg bool
		want   action
	}{
		{domain.StageInitial, false, actMatchFormat},
		{domain.StageInitial, true, actMatchFormat},
		{domain.StageFormatMatched, false, actPlanScript},
		{domain.StageScriptPlanned, true, actGuideRecording},
		{domain.StageScriptPlanned, false, actEnd},
		{domain.StageSegmentsUploaded, false, actEditVideo},
		{domain.StageVideoEdited, false, actExport},
		{domain.StageComplete, true, actEnd},
	}
	for _, tc := range cases {
		if got := route(tc.stage, tc.hasMsg); got != tc.want {
			t.Errorf("route(%s, %v) = %v, want %v", tc.stage, tc.hasMsg, got, tc.want)
		}
	}
}

func TestHasNewUserMessageLooksAtLastTwo(t *testing.T) {
	conv := []domain.ConversationEntry{
		{Role: "user", Content: "old"},
		{Role: "assistant", Content: "a"},
		{Role: "assistant", Content: "b"},
	}
	if hasNewUserMessage(conv) {
		t.Fatal("buried user message should not count")
	}
	conv = append(conv, domain.ConversationEntry{Role: "user", Content: "new"})
	if !hasNewUserMessage(conv) {
		t.Fatal("trailing user message should count")
	}
}

func TestCreateProjectMatchesAndPlansInOnePass(t *testing.T) {
	env := newTestEnv(t, catalog.Seed())
	p, err := env.engine.CreateProject(context.Background(), "Launch video for my dev tool", "b2b saas demo", "YouTube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Stage != domain.StageScriptPlanned {
		t.Fatalf("stage = %s, want script_planned", p.Stage)
	}
	if p.MatchedFormat == nil || p.MatchedFormat.FormatID != "yc_demo_classic" {
		t.Fatalf("matched format = %+v", p.MatchedFormat)
	}
	if len(p.ShotList) != len(p.MatchedFormat.Structure) {
		t.Fatalf("shot list length = %d, want %d", len(p.ShotList), len(p.MatchedFormat.Structure))
	}
	for _, s := range p.ShotList {
		if s.Uploaded {
			t.Fatalf("fresh shot %s marked uploaded", s.SegmentName)
		}
	}
	// Pure routing at creation; the model is never consulted.
	if len(env.gateway.Calls) != 0 {
		t.Fatalf("gateway consulted %d times during creation", len(env.gateway.Calls))
	}
	stored, err := env.store.GetProject(context.Background(), p.ProjectID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Stage != domain.StageScriptPlanned {
		t.Fatalf("persisted stage = %s", stored.Stage)
	}
}

func TestUnknownPlatformGetsSynthesizedFormat(t *testing.T) {
	env := newTestEnv(t, catalog.Seed())
	p, err := env.engine.CreateProject(context.Background(), "A video", "gadget", "Vimeo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.MatchedFormat == nil || !p.MatchedFormat.Synthesized {
		t.Fatalf("expected synthesized fallback, got %+v", p.MatchedFormat)
	}
	if p.Stage != domain.StageScriptPlanned {
		t.Fatalf("stage = %s", p.Stage)
	}
	if len(p.ShotList) != 1 || !p.ShotList[0].Required {
		t.Fatalf("fallback shot list = %+v", p.ShotList)
	}
}

func TestScriptPlanningIsIdempotent(t *testing.T) {
	env := newTestEnv(t, catalog.Seed())
	f := threeSegmentFormat()
	p := domain.Project{ProjectID: "p1", MatchedFormat: &f, Stage: domain.StageFormatMatched}
	env.engine.planScript(&p)
	first := append([]domain.Shot(nil), p.ShotList...)
	env.engine.planScript(&p)
	if len(p.ShotList) != len(first) {
		t.Fatalf("shot list length changed: %d -> %d", len(first), len(p.ShotList))
	}
	for i := range first {
		if p.ShotList[i] != first[i] {
			t.Fatalf("shot %d changed: %+v -> %+v", i, first[i], p.ShotList[i])
		}
	}
}

func TestRecordingGuidanceScansInOrder(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p, err := env.engine.CreateProject(ctx, "Show the new feature", "demo launch", "Mytube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err = env.engine.AdvanceProject(ctx, p.ProjectID, "ready to film")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	last := p.Conversation[len(p.Conversation)-1].Content
	if !strings.Contains(last, "**HOOK**") {
		t.Fatalf("first guide should target hook, got %q", last)
	}
	if !p.AwaitingInput || p.NextInstruction != "upload_segment" {
		t.Fatalf("awaiting=%v instruction=%q", p.AwaitingInput, p.NextInstruction)
	}

	if _, _, err := env.engine.UploadSegment(ctx, p.ProjectID, "hook", "hook.mp4", []byte("clip")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	p, err = env.engine.AdvanceProject(ctx, p.ProjectID, "done, what's next")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	last = p.Conversation[len(p.Conversation)-1].Content
	if !strings.Contains(last, "**BODY**") {
		t.Fatalf("second guide should target body, got %q", last)
	}
}

func TestStageFlipsOnlyAfterLastUpload(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p, err := env.engine.CreateProject(ctx, "Show the new feature", "demo", "Mytube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i, name := range []string{"hook", "body"} {
		if _, p, err = env.engine.UploadSegment(ctx, p.ProjectID, name, name+".mp4", []byte("clip")); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		if p.Stage != domain.StageScriptPlanned {
			t.Fatalf("stage flipped early after %s: %s", name, p.Stage)
		}
	}
	_, p, err = env.engine.UploadSegment(ctx, p.ProjectID, "cta", "cta.mp4", []byte("clip"))
	if err != nil {
		t.Fatalf("final upload: %v", err)
	}
	if p.Stage != domain.StageSegmentsUploaded {
		t.Fatalf("stage = %s, want segments_uploaded", p.Stage)
	}
	if len(p.UploadedSegments) != 3 {
		t.Fatalf("uploaded segments = %d", len(p.UploadedSegments))
	}
}

func TestMergeFailureKeepsStageAndEmbedsError(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p := uploadAll(t, env, ctx)

	env.media.FailWith = "codec mismatch at frame 10"
	p, err := env.engine.AdvanceProject(ctx, p.ProjectID, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p.Stage != domain.StageSegmentsUploaded {
		t.Fatalf("stage advanced despite merge failure: %s", p.Stage)
	}
	last := p.Conversation[len(p.Conversation)-1].Content
	if !strings.Contains(last, "codec mismatch at frame 10") {
		t.Fatalf("error text not embedded verbatim: %q", last)
	}

	// Retry after the failure clears; stage resumes from where it was.
	env.media.FailWith = ""
	p, err = env.engine.AdvanceProject(ctx, p.ProjectID, "")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if p.Stage != domain.StageComplete {
		t.Fatalf("stage = %s, want complete", p.Stage)
	}
}

func TestFullFlowReachesComplete(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p := uploadAll(t, env, ctx)

	p, err := env.engine.AdvanceProject(ctx, p.ProjectID, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p.Stage != domain.StageComplete {
		t.Fatalf("stage = %s, want complete", p.Stage)
	}
	if p.EditedVideoPath == "" {
		t.Fatal("edited video path not set")
	}
	joined := strings.Join(messageTexts(p), "\n")
	if !strings.Contains(joined, "Optimized for Mytube") {
		t.Fatalf("export message missing: %s", joined)
	}
	// Consults happen for the late stages only.
	if len(env.gateway.Calls) == 0 {
		t.Fatal("expected the model to be consulted mid-workflow")
	}
}

func TestConsultFailureEndsTurnWithoutEditing(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p := uploadAll(t, env, ctx)

	env.gateway.Err = errors.New("provider down")
	p, err := env.engine.AdvanceProject(ctx, p.ProjectID, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p.Stage != domain.StageSegmentsUploaded {
		t.Fatalf("stage = %s, want segments_uploaded", p.Stage)
	}
	if len(env.media.MergeCalls) != 0 {
		t.Fatal("merge should not run after a failed consult")
	}
	last := p.Conversation[len(p.Conversation)-1].Content
	if !strings.Contains(last, "provider down") {
		t.Fatalf("consult error not surfaced: %q", last)
	}
}

func TestAdvanceUnknownProjectIsNotFound(t *testing.T) {
	env := newTestEnv(t, catalog.Seed())
	_, err := env.engine.AdvanceProject(context.Background(), "nope", "hello")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStaleWriteConflicts(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p, err := env.engine.CreateProject(ctx, "Show the new feature", "demo", "Mytube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stale, err := env.store.GetProject(ctx, p.ProjectID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := env.engine.AdvanceProject(ctx, p.ProjectID, "go"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := env.store.PutProject(ctx, stale); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUploadUnknownSegmentRejected(t *testing.T) {
	env := newTestEnv(t, []domain.Format{threeSegmentFormat()})
	ctx := context.Background()
	p, err := env.engine.CreateProject(ctx, "Show the new feature", "demo", "Mytube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.engine.UploadSegment(ctx, p.ProjectID, "outro", "x.mp4", []byte("clip")); err == nil {
		t.Fatal("expected error for unknown segment name")
	}
	reloaded, _ := env.store.GetProject(ctx, p.ProjectID)
	if len(reloaded.UploadedSegments) != 0 {
		t.Fatal("rejected upload must not mutate state")
	}
}

func uploadAll(t *testing.T, env *testEnv, ctx context.Context) domain.Project {
	t.Helper()
	p, err := env.engine.CreateProject(ctx, "Show the new feature", "demo", "Mytube")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, name := range []string{"hook", "body", "cta"} {
		if _, p, err = env.engine.UploadSegment(ctx, p.ProjectID, name, name+".mp4", []byte("clip")); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}
	return p
}

func messageTexts(p domain.Project) []string {
	var out []string
	for _, e := range p.Conversation {
		out = append(out, e.Content)
	}
	return out
}
