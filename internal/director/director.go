// Package director drives a project through the creation workflow. Each
// call is one synchronous pass: load the project document, route by
// stage, run the stage handlers, persist the whole document back. No
// workflow state survives in memory between calls.
package director

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"trendle/internal/catalog"
	"trendle/internal/domain"
	"trendle/internal/events"
	"trendle/internal/gateway"
	"trendle/internal/media"
	"trendle/internal/storage"
	"trendle/internal/store"
)

// action is what the router decides for one pass.
type action int

const (
	actEnd action = iota
	actMatchFormat
	actPlanScript
	actGuideRecording
	actEditVideo
	actExport
)

// route implements the stage transition table. hasNewMessage only
// matters for script_planned, where it separates "guide the next shot"
// from "wait for input".
func route(stage domain.Stage, hasNewMessage bool) action {
	switch stage {
	case domain.StageInitial:
		return actMatchFormat
	case domain.StageFormatMatched:
		return actPlanScript
	case domain.StageScriptPlanned:
		if hasNewMessage {
			return actGuideRecording
		}
		return actEnd
	case domain.StageSegmentsUploaded:
		return actEditVideo
	case domain.StageVideoEdited:
		return actExport
	default:
		return actEnd
	}
}

// hasNewUserMessage reports whether a user-authored entry sits within
// the last two log entries.
func hasNewUserMessage(conversation []domain.ConversationEntry) bool {
	start := len(conversation) - 2
	if start < 0 {
		start = 0
	}
	for _, e := range conversation[start:] {
		if e.Role == "user" {
			return true
		}
	}
	return false
}

// Engine owns project workflow state. Passes over the same project are
// serialized in-process; the store's version check catches writers this
// lock cannot see.
type Engine struct {
	DB      *sql.DB
	Store   store.Store
	Events  events.Writer
	Gateway gateway.Client
	Media   media.Service
	Blobs   storage.Store
	Now     func() time.Time

	locks *store.KeyedMutex
}

func NewEngine(db *sql.DB, st store.Store, ev events.Writer, gw gateway.Client, med media.Service, blobs storage.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		DB:      db,
		Store:   st,
		Events:  ev,
		Gateway: gw,
		Media:   med,
		Blobs:   blobs,
		Now:     now,
		locks:   store.NewKeyedMutex(),
	}
}

func (e *Engine) timestamp() string {
	return e.Now().UTC().Format(time.RFC3339)
}

func appendEntry(p *domain.Project, role, content, ts string) {
	p.Conversation = append(p.Conversation, domain.ConversationEntry{Role: role, Content: content, TS: ts})
}

// CreateProject starts a project and runs it through format matching
// and script planning in the same pass. Both handlers are pure, so the
// document is inserted once, fully advanced.
func (e *Engine) CreateProject(ctx context.Context, goal, productType, targetPlatform string) (domain.Project, error) {
	if strings.TrimSpace(goal) == "" {
		return domain.Project{}, fmt.Errorf("user goal must not be empty")
	}
	if strings.TrimSpace(targetPlatform) == "" {
		return domain.Project{}, fmt.Errorf("target platform must not be empty")
	}
	ts := e.timestamp()
	p := domain.Project{
		ProjectID:        uuid.NewString(),
		UserGoal:         goal,
		ProductType:      productType,
		TargetPlatform:   targetPlatform,
		UploadedSegments: []domain.SegmentUpload{},
		Stage:            domain.StageInitial,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	appendEntry(&p, "user", goal, ts)

	if err := e.run(ctx, &p); err != nil {
		return domain.Project{}, err
	}
	p.UpdatedAt = e.timestamp()
	if err := e.Store.CreateProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	p.Version = 1
	e.record(ctx, "project.create", p.ProjectID, events.Payload{"stage": string(p.Stage)})
	return p, nil
}

// AdvanceProject reloads the project, optionally appends a user message,
// and runs one pass of the state machine.
func (e *Engine) AdvanceProject(ctx context.Context, projectID, message string) (domain.Project, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if strings.TrimSpace(message) != "" {
		appendEntry(&p, "user", message, e.timestamp())
	}
	if err := e.run(ctx, &p); err != nil {
		return domain.Project{}, err
	}
	p.UpdatedAt = e.timestamp()
	if err := e.Store.PutProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	p.Version++
	e.record(ctx, "project.advance", p.ProjectID, events.Payload{"stage": string(p.Stage)})
	return p, nil
}

// UploadSegment stores the clip, appends the upload record, and marks
// the matching shot uploaded. The stage flips to segments_uploaded only
// when the last pending shot lands, never earlier.
func (e *Engine) UploadSegment(ctx context.Context, projectID, segmentName, filename string, data []byte) (string, domain.Project, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	p, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return "", domain.Project{}, err
	}
	if len(p.ShotList) == 0 {
		return "", domain.Project{}, fmt.Errorf("project %s has no shot list yet", projectID)
	}
	idx := -1
	for i, s := range p.ShotList {
		if s.SegmentName == segmentName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", domain.Project{}, fmt.Errorf("unknown segment %q", segmentName)
	}

	name := filepath.Join(projectID, uuid.NewString()+filepath.Ext(filename))
	locator, err := e.Blobs.Save(ctx, name, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.Project{}, fmt.Errorf("store segment: %w", err)
	}

	ts := e.timestamp()
	seg := domain.SegmentUpload{
		SegmentName: segmentName,
		FilePath:    locator,
		Filename:    filename,
		UploadedAt:  ts,
	}
	p.UploadedSegments = append(p.UploadedSegments, seg)
	p.ShotList[idx].Uploaded = true
	if p.PendingShots() == 0 && p.Stage == domain.StageScriptPlanned {
		p.Stage = domain.StageSegmentsUploaded
		p.AwaitingInput = false
		p.NextInstruction = ""
		appendEntry(&p, "assistant", "✅ All segments recorded! Now let's edit them together...", ts)
	}
	p.UpdatedAt = ts

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Store.PutProjectTx(ctx, tx, p); err != nil {
		return "", domain.Project{}, err
	}
	if err := e.Store.AppendSegmentTx(ctx, tx, projectID, seg); err != nil {
		return "", domain.Project{}, err
	}
	payload := events.Payload{"segment": segmentName, "locator": locator}
	if err := e.Events.Project(ctx, tx, "segment.upload", projectID, payload); err != nil {
		return "", domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return "", domain.Project{}, err
	}
	p.Version++
	return locator, p, nil
}

func (e *Engine) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return e.Store.GetProject(ctx, projectID)
}

func (e *Engine) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return e.Store.ListProjects(ctx)
}

// run is one pass of the state machine. Handlers that hand control back
// to the router loop here; handlers that end the turn return.
func (e *Engine) run(ctx context.Context, p *domain.Project) error {
	for {
		if err := e.consult(ctx, p); err != nil {
			// The error text is already in the log; the turn ends
			// without advancing.
			return nil
		}
		switch route(p.Stage, hasNewUserMessage(p.Conversation)) {
		case actMatchFormat:
			if err := e.matchFormat(ctx, p); err != nil {
				return err
			}
		case actPlanScript:
			e.planScript(p)
			return nil
		case actGuideRecording:
			e.guideRecording(p)
			return nil
		case actEditVideo:
			if !e.editVideo(ctx, p) {
				return nil
			}
		case actExport:
			e.export(ctx, p)
			return nil
		default:
			return nil
		}
	}
}

const directorPrompt = `You are a Director AI for Trendle, a video creation platform. Your role is to:

1. Understand the user's video goals (what they want to create, for which platform)
2. Coordinate specialized agents to help them create viral-worthy content
3. Guide users through each step of the video creation process
4. Make decisions about which agent to involve next

You have access to these specialized agents:
- Format Matcher: Finds the best viral video format for the user's goal
- Script Planner: Creates detailed shot lists and scripts
- Recording Guide: Provides step-by-step filming instructions
- Video Editor: Performs all video editing operations
- Export Agent: Optimizes and exports the final video

Be encouraging, clear, and strategic. Break complex tasks into simple steps.`

// consult lets the model steer mid-workflow. The early stages are pure
// routing and never talk to the model; everything else gets a context
// summary plus the latest user text. A failed consult ends the turn
// with the error in the log.
func (e *Engine) consult(ctx context.Context, p *domain.Project) error {
	switch p.Stage {
	case domain.StageInitial, domain.StageFormatMatched, domain.StageScriptPlanned:
		return nil
	}
	if e.Gateway == nil {
		return nil
	}
	last := ""
	if n := len(p.Conversation); n > 0 {
		last = p.Conversation[n-1].Content
	}
	input := fmt.Sprintf("%s\n\nUser: %s\n\nWhat should we do next?", e.contextSummary(p), last)
	reply, err := e.Gateway.Chat(ctx, directorPrompt, p.ProjectID, input)
	if err != nil {
		appendEntry(p, "assistant", fmt.Sprintf("❌ Director unavailable: %s", err.Error()), e.timestamp())
		return err
	}
	appendEntry(p, "assistant", reply, e.timestamp())
	return nil
}

func (e *Engine) contextSummary(p *domain.Project) string {
	parts := []string{fmt.Sprintf("Current Step: %s", p.Stage)}
	if p.UserGoal != "" {
		parts = append(parts, fmt.Sprintf("User Goal: %s", p.UserGoal))
	}
	if p.MatchedFormat != nil {
		parts = append(parts, fmt.Sprintf("Format: %s", p.MatchedFormat.Name))
	}
	if len(p.ShotList) > 0 {
		done := len(p.ShotList) - p.PendingShots()
		parts = append(parts, fmt.Sprintf("Recording Progress: %d/%d segments", done, len(p.ShotList)))
	}
	return strings.Join(parts, "\n")
}

// matchFormat scores the catalog against the project and picks the
// winner. When nothing fits the platform a synthesized single-take
// format keeps the workflow moving instead of dead-ending.
func (e *Engine) matchFormat(ctx context.Context, p *domain.Project) error {
	formats, err := e.Store.ListFormats(ctx)
	if err != nil {
		return fmt.Errorf("load formats: %w", err)
	}
	candidates := catalog.Query(formats, catalog.QueryFilter{Platform: p.TargetPlatform})
	best, _, ok := catalog.BestMatch(p.UserGoal, p.ProductType, p.TargetPlatform, candidates)
	ts := e.timestamp()
	if !ok {
		best = catalog.Fallback(p.TargetPlatform)
		appendEntry(p, "assistant", "I couldn't find a perfect format match. Let me create a custom format for you...", ts)
	}
	p.MatchedFormat = &best
	p.Stage = domain.StageFormatMatched
	appendEntry(p, "assistant", formatFoundMessage(best), ts)
	return nil
}

func formatFoundMessage(f domain.Format) string {
	return fmt.Sprintf(`🎯 Perfect! I found the ideal format for your video: **%s**

%s

This format typically performs well on %s and includes %d key segments:
%s

This format has a viral score of %g/100 based on past performance.

Ready to move forward with this format?`,
		f.Name, f.Description, strings.Join(f.PlatformFit, ", "), len(f.Structure),
		structureSummary(f.Structure), f.Metrics.ViralScore)
}

func structureSummary(structure []domain.SegmentTemplate) string {
	lines := make([]string, len(structure))
	for i, seg := range structure {
		lines[i] = fmt.Sprintf("%d. **%s** (%ds): %s...", i+1, titleWords(seg.Segment), seg.Duration, truncate(seg.ScriptTemplate, 50))
	}
	return strings.Join(lines, "\n")
}

// planScript expands the matched format into the shot list. It is
// deterministic and rebuilds the list wholesale, so re-running it on
// the same format yields the same shots.
func (e *Engine) planScript(p *domain.Project) {
	if p.MatchedFormat == nil {
		return
	}
	shots := make([]domain.Shot, len(p.MatchedFormat.Structure))
	total := 0
	for i, seg := range p.MatchedFormat.Structure {
		shots[i] = domain.Shot{
			SegmentName: seg.Segment,
			Duration:    seg.Duration,
			Script:      seg.ScriptTemplate,
			VisualGuide: seg.VisualGuide,
			Required:    seg.Required,
		}
		total += seg.Duration
	}
	p.ShotList = shots
	p.Stage = domain.StageScriptPlanned
	msg := fmt.Sprintf(`📝 Here's your complete shot list for the video:

%s

**Total Duration:** ~%d seconds

I'll guide you through recording each segment step by step. Ready to start?`,
		shotListSummary(shots), total)
	appendEntry(p, "assistant", msg, e.timestamp())
}

func shotListSummary(shots []domain.Shot) string {
	lines := make([]string, len(shots))
	for i, s := range shots {
		status := "⏳"
		if s.Uploaded {
			status = "✅"
		}
		lines[i] = fmt.Sprintf("%s **Segment %d: %s** (%ds)\n   Script: %s\n   Visual: %s",
			status, i+1, titleWords(s.SegmentName), s.Duration, s.Script, s.VisualGuide)
	}
	return strings.Join(lines, "\n\n")
}

// guideRecording is a stateless linear scan for the first pending shot.
// No cursor is kept; re-invocation after a partial upload always lands
// on the correct next shot.
func (e *Engine) guideRecording(p *domain.Project) {
	ts := e.timestamp()
	for _, shot := range p.ShotList {
		if shot.Uploaded {
			continue
		}
		msg := fmt.Sprintf(`🎬 Let's record: **%s**

⏱️ **Duration:** %d seconds

📝 **Script:**
%s

🎥 **How to film this:**
%s

**Tips:**
• Film in good lighting
• Hold your phone steady (or use a tripod)
• Speak clearly and with energy
• Keep it within %d seconds

Upload your video when ready, and I'll validate it before we move to the next segment!`,
			strings.ToUpper(shot.SegmentName), shot.Duration, shot.Script, shot.VisualGuide, shot.Duration)
		appendEntry(p, "assistant", msg, ts)
		p.AwaitingInput = true
		p.NextInstruction = "upload_segment"
		return
	}
	p.Stage = domain.StageSegmentsUploaded
	p.AwaitingInput = false
	p.NextInstruction = ""
	appendEntry(p, "assistant", "✅ All segments recorded! Now let's edit them together...", ts)
}

// editVideo merges the uploads in order. On failure the stage stays put
// and the service's error text goes into the log verbatim. Returns true
// when the stage advanced.
func (e *Engine) editVideo(ctx context.Context, p *domain.Project) bool {
	if len(p.UploadedSegments) == 0 {
		return false
	}
	inputs := make([]string, len(p.UploadedSegments))
	for i, seg := range p.UploadedSegments {
		inputs[i] = seg.FilePath
	}
	res := e.Media.Merge(ctx, inputs, fmt.Sprintf("merged_%s.mp4", p.ProjectID))
	ts := e.timestamp()
	if !res.Success {
		appendEntry(p, "assistant", fmt.Sprintf("❌ Video editing failed: %s", res.Err), ts)
		return false
	}
	p.EditedVideoPath = res.OutputPath
	p.Stage = domain.StageVideoEdited
	msg := `🎞️ Video editing complete!

Editing steps performed:
✅ Merged all segments

Your video is ready for final optimization and export. Which platform should we optimize it for?`
	appendEntry(p, "assistant", msg, ts)
	return true
}

// export optimizes the merged video for the target platform and closes
// out the workflow.
func (e *Engine) export(ctx context.Context, p *domain.Project) {
	if p.EditedVideoPath == "" {
		return
	}
	platform := p.TargetPlatform
	if platform == "" {
		platform = "youtube"
	}
	out := fmt.Sprintf("final_%s_%s.mp4", p.ProjectID, platform)
	res := e.Media.OptimizeForPlatform(ctx, p.EditedVideoPath, out, platform)
	ts := e.timestamp()
	if !res.Success {
		appendEntry(p, "assistant", fmt.Sprintf("❌ Export failed: %s", res.Err), ts)
		return
	}
	p.Stage = domain.StageComplete
	msg := fmt.Sprintf(`🎉 Your video is ready!

✅ Optimized for %s
📁 **Download:** %s

Your video is now perfectly formatted for %s with the right dimensions, bitrate, and compression.

Want to export for other platforms too?`, platform, res.OutputPath, platform)
	appendEntry(p, "assistant", msg, ts)
}

// record writes an event outside any failing path; event loss is
// acceptable, blocking the workflow on the audit trail is not.
func (e *Engine) record(ctx context.Context, evtType, projectID string, payload events.Payload) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	if err := e.Events.Project(ctx, tx, evtType, projectID, payload); err != nil {
		tx.Rollback()
		return
	}
	tx.Commit()
}

func titleWords(s string) string {
	out := []rune(s)
	prevLetter := false
	for i, r := range out {
		if unicode.IsLetter(r) {
			if prevLetter {
				out[i] = unicode.ToLower(r)
			} else {
				out[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(out)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
