package domain

// Stage is a project's position in the creation workflow.
type Stage string

const (
	StageInitial          Stage = "initial"
	StageFormatMatched    Stage = "format_matched"
	StageScriptPlanned    Stage = "script_planned"
	StageSegmentsUploaded Stage = "segments_uploaded"
	StageVideoEdited      Stage = "video_edited"
	StageComplete         Stage = "complete"
)

// ConversationEntry is one role-tagged line of a project or session log.
type ConversationEntry struct {
	Role    string `json:"role" enum:"user,assistant"`
	Content string `json:"content"`
	TS      string `json:"ts,omitempty" format:"date-time"`
}

// SegmentTemplate is one named slot of a Format's structure.
type SegmentTemplate struct {
	Segment        string `json:"segment"`
	Duration       int    `json:"duration"`
	ScriptTemplate string `json:"script_template"`
	VisualGuide    string `json:"visual_guide"`
	Required       bool   `json:"required"`
}

// SuccessMetrics are aggregate performance numbers for a Format.
type SuccessMetrics struct {
	AvgRetention  float64 `json:"avg_retention,omitempty"`
	AvgShares     float64 `json:"avg_shares,omitempty"`
	AvgSaves      float64 `json:"avg_saves,omitempty"`
	AvgConversion float64 `json:"avg_conversion,omitempty"`
	ViralScore    float64 `json:"viral_score"`
}

// Format is a reusable video-structure template. Read-only after seeding.
type Format struct {
	FormatID      string            `json:"format_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	PlatformFit   []string          `json:"platform_fit"`
	DurationRange [2]int            `json:"duration_range"`
	Structure     []SegmentTemplate `json:"structure"`
	Tags          []string          `json:"tags"`
	ExampleVideos []string          `json:"example_videos,omitempty"`
	Metrics       SuccessMetrics    `json:"success_metrics"`
	Synthesized   bool              `json:"synthesized,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt     string            `json:"updated_at,omitempty" format:"date-time"`
}

// Shot is a project-owned instantiation of a format segment.
type Shot struct {
	SegmentName string `json:"segment_name"`
	Duration    int    `json:"duration"`
	Script      string `json:"script"`
	VisualGuide string `json:"visual_guide"`
	Required    bool   `json:"required"`
	Uploaded    bool   `json:"uploaded"`
}

// SegmentUpload records one clip uploaded against a shot. Append-only.
type SegmentUpload struct {
	SegmentName string `json:"segment_name"`
	FilePath    string `json:"file_path"`
	Filename    string `json:"filename"`
	UploadedAt  string `json:"uploaded_at" format:"date-time"`
}

// Project is the Director-side aggregate. Persisted as a single document
// with optimistic versioning; every invocation reloads and overwrites it.
type Project struct {
	ProjectID        string              `json:"project_id"`
	UserGoal         string              `json:"user_goal"`
	ProductType      string              `json:"product_type"`
	TargetPlatform   string              `json:"target_platform"`
	Conversation     []ConversationEntry `json:"conversation"`
	MatchedFormat    *Format             `json:"matched_format,omitempty"`
	ShotList         []Shot              `json:"shot_list,omitempty"`
	UploadedSegments []SegmentUpload     `json:"uploaded_segments"`
	EditedVideoPath  string              `json:"edited_video_path,omitempty"`
	Stage            Stage               `json:"current_step"`
	AwaitingInput    bool                `json:"user_input_needed"`
	NextInstruction  string              `json:"next_instruction,omitempty"`
	Version          int64               `json:"version"`
	CreatedAt        string              `json:"created_at" format:"date-time"`
	UpdatedAt        string              `json:"updated_at" format:"date-time"`
}

// PendingShots counts shot list entries not yet uploaded.
func (p Project) PendingShots() int {
	n := 0
	for _, s := range p.ShotList {
		if !s.Uploaded {
			n++
		}
	}
	return n
}

// ProfileFields are the five canonical profile slots.
var ProfileFields = []string{"target_customer", "product", "audience", "platform", "vibes"}

// ProfileSummary is the structured output emitted once all fields clear
// the confidence threshold.
type ProfileSummary struct {
	TargetCustomer   string             `json:"target_customer"`
	Product          string             `json:"product"`
	Audience         string             `json:"audience"`
	Platform         string             `json:"platform"`
	Vibes            string             `json:"vibes"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	GeneratedAt      string             `json:"generated_at" format:"date-time"`
}

// ProfileSession is the profile-extraction aggregate. Confidence scores are
// derived from the field values and recomputed on every change.
type ProfileSession struct {
	SessionID        string              `json:"session_id"`
	UserID           string              `json:"user_id,omitempty"`
	ProfileData      map[string]string   `json:"profile_data"`
	ConfidenceScores map[string]float64  `json:"confidence_scores"`
	Conversation     []ConversationEntry `json:"conversation_history"`
	Summary          *ProfileSummary     `json:"profile_summary,omitempty"`
	SummaryGenerated bool                `json:"summary_generated"`
	Version          int64               `json:"version"`
	CreatedAt        string              `json:"created_at" format:"date-time"`
	UpdatedAt        string              `json:"updated_at" format:"date-time"`
}

// Suggestion is one AI-proposed edit for an analyzed video.
type Suggestion struct {
	ID          string  `json:"id"`
	VideoID     string  `json:"video_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status" enum:"pending,accepted,rejected"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

// Event is one append-only log entry describing a state change.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
