package server

import (
	"trendle/internal/domain"
)

type CreateProjectRequest struct {
	UserGoal       string `json:"user_goal"`
	ProductType    string `json:"product_type,omitempty"`
	TargetPlatform string `json:"target_platform"`
}

// ProjectResponse is the wire shape of a project document plus the
// latest assistant message pulled out for convenience.
type ProjectResponse struct {
	ProjectID        string                     `json:"project_id"`
	UserGoal         string                     `json:"user_goal"`
	ProductType      string                     `json:"product_type,omitempty"`
	TargetPlatform   string                     `json:"target_platform"`
	Stage            string                     `json:"current_step"`
	Message          string                     `json:"message,omitempty"`
	MatchedFormat    *FormatResponse            `json:"matched_format,omitempty"`
	ShotList         []domain.Shot              `json:"shot_list,omitempty"`
	UploadedSegments []domain.SegmentUpload     `json:"uploaded_segments"`
	Conversation     []domain.ConversationEntry `json:"conversation"`
	EditedVideoPath  string                     `json:"edited_video_path,omitempty"`
	AwaitingInput    bool                       `json:"user_input_needed"`
	NextInstruction  string                     `json:"next_instruction,omitempty"`
	Version          int64                      `json:"version"`
	CreatedAt        string                     `json:"created_at"`
	UpdatedAt        string                     `json:"updated_at"`
}

func projectResponse(p domain.Project) ProjectResponse {
	resp := ProjectResponse{
		ProjectID:        p.ProjectID,
		UserGoal:         p.UserGoal,
		ProductType:      p.ProductType,
		TargetPlatform:   p.TargetPlatform,
		Stage:            string(p.Stage),
		ShotList:         p.ShotList,
		UploadedSegments: p.UploadedSegments,
		Conversation:     p.Conversation,
		EditedVideoPath:  p.EditedVideoPath,
		AwaitingInput:    p.AwaitingInput,
		NextInstruction:  p.NextInstruction,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.MatchedFormat != nil {
		f := formatResponse(*p.MatchedFormat)
		resp.MatchedFormat = &f
	}
	for i := len(p.Conversation) - 1; i >= 0; i-- {
		if p.Conversation[i].Role == "assistant" {
			resp.Message = p.Conversation[i].Content
			break
		}
	}
	return resp
}

type UploadSegmentRequest struct {
	SegmentName string `json:"segment_name"`
	Filename    string `json:"filename,omitempty"`
	// Data carries the clip bytes, base64 encoded.
	Data string `json:"data"`
}

type UploadSegmentResponse struct {
	Locator string          `json:"locator"`
	Project ProjectResponse `json:"project"`
}

type UploadChunkRequest struct {
	UploadID    string `json:"upload_id"`
	SegmentName string `json:"segment_name"`
	Filename    string `json:"filename,omitempty"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Data        string `json:"data"`
}

type UploadChunkResponse struct {
	UploadID string           `json:"upload_id"`
	Received int              `json:"received"`
	Locator  string           `json:"locator,omitempty"`
	Project  *ProjectResponse `json:"project,omitempty"`
}

type SessionResponse struct {
	SessionID        string                     `json:"session_id"`
	UserID           string                     `json:"user_id,omitempty"`
	ProfileData      map[string]string          `json:"profile_data"`
	ConfidenceScores map[string]float64         `json:"confidence_scores"`
	Conversation     []domain.ConversationEntry `json:"conversation_history"`
	Summary          *domain.ProfileSummary     `json:"profile_summary,omitempty"`
	SummaryGenerated bool                       `json:"summary_generated"`
	CreatedAt        string                     `json:"created_at"`
	UpdatedAt        string                     `json:"updated_at"`
}

func sessionResponse(s domain.ProfileSession) SessionResponse {
	return SessionResponse{
		SessionID:        s.SessionID,
		UserID:           s.UserID,
		ProfileData:      s.ProfileData,
		ConfidenceScores: s.ConfidenceScores,
		Conversation:     s.Conversation,
		Summary:          s.Summary,
		SummaryGenerated: s.SummaryGenerated,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type FormatResponse struct {
	FormatID      string                   `json:"format_id"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description"`
	PlatformFit   []string                 `json:"platform_fit"`
	DurationRange [2]int                   `json:"duration_range"`
	Structure     []domain.SegmentTemplate `json:"structure"`
	Tags          []string                 `json:"tags"`
	Metrics       domain.SuccessMetrics    `json:"success_metrics"`
	Synthesized   bool                     `json:"synthesized,omitempty"`
}

func formatResponse(f domain.Format) FormatResponse {
	return FormatResponse{
		FormatID:      f.FormatID,
		Name:          f.Name,
		Description:   f.Description,
		PlatformFit:   f.PlatformFit,
		DurationRange: f.DurationRange,
		Structure:     f.Structure,
		Tags:          f.Tags,
		Metrics:       f.Metrics,
		Synthesized:   f.Synthesized,
	}
}

type SuggestionResponse struct {
	ID          string  `json:"id"`
	VideoID     string  `json:"video_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

func suggestionResponse(s domain.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:          s.ID,
		VideoID:     s.VideoID,
		Type:        s.Type,
		Title:       s.Title,
		Description: s.Description,
		Confidence:  s.Confidence,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
}

type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
