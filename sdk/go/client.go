package trendlesdk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Trendle HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ConversationEntry is one line of a project or session log.
type ConversationEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	TS      string `json:"ts,omitempty"`
}

// Shot is one entry of a project's shot list.
type Shot struct {
	SegmentName string `json:"segment_name"`
	Duration    int    `json:"duration"`
	Script      string `json:"script"`
	VisualGuide string `json:"visual_guide"`
	Required    bool   `json:"required"`
	Uploaded    bool   `json:"uploaded"`
}

// Project represents the API project model (partial).
type Project struct {
	ProjectID       string              `json:"project_id"`
	UserGoal        string              `json:"user_goal"`
	TargetPlatform  string              `json:"target_platform"`
	Stage           string              `json:"current_step"`
	Message         string              `json:"message,omitempty"`
	ShotList        []Shot              `json:"shot_list,omitempty"`
	Conversation    []ConversationEntry `json:"conversation"`
	EditedVideoPath string              `json:"edited_video_path,omitempty"`
	AwaitingInput   bool                `json:"user_input_needed"`
	NextInstruction string              `json:"next_instruction,omitempty"`
	Version         int64               `json:"version"`
}

// Session represents a profile discovery session.
type Session struct {
	SessionID        string             `json:"session_id"`
	ProfileData      map[string]string  `json:"profile_data"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	SummaryGenerated bool               `json:"summary_generated"`
}

// Turn is the result of one discovery message.
type Turn struct {
	SessionID        string             `json:"session_id"`
	Message          string             `json:"message"`
	ProfileData      map[string]string  `json:"profile_data"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	SummaryStatus    string             `json:"summary_status,omitempty"`
	MissingFields    []string           `json:"missing_fields,omitempty"`
}

// Suggestion is one editing suggestion for an analyzed video.
type Suggestion struct {
	ID          string  `json:"id"`
	VideoID     string  `json:"video_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateProject starts a new video project.
func (c *Client) CreateProject(ctx context.Context, userGoal, productType, targetPlatform string) (Project, error) {
	body := map[string]any{
		"user_goal":       userGoal,
		"product_type":    productType,
		"target_platform": targetPlatform,
	}
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", body, &resp)
	return resp, err
}

// AdvanceProject moves the workflow forward one turn.
func (c *Client) AdvanceProject(ctx context.Context, projectID, message string) (Project, error) {
	body := map[string]any{"message": message}
	var resp Project
	endpoint := fmt.Sprintf("projects/%s/advance", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// GetProject fetches a project by id.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	var resp Project
	endpoint := fmt.Sprintf("projects/%s", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UploadSegment uploads a recorded clip against a shot list entry.
func (c *Client) UploadSegment(ctx context.Context, projectID, segmentName, filename string, data []byte) (Project, error) {
	body := map[string]any{
		"segment_name": segmentName,
		"filename":     filename,
		"data":         base64.StdEncoding.EncodeToString(data),
	}
	var resp struct {
		Locator string  `json:"locator"`
		Project Project `json:"project"`
	}
	endpoint := fmt.Sprintf("projects/%s/segments", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp.Project, err
}

// StartSession begins a profile discovery session.
func (c *Client) StartSession(ctx context.Context, userID string) (Session, error) {
	body := map[string]any{"user_id": userID}
	var resp Session
	err := c.do(ctx, http.MethodPost, "profile/sessions", body, &resp)
	return resp, err
}

// Say sends one discovery message.
func (c *Client) Say(ctx context.Context, sessionID, message string) (Turn, error) {
	body := map[string]any{"message": message}
	var resp Turn
	endpoint := fmt.Sprintf("profile/sessions/%s/messages", url.PathEscape(sessionID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Suggestions lists suggestions for a video.
func (c *Client) Suggestions(ctx context.Context, videoID string) ([]Suggestion, error) {
	var resp []Suggestion
	endpoint := fmt.Sprintf("videos/%s/suggestions", url.PathEscape(videoID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// AcceptSuggestion marks a suggestion accepted.
func (c *Client) AcceptSuggestion(ctx context.Context, suggestionID string) error {
	endpoint := fmt.Sprintf("suggestions/%s/accept", url.PathEscape(suggestionID))
	return c.do(ctx, http.MethodPost, endpoint, nil, nil)
}

// RejectSuggestion marks a suggestion rejected.
func (c *Client) RejectSuggestion(ctx context.Context, suggestionID string) error {
	endpoint := fmt.Sprintf("suggestions/%s/reject", url.PathEscape(suggestionID))
	return c.do(ctx, http.MethodPost, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
