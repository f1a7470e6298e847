// Package server exposes the workflow over HTTP. Handlers stay thin:
// decode, call the owning component, map errors into the envelope.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"trendle/internal/director"
	"trendle/internal/profile"
	"trendle/internal/storage"
	"trendle/internal/store"
	"trendle/internal/suggest"
	"trendle/internal/trends"
)

// Config wires the API handler.
type Config struct {
	Engine   *director.Engine
	Agent    *profile.Agent
	Store    store.Store
	Trends   *trends.Service
	Analyzer *suggest.Analyzer
	Uploader *storage.Uploader
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Trendle API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Trendle API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerProjects(group, cfg)
	registerProfile(group, cfg)
	registerFormats(group, cfg)
	registerTrends(group, cfg)
	registerSuggestions(group, cfg)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, store.ErrConflict) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "must not be empty"),
		strings.Contains(lowered, "unknown segment"),
		strings.Contains(lowered, "no shot list"):
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerProjects(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := cfg.Engine.CreateProject(ctx, input.Body.UserGoal, input.Body.ProductType, input.Body.TargetPlatform)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-project",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/advance",
		Summary:     "Advance project workflow",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Body      struct {
			Message string `json:"message,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := cfg.Engine.AdvanceProject(ctx, input.ProjectID, input.Body.Message)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "upload-segment",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/segments",
		Summary:       "Upload a recorded segment",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UploadSegmentRequest `json:"body"`
	}) (*struct {
		Body UploadSegmentResponse `json:"body"`
	}, error) {
		if input.Body.SegmentName == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "segment_name is required", nil)
		}
		data, err := base64.StdEncoding.DecodeString(input.Body.Data)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "data must be base64", nil)
		}
		locator, p, err := cfg.Engine.UploadSegment(ctx, input.ProjectID, input.Body.SegmentName, input.Body.Filename, data)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UploadSegmentResponse `json:"body"`
		}{Body: UploadSegmentResponse{Locator: locator, Project: projectResponse(p)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-segment-chunk",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/segments/chunks",
		Summary:     "Upload one chunk of a segment",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"project_id"`
		Body      UploadChunkRequest `json:"body"`
	}) (*struct {
		Body UploadChunkResponse `json:"body"`
	}, error) {
		if input.Body.UploadID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "upload_id is required", nil)
		}
		data, err := base64.StdEncoding.DecodeString(input.Body.Data)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "data must be base64", nil)
		}
		if err := cfg.Uploader.AppendChunk(input.Body.UploadID, input.Body.Index, data); err != nil {
			return nil, handleError(err)
		}
		resp := UploadChunkResponse{UploadID: input.Body.UploadID, Received: input.Body.Index + 1}
		if input.Body.Index+1 < input.Body.Total {
			return &struct {
				Body UploadChunkResponse `json:"body"`
			}{Body: resp}, nil
		}
		// Last chunk: assemble and hand the bytes to the workflow.
		locator, err := cfg.Uploader.Finalize(ctx, input.Body.UploadID, input.Body.Filename)
		if err != nil {
			return nil, handleError(err)
		}
		blob, err := readLocator(ctx, cfg, locator)
		if err != nil {
			return nil, handleError(err)
		}
		finalLocator, p, err := cfg.Engine.UploadSegment(ctx, input.ProjectID, input.Body.SegmentName, input.Body.Filename, blob)
		if err != nil {
			return nil, handleError(err)
		}
		resp.Locator = finalLocator
		pr := projectResponse(p)
		resp.Project = &pr
		return &struct {
			Body UploadChunkResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := cfg.Engine.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := cfg.Engine.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp := make([]ProjectResponse, 0, len(items))
		for _, p := range items {
			resp = append(resp, projectResponse(p))
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func readLocator(ctx context.Context, cfg Config, locator string) ([]byte, error) {
	rc, err := cfg.Uploader.Store.Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func registerProfile(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-profile-session",
		Method:        http.MethodPost,
		Path:          "/profile/sessions",
		Summary:       "Start a profile session",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body struct {
			UserID string `json:"user_id,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		sess, err := cfg.Agent.NewSession(ctx, input.Body.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: sessionResponse(sess)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "profile-message",
		Method:      http.MethodPost,
		Path:        "/profile/sessions/{session_id}/messages",
		Summary:     "Send a profile discovery message",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Message string `json:"message"`
		} `json:"body"`
	}) (*struct {
		Body profile.TurnResult `json:"body"`
	}, error) {
		res, err := cfg.Agent.ProcessMessage(ctx, input.SessionID, input.Body.Message)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body profile.TurnResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-profile-session",
		Method:      http.MethodGet,
		Path:        "/profile/sessions/{session_id}",
		Summary:     "Get profile session",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		sess, err := cfg.Agent.GetSession(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: sessionResponse(sess)}, nil
	})
}

func registerFormats(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-formats",
		Method:      http.MethodGet,
		Path:        "/formats",
		Summary:     "List viral formats",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []FormatResponse `json:"body"`
	}, error) {
		items, err := cfg.Store.ListFormats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp := make([]FormatResponse, 0, len(items))
		for _, f := range items {
			resp = append(resp, formatResponse(f))
		}
		return &struct {
			Body []FormatResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-format",
		Method:      http.MethodGet,
		Path:        "/formats/{format_id}",
		Summary:     "Get viral format",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FormatID string `path:"format_id"`
	}) (*struct {
		Body FormatResponse `json:"body"`
	}, error) {
		f, err := cfg.Store.GetFormat(ctx, input.FormatID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body FormatResponse `json:"body"`
		}{Body: formatResponse(f)}, nil
	})
}

func registerTrends(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "trending-hashtags",
		Method:      http.MethodGet,
		Path:        "/trends/hashtags",
		Summary:     "Trending hashtags",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"20"`
	}) (*struct {
		Body []trends.Hashtag `json:"body"`
	}, error) {
		return &struct {
			Body []trends.Hashtag `json:"body"`
		}{Body: cfg.Trends.Hashtags(ctx, input.Limit)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "trending-formats",
		Method:      http.MethodGet,
		Path:        "/trends/formats",
		Summary:     "Trending content formats",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []trends.TrendingFormat `json:"body"`
	}, error) {
		return &struct {
			Body []trends.TrendingFormat `json:"body"`
		}{Body: cfg.Trends.Formats(ctx)}, nil
	})
}

func registerSuggestions(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-video",
		Method:      http.MethodPost,
		Path:        "/videos/{video_id}/analyze",
		Summary:     "Analyze a video against current trends",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		VideoID string `path:"video_id"`
		Body    struct {
			VideoPath   string `json:"video_path,omitempty"`
			UserContext string `json:"user_context,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body suggest.Analysis `json:"body"`
	}, error) {
		res, err := cfg.Analyzer.Analyze(ctx, input.VideoID, input.Body.VideoPath, input.Body.UserContext)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body suggest.Analysis `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-suggestions",
		Method:      http.MethodGet,
		Path:        "/videos/{video_id}/suggestions",
		Summary:     "List suggestions for a video",
	}, func(ctx context.Context, input *struct {
		VideoID string `path:"video_id"`
	}) (*struct {
		Body []SuggestionResponse `json:"body"`
	}, error) {
		items, err := cfg.Analyzer.List(ctx, input.VideoID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := make([]SuggestionResponse, 0, len(items))
		for _, s := range items {
			resp = append(resp, suggestionResponse(s))
		}
		return &struct {
			Body []SuggestionResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-suggestion",
		Method:      http.MethodPost,
		Path:        "/suggestions/{suggestion_id}/accept",
		Summary:     "Accept a suggestion",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SuggestionID string `path:"suggestion_id"`
	}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		if err := cfg.Analyzer.Accept(ctx, input.SuggestionID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{ID: input.SuggestionID, Status: "accepted"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-suggestion",
		Method:      http.MethodPost,
		Path:        "/suggestions/{suggestion_id}/reject",
		Summary:     "Reject a suggestion",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SuggestionID string `path:"suggestion_id"`
	}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		if err := cfg.Analyzer.Reject(ctx, input.SuggestionID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{ID: input.SuggestionID, Status: "rejected"}}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

// ListenAndServe runs the handler with sane timeouts.
func ListenAndServe(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
