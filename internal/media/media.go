// Package media is the boundary to the external video toolchain. Every
// operation reports success or failure plus an output locator; callers
// treat a failure as stage-local and never crash on it.
package media

import "context"

// Result is the uniform outcome of a media operation.
type Result struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_file,omitempty"`
	Err        string `json:"error,omitempty"`
}

// Metadata summarizes a probed file.
type Metadata struct {
	Duration  float64 `json:"duration"`
	SizeBytes int64   `json:"size_bytes"`
	Format    string  `json:"format"`
	Video     struct {
		Codec  string `json:"codec,omitempty"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
	} `json:"video"`
	Audio struct {
		Codec      string `json:"codec,omitempty"`
		SampleRate string `json:"sample_rate,omitempty"`
		Channels   int    `json:"channels,omitempty"`
	} `json:"audio"`
}

// SubtitleOptions controls the text overlay operation.
type SubtitleOptions struct {
	Text            string
	FontSize        int
	FontColor       string
	BackgroundColor string
	Position        string // top, center, bottom
}

// Service exposes the editing operations the workflow needs.
type Service interface {
	Merge(ctx context.Context, inputs []string, output string) Result
	Cut(ctx context.Context, input, output, start, end, duration string) Result
	Subtitle(ctx context.Context, input, output string, opts SubtitleOptions) Result
	Resize(ctx context.Context, input, output string, width, height int, keepAspect bool) Result
	OptimizeForPlatform(ctx context.Context, input, output, platform string) Result
	Probe(ctx context.Context, input string) (Metadata, error)
}

// PlatformSpec holds per-platform output settings.
type PlatformSpec struct {
	Width       int
	Height      int
	Bitrate     string
	MaxDuration int // seconds, 0 = unlimited
}

// platformSpecs mirror the delivery requirements of each target.
// Unknown platforms fall back to the youtube spec.
var platformSpecs = map[string]PlatformSpec{
	"tiktok":    {Width: 1080, Height: 1920, Bitrate: "4000k", MaxDuration: 180},
	"instagram": {Width: 1080, Height: 1920, Bitrate: "3500k", MaxDuration: 90},
	"youtube":   {Width: 1920, Height: 1080, Bitrate: "8000k"},
}

// SpecFor returns the output spec for a platform name.
func SpecFor(platform string) PlatformSpec {
	if spec, ok := platformSpecs[normalize(platform)]; ok {
		return spec
	}
	return platformSpecs["youtube"]
}

func normalize(platform string) string {
	out := make([]byte, 0, len(platform))
	for i := 0; i < len(platform); i++ {
		c := platform[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
