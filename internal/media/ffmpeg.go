package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trendle/internal/config"
)

// FFmpeg runs the external ffmpeg/ffprobe binaries. All commands run
// under the configured timeout; a killed process surfaces as a failed
// Result, not an error the caller has to special-case.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	timeout     time.Duration
}

func NewFFmpeg(cfg *config.Config) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  cfg.Media.FFmpegPath,
		ffprobePath: cfg.Media.FFprobePath,
		workDir:     cfg.Media.WorkDir,
		timeout:     cfg.MediaTimeout(),
	}
}

func (f *FFmpeg) outputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.workDir, name)
}

func (f *FFmpeg) run(ctx context.Context, args []string, output string) Result {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := err.Error()
		if len(out) > 0 {
			msg = fmt.Sprintf("%v: %s", err, lastLines(string(out), 3))
		}
		return Result{Success: false, Err: msg}
	}
	return Result{Success: true, OutputPath: output}
}

// Merge concatenates inputs in order using the concat demuxer with
// stream copy, the fast path when all segments share a codec.
func (f *FFmpeg) Merge(ctx context.Context, inputs []string, output string) Result {
	if len(inputs) == 0 {
		return Result{Success: false, Err: "no input files"}
	}
	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return Result{Success: false, Err: err.Error()}
	}
	listPath := filepath.Join(f.workDir, fmt.Sprintf("concat_%d.txt", time.Now().UnixNano()))
	var sb strings.Builder
	for _, in := range inputs {
		fmt.Fprintf(&sb, "file '%s'\n", in)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return Result{Success: false, Err: err.Error()}
	}
	defer os.Remove(listPath)

	out := f.outputPath(output)
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", out}
	return f.run(ctx, args, out)
}

func (f *FFmpeg) Cut(ctx context.Context, input, output, start, end, duration string) Result {
	out := f.outputPath(output)
	args := []string{"-y", "-i", input, "-ss", start}
	if end != "" {
		args = append(args, "-to", end)
	} else if duration != "" {
		args = append(args, "-t", duration)
	}
	args = append(args, "-c", "copy", out)
	return f.run(ctx, args, out)
}

var subtitlePositions = map[string]string{
	"top":    "x=(w-text_w)/2:y=50",
	"center": "x=(w-text_w)/2:y=(h-text_h)/2",
	"bottom": "x=(w-text_w)/2:y=h-text_h-50",
}

func (f *FFmpeg) Subtitle(ctx context.Context, input, output string, opts SubtitleOptions) Result {
	if opts.FontSize == 0 {
		opts.FontSize = 24
	}
	if opts.FontColor == "" {
		opts.FontColor = "white"
	}
	if opts.BackgroundColor == "" {
		opts.BackgroundColor = "black@0.5"
	}
	pos, ok := subtitlePositions[opts.Position]
	if !ok {
		pos = subtitlePositions["bottom"]
	}
	drawtext := fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:box=1:boxcolor=%s:%s",
		escapeDrawtext(opts.Text), opts.FontSize, opts.FontColor, opts.BackgroundColor, pos)
	out := f.outputPath(output)
	args := []string{"-y", "-i", input, "-vf", drawtext, "-codec:a", "copy", out}
	return f.run(ctx, args, out)
}

func (f *FFmpeg) Resize(ctx context.Context, input, output string, width, height int, keepAspect bool) Result {
	var filter string
	if keepAspect {
		filter = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			width, height, width, height)
	} else {
		filter = fmt.Sprintf("scale=%d:%d", width, height)
	}
	out := f.outputPath(output)
	args := []string{"-y", "-i", input, "-vf", filter, "-c:a", "copy", out}
	return f.run(ctx, args, out)
}

func (f *FFmpeg) OptimizeForPlatform(ctx context.Context, input, output, platform string) Result {
	spec := SpecFor(platform)
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%dx%d:(ow-iw)/2:(oh-ih)/2",
		spec.Width, spec.Height, spec.Width, spec.Height)
	out := f.outputPath(output)
	args := []string{
		"-y", "-i", input,
		"-vf", filter,
		"-b:v", spec.Bitrate,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		out,
	}
	return f.run(ctx, args, out)
}

type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func (f *FFmpeg) Probe(ctx context.Context, input string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe %s: %w", input, err)
	}
	var raw probeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return Metadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var md Metadata
	md.Duration, _ = strconv.ParseFloat(raw.Format.Duration, 64)
	md.SizeBytes, _ = strconv.ParseInt(raw.Format.Size, 10, 64)
	md.Format = raw.Format.FormatName
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if md.Video.Codec == "" {
				md.Video.Codec = s.CodecName
				md.Video.Width = s.Width
				md.Video.Height = s.Height
			}
		case "audio":
			if md.Audio.Codec == "" {
				md.Audio.Codec = s.CodecName
				md.Audio.SampleRate = s.SampleRate
				md.Audio.Channels = s.Channels
			}
		}
	}
	return md, nil
}

func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return s
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
