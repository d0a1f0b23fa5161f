package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Synthesizer turns summary text into an audio artifact at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Renderer turns summary text (and an optional audio track) into a video
// artifact at outPath.
type Renderer interface {
	Render(ctx context.Context, text, audioPath, outPath string) error
}

// EdgeTTS shells out to the edge-tts CLI.
type EdgeTTS struct {
	Voice string
}

func NewEdgeTTS(voice string) *EdgeTTS {
	return &EdgeTTS{Voice: voice}
}

func (t *EdgeTTS) Synthesize(ctx context.Context, text, outPath string) error {
	speech := ToSpeechText(text)
	if speech == "" {
		return fmt.Errorf("empty text for speech synthesis")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "edge-tts",
		"--voice", t.Voice,
		"--text", speech,
		"--write-media", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// FFmpegRenderer renders a text slideshow with ffmpeg, muxing the audio track
// when one exists.
type FFmpegRenderer struct {
	FFmpegPath string
	Width      int
	Height     int
}

func NewFFmpegRenderer(ffmpegPath string) *FFmpegRenderer {
	return &FFmpegRenderer{FFmpegPath: ffmpegPath, Width: 1280, Height: 720}
}

func (r *FFmpegRenderer) Render(ctx context.Context, text, audioPath, outPath string) error {
	display := StripMarkdown(text)
	if strings.TrimSpace(display) == "" {
		display = "No content to display"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	// ffmpeg drawtext reads the text from a file to avoid quoting issues.
	textFile := outPath + ".txt"
	if err := os.WriteFile(textFile, []byte(wrapLines(display, 60)), 0o644); err != nil {
		return err
	}
	defer os.Remove(textFile)

	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:d=30", r.Width, r.Height),
	}
	hasAudio := false
	if audioPath != "" {
		if _, err := os.Stat(audioPath); err == nil {
			args = append(args, "-i", audioPath)
			hasAudio = true
		}
	}
	args = append(args,
		"-vf", fmt.Sprintf("drawtext=textfile=%s:fontcolor=white:fontsize=28:x=40:y=40", textFile),
	)
	if hasAudio {
		args = append(args, "-shortest", "-c:a", "aac")
	}
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, r.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(string(out), 400))
	}
	return nil
}

// wrapLines hard-wraps text at width characters per line.
func wrapLines(text string, width int) string {
	var sb strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		lineLen := 0
		for _, w := range words {
			if lineLen > 0 && lineLen+1+len(w) > width {
				sb.WriteByte('\n')
				lineLen = 0
			} else if lineLen > 0 {
				sb.WriteByte(' ')
				lineLen++
			}
			sb.WriteString(w)
			lineLen += len(w)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
