// Package media holds the audio and video artifact producers. The pipeline
// talks to them through narrow interfaces; the bundled implementations shell
// out to edge-tts and ffmpeg.
package media

import (
	"regexp"
	"strings"
)

var (
	codeFenceRE  = regexp.MustCompile("```[\\s\\S]*?```")
	imageRE      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRE       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	inlineCodeRE = regexp.MustCompile("`([^`]+)`")
	headingRE    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	quoteRE      = regexp.MustCompile(`(?m)^\s{0,3}>\s?`)
	bulletRE     = regexp.MustCompile(`(?m)^\s*[-•]\s+`)
	numberedRE   = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	hruleRE      = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	spacesRE     = regexp.MustCompile(`\s+`)
	dotRunsRE    = regexp.MustCompile(`\.\s*\.+`)
)

// StripMarkdown removes common markdown tokens from generated text while
// keeping the readable content.
func StripMarkdown(text string) string {
	t := codeFenceRE.ReplaceAllString(text, " ")
	t = imageRE.ReplaceAllString(t, " ")
	t = linkRE.ReplaceAllString(t, "$1")
	t = inlineCodeRE.ReplaceAllString(t, "$1")
	t = headingRE.ReplaceAllString(t, "")
	t = quoteRE.ReplaceAllString(t, "")
	t = strings.NewReplacer("**", "", "__", "", "*", "", "_", "").Replace(t)
	t = hruleRE.ReplaceAllString(t, " ")
	return t
}

// ToSpeechText cleans generated text for TTS: markdown and list markers go,
// line breaks become sentence breaks so the narration flows.
func ToSpeechText(text string) string {
	t := StripMarkdown(text)
	t = bulletRE.ReplaceAllString(t, "")
	t = numberedRE.ReplaceAllString(t, "")
	t = regexp.MustCompile(`\n\n+`).ReplaceAllString(t, ". ")
	t = strings.ReplaceAll(t, "\n", ". ")
	t = spacesRE.ReplaceAllString(t, " ")
	t = dotRunsRE.ReplaceAllString(t, ". ")
	return strings.TrimSpace(t)
}
