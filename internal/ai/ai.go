// Package ai holds the transcription and summarization providers used by
// meeting processing.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Summarizer extracts a summary, decisions and action items from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (Summary, error)
}

// Summary is the structured result of summarization.
type Summary struct {
	Summary     string   `json:"summary"`
	Decisions   []string `json:"decisions"`
	ActionItems []string `json:"action_items"`
}

// DefaultSummaryText is used when the provider response has no SUMMARY line.
const DefaultSummaryText = "Meeting summary generated"

const systemPrompt = "You are an AI assistant specialized in meeting transcription and summarization. " +
	"Generate concise, actionable summaries with clear action items and key decisions."

// SummaryPrompt builds the user prompt for a transcript. The reply format is
// what ParseSummary expects.
func SummaryPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze this meeting transcript and provide:
1. A brief summary (2-3 sentences)
2. Key decisions made
3. Action items with clear ownership if mentioned
4. Important highlights

Transcript: %s

Format your response as:
SUMMARY: [brief summary]
DECISIONS:
- [decision]
ACTION_ITEMS:
- [action item]`, transcript)
}

// ParseSummary reads a SUMMARY:/DECISIONS:/ACTION_ITEMS: formatted reply.
// List entries are lines starting with "-" under their section header.
func ParseSummary(text string) Summary {
	out := Summary{Decisions: []string{}, ActionItems: []string{}}
	section := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SUMMARY:"):
			section = "summary"
			out.Summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		case strings.HasPrefix(line, "DECISIONS:"):
			section = "decisions"
		case strings.HasPrefix(line, "ACTION_ITEMS:"):
			section = "action_items"
		case strings.HasPrefix(line, "-"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if item == "" {
				continue
			}
			switch section {
			case "decisions":
				out.Decisions = append(out.Decisions, item)
			case "action_items":
				out.ActionItems = append(out.ActionItems, item)
			}
		}
	}

	if out.Summary == "" {
		out.Summary = DefaultSummaryText
	}
	return out
}
