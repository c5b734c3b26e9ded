package ai

import (
	"context"
	"strings"
)

// MockTranscript is returned by MockTranscriber for any input.
const MockTranscript = `Welcome everyone to today's project sync meeting. I'm John, the project manager.

Sarah: Thanks John. Let me start with the development update. We've completed the user authentication module and the dashboard is 80% done. We're on track to finish by Friday.

Mike: Great work Sarah. From the design side, I've finalized the mobile wireframes and shared them in Slack. I need feedback by Wednesday to proceed with the final designs.

John: Perfect. Sarah, can you review Mike's wireframes by Wednesday? Also, we need to schedule the client demo for next week.

Sarah: Absolutely, I'll review them by Wednesday. For the client demo, I suggest we do it on Tuesday or Wednesday next week.

Mike: Tuesday works better for me. I'll prepare the presentation slides.

John: Excellent. Let's confirm Tuesday at 2 PM for the client demo. Any other updates?

Sarah: One more thing - we'll need to deploy the staging environment by Monday for internal testing.

John: Got it. Let's make that a priority. Thanks everyone, see you next week.`

// MockTranscriber returns a fixed transcript. It is used when no
// transcription provider is configured.
type MockTranscriber struct{}

func (MockTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return MockTranscript, nil
}

// MockSummarizer builds a summary from the transcript without a remote call.
// Lines mentioning "confirm" or "decide" become decisions, lines with
// "I'll" or "need to" become action items.
type MockSummarizer struct{}

func (MockSummarizer) Summarize(ctx context.Context, transcript string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	var b strings.Builder
	b.WriteString("SUMMARY: ")
	b.WriteString(firstSentence(transcript))
	b.WriteString("\nDECISIONS:\n")
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "confirm") || strings.Contains(lower, "decide") {
			b.WriteString("- " + strings.TrimSpace(line) + "\n")
		}
	}
	b.WriteString("ACTION_ITEMS:\n")
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "i'll") || strings.Contains(lower, "need to") {
			b.WriteString("- " + strings.TrimSpace(line) + "\n")
		}
	}
	return ParseSummary(b.String()), nil
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}
