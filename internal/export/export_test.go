package export

import (
	"testing"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMeeting() *domain.Meeting {
	return &domain.Meeting{
		Title:        "Project <Sync>",
		Date:         "2024-05-01 10:00",
		Participants: domain.StringList{"John", "Sarah"},
		Summary:      "Demo scheduled.",
		Decisions:    domain.StringList{"Demo on Tuesday"},
		ActionItems:  domain.StringList{"Sarah reviews wireframes"},
		Transcript:   "John: hello\n\nSarah: hi",
		Status:       domain.MeetingCompleted,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, domain.IsKind(err, domain.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleMeeting())

	assert.Contains(t, out, "# Project <Sync>\n")
	assert.Contains(t, out, "**Participants:** John, Sarah")
	assert.Contains(t, out, "## Decisions\n\n- Demo on Tuesday\n")
	assert.Contains(t, out, "## Action Items\n\n- Sarah reviews wireframes\n")
	assert.Contains(t, out, "John: hello\n\nSarah: hi\n")
}

func TestMarkdown_EmptyMeeting(t *testing.T) {
	out := Markdown(&domain.Meeting{Title: "Empty", Status: domain.MeetingPending})

	assert.Contains(t, out, "_No summary yet._")
	assert.NotContains(t, out, "## Decisions")
	assert.NotContains(t, out, "## Transcript")
}

func TestRender_HTML(t *testing.T) {
	out, err := Render(sampleMeeting(), FormatHTML)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>Project &lt;Sync&gt;</title>")
	assert.Contains(t, html, "<h2>Decisions</h2>")
	assert.Contains(t, html, "<li>Demo on Tuesday</li>")
	assert.Contains(t, html, "<strong>Participants:</strong>")
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
	assert.Equal(t, "text/markdown; charset=utf-8", FormatMarkdown.ContentType())
	assert.Equal(t, "md", FormatMarkdown.Extension())
}
