// Package export renders meetings as Markdown or HTML documents.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format is an export output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts md, markdown and html. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", domain.NewValidationError("unsupported export format %q", s)
}

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Extension returns the file extension of the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render writes the meeting in the requested format.
func Render(m *domain.Meeting, f Format) ([]byte, error) {
	doc := Markdown(m)
	if f == FormatMarkdown {
		return []byte(doc), nil
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(doc), &body); err != nil {
		return nil, fmt.Errorf("failed to render meeting: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	out.WriteString(html.EscapeString(m.Title))
	out.WriteString("</title>\n</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// Markdown formats a meeting as a Markdown document.
func Markdown(m *domain.Meeting) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", m.Title)
	if m.Date != "" {
		fmt.Fprintf(&sb, "**Date:** %s\n\n", m.Date)
	}
	if len(m.Participants) > 0 {
		fmt.Fprintf(&sb, "**Participants:** %s\n\n", strings.Join(m.Participants, ", "))
	}
	fmt.Fprintf(&sb, "**Status:** %s\n\n", m.Status)

	sb.WriteString("## Summary\n\n")
	if m.Summary != "" {
		sb.WriteString(m.Summary + "\n\n")
	} else {
		sb.WriteString("_No summary yet._\n\n")
	}

	writeList(&sb, "Decisions", m.Decisions)
	writeList(&sb, "Action Items", m.ActionItems)

	if m.Transcript != "" {
		sb.WriteString("## Transcript\n\n")
		for _, line := range strings.Split(strings.TrimSpace(m.Transcript), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			sb.WriteString(line + "\n\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}
