package markdown

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/naming"
)

// Heading is an ATX heading found outside fenced code.
type Heading struct {
	Line  int // 0-based index into the body's lines
	Level int
	Text  string
}

var (
	atxHeading = regexp.MustCompile(`^\s*(#+)\s+(.*?)\s*$`)
	closingATX = regexp.MustCompile(`\s+#+$`)
	blockID    = regexp.MustCompile(`\s\^([A-Za-z0-9-]+)\s*$`)
)

// Headings lists ATX headings in body order, ignoring lines inside fences.
func Headings(body string) []Heading {
	lines := strings.Split(body, "\n")
	fenced := fencedLines(lines)

	var out []Heading
	for i, line := range lines {
		if fenced[i] {
			continue
		}
		if h, ok := parseHeading(line); ok {
			h.Line = i
			out = append(out, h)
		}
	}
	return out
}

func parseHeading(line string) (Heading, bool) {
	m := atxHeading.FindStringSubmatch(line)
	if m == nil {
		return Heading{}, false
	}
	return Heading{Level: len(m[1]), Text: closingATX.ReplaceAllString(m[2], "")}, true
}

// ExtractSection returns the lines from the heading whose slug matches
// heading up to, not including, the next heading of equal or shallower
// level. A heading starting with "^" selects the line carrying that block id,
// with the id marker removed.
func ExtractSection(body, heading string) (string, bool) {
	if id, ok := strings.CutPrefix(heading, "^"); ok {
		return extractBlock(body, id)
	}

	want := naming.HeadingSlug(heading)
	lines := strings.Split(body, "\n")
	headings := Headings(body)
	for i, h := range headings {
		if naming.HeadingSlug(h.Text) != want {
			continue
		}
		end := len(lines)
		for _, next := range headings[i+1:] {
			if next.Level <= h.Level {
				end = next.Line
				break
			}
		}
		return strings.Join(lines[h.Line:end], "\n"), true
	}
	return "", false
}

func extractBlock(body, id string) (string, bool) {
	lines := strings.Split(body, "\n")
	fenced := fencedLines(lines)
	for i, line := range lines {
		if fenced[i] {
			continue
		}
		m := blockID.FindStringSubmatchIndex(line)
		if m != nil && line[m[2]:m[3]] == id {
			return strings.TrimRight(line[:m[0]], " \t"), true
		}
	}
	return "", false
}

func fencedLines(lines []string) []bool {
	fenced := make([]bool, len(lines))
	active := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		marker := ""
		switch {
		case strings.HasPrefix(trimmed, "```"):
			marker = "```"
		case strings.HasPrefix(trimmed, "~~~"):
			marker = "~~~"
		}
		switch {
		case marker != "" && active == "":
			active = marker
			fenced[i] = true
		case marker != "" && marker == active:
			active = ""
			fenced[i] = true
		default:
			fenced[i] = active != ""
		}
	}
	return fenced
}
