package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadings(t *testing.T) {
	body := "# Title\ntext\n```\n# not a heading\n```\n## Sub ##\n#tag line\n"
	hs := Headings(body)
	require.Len(t, hs, 2)
	assert.Equal(t, Heading{Line: 0, Level: 1, Text: "Title"}, hs[0])
	assert.Equal(t, Heading{Line: 5, Level: 2, Text: "Sub"}, hs[1])
}

func TestExtractSection(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		heading string
		want    string
		found   bool
	}{
		{
			name:    "stops at shallower heading",
			body:    "# A\nx\n## B\ny\n# C\nz",
			heading: "B",
			want:    "## B\ny",
			found:   true,
		},
		{
			name:    "includes deeper headings",
			body:    "## B\ny\n### B1\nw\n## C\n",
			heading: "B",
			want:    "## B\ny\n### B1\nw",
			found:   true,
		},
		{
			name:    "runs to end of body",
			body:    "# A\n## Last\ntail\n",
			heading: "Last",
			want:    "## Last\ntail\n",
			found:   true,
		},
		{
			name:    "matches by slug",
			body:    "## Quick-Start!\nrun it\n",
			heading: "quick start",
			want:    "## Quick-Start!\nrun it\n",
			found:   true,
		},
		{
			name:    "ignores fenced lookalike",
			body:    "```\n# B\n```\n",
			heading: "B",
			found:   false,
		},
		{
			name:    "block reference",
			body:    "para one\nimportant line ^key1\nafter\n",
			heading: "^key1",
			want:    "important line",
			found:   true,
		},
		{
			name:    "missing block",
			body:    "nothing here\n",
			heading: "^nope",
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSection(tt.body, tt.heading)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
