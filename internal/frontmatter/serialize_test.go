package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFields(t *testing.T) {
	tests := []struct {
		name   string
		fm     string
		fields []Field
		style  Style
		want   string
	}{
		{
			name: "authored bytes kept, injected fields in order",
			fm:   "# reviewed\ntags: [a, b]\n",
			fields: []Field{
				{Key: KeyTitle, Value: "Getting Started: Part 1"},
				{Key: KeySlug, Value: "getting-started"},
				{Key: KeySidebarPosition, Value: 3},
			},
			want: "# reviewed\ntags: [a, b]\ntitle: 'Getting Started: Part 1'\nslug: getting-started\nsidebar_position: 3\n",
		},
		{
			name:   "missing trailing newline",
			fm:     "draft: true",
			fields: []Field{{Key: KeySlug, Value: "notes"}},
			want:   "draft: true\nslug: notes\n",
		},
		{
			name:   "empty front matter",
			fields: []Field{{Key: KeyTitle, Value: "Inbox"}},
			want:   "title: Inbox\n",
		},
		{
			name:   "numeric-looking title stays a string",
			fields: []Field{{Key: KeyTitle, Value: "2024"}},
			want:   "title: \"2024\"\n",
		},
		{
			name:   "windows newlines",
			fm:     "draft: true\r\n",
			fields: []Field{{Key: KeySlug, Value: "a"}, {Key: KeySidebarPosition, Value: 0}},
			style:  Style{Newline: "\r\n"},
			want:   "draft: true\r\nslug: a\r\nsidebar_position: 0\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AppendFields([]byte(tt.fm), tt.fields, tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))

			parsed, err := ParseYAML(out)
			require.NoError(t, err)
			for _, f := range tt.fields {
				assert.Equal(t, f.Value, parsed[f.Key])
			}
		})
	}
}

func TestAppendFields_NothingToAdd(t *testing.T) {
	fm := []byte("title: A\n")
	out, err := AppendFields(fm, nil, Style{})
	require.NoError(t, err)
	assert.Equal(t, fm, out)
}

func TestAppendFields_SkipsAuthoredKeys(t *testing.T) {
	tests := []struct {
		name string
		fm   string
		want string
	}{
		{name: "empty value", fm: "title:\n", want: "title:\nslug: notes\n"},
		{name: "list value", fm: "title: [a, b]\n", want: "title: [a, b]\nslug: notes\n"},
		{name: "unusable slug", fm: "slug: \"///\"\n", want: "slug: \"///\"\ntitle: Notes\n"},
		{name: "all present", fm: "title: x\nslug: y\n", want: "title: x\nslug: y\n"},
	}

	fields := []Field{{Key: KeyTitle, Value: "Notes"}, {Key: KeySlug, Value: "notes"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AppendFields([]byte(tt.fm), fields, Style{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			_, err = ParseYAML(out)
			require.NoError(t, err)
		})
	}
}

func TestAppendFields_InvalidFrontMatter(t *testing.T) {
	_, err := AppendFields([]byte("title: [unclosed\n"), []Field{{Key: KeySlug, Value: "a"}}, Style{})
	require.Error(t, err)
}
