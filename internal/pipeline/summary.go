package pipeline

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/resolver"
)

// Summary holds the running counters of a migration.
type Summary struct {
	RunID    string
	Revision string

	FilesCopied      int
	DocumentsWritten int
	FilesUnchanged   int
	FilesFailed      int
	FilesRemoved     int

	LinksRewritten  int
	LinksUnresolved int
	EmbedsExpanded  int
	EmbedsMissing   int

	Duration time.Duration
}

func (s *Summary) addStats(st resolver.Stats) {
	s.LinksRewritten += st.LinksRewritten
	s.LinksUnresolved += st.LinksUnresolved
	s.EmbedsExpanded += st.EmbedsExpanded
	s.EmbedsMissing += st.EmbedsMissing
}

// Lines renders the summary as the report printed at the end of a run.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Files copied: %d", s.FilesCopied),
		fmt.Sprintf("Documents transformed: %d", s.DocumentsWritten),
		fmt.Sprintf("Wikilinks rewritten: %d", s.LinksRewritten),
		fmt.Sprintf("Unresolved links: %d", s.LinksUnresolved),
		fmt.Sprintf("Embeds expanded: %d", s.EmbedsExpanded),
		fmt.Sprintf("Embeds missing: %d", s.EmbedsMissing),
	}
	if s.FilesUnchanged > 0 {
		lines = append(lines, fmt.Sprintf("Files unchanged: %d", s.FilesUnchanged))
	}
	if s.FilesFailed > 0 {
		lines = append(lines, fmt.Sprintf("Files failed: %d", s.FilesFailed))
	}
	return lines
}

func (s Summary) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Outcome classifies the run for the run-outcome counter.
func (s Summary) Outcome() string {
	if s.FilesFailed > 0 || s.LinksUnresolved > 0 || s.EmbedsMissing > 0 {
		return "warning"
	}
	return "success"
}
