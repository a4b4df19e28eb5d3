package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Span is a half-open byte range into a document body.
type Span struct {
	Start int
	End   int
}

// Node is one contiguous span of a document body. The set of node types is
// closed: *Prose and *Code.
type Node interface {
	Bounds() Span
	isNode()
}

// Prose is body text outside any code or raw HTML. Wikilinks and embeds are
// only recognized inside prose.
type Prose struct{ Span }

// CodeKind identifies why a span is protected from rewriting.
type CodeKind string

const (
	CodeInline CodeKind = "inline"
	CodeBlock  CodeKind = "block"
	CodeHTML   CodeKind = "html"
)

// Code is a span that must be copied through verbatim.
type Code struct {
	Span
	Kind CodeKind
}

func (p *Prose) Bounds() Span { return p.Span }
func (c *Code) Bounds() Span  { return c.Span }
func (*Prose) isNode()        {}
func (*Code) isNode()         {}

// Document is a Markdown body partitioned into prose and code spans that
// together cover the whole source in order.
type Document struct {
	Source     []byte
	Nodes      []Node
	lineStarts []int
}

// Parse partitions body (front matter already removed) using goldmark's
// block and inline parser to locate code spans, code blocks and raw HTML.
func Parse(body []byte) *Document {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var protected []*Code
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.FencedCodeBlock:
			if c := fencedSpan(body, node); c != nil {
				protected = append(protected, c)
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeBlock:
			if s, ok := linesSpan(node.Lines()); ok {
				protected = append(protected, &Code{Span: s, Kind: CodeBlock})
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.HTMLBlock:
			if s, ok := linesSpan(node.Lines()); ok {
				if node.HasClosure() && node.ClosureLine.Stop > s.End {
					s.End = node.ClosureLine.Stop
				}
				protected = append(protected, &Code{Span: s, Kind: CodeHTML})
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeSpan:
			if s, ok := childTextSpan(node); ok {
				protected = append(protected, &Code{Span: s, Kind: CodeInline})
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML:
			if node.Segments.Len() > 0 {
				s := Span{Start: node.Segments.At(0).Start, End: node.Segments.At(node.Segments.Len() - 1).Stop}
				protected = append(protected, &Code{Span: s, Kind: CodeHTML})
			}
		}
		return gmast.WalkContinue, nil
	})

	return &Document{
		Source:     body,
		Nodes:      partition(len(body), protected),
		lineStarts: lineStarts(body),
	}
}

// Position converts a byte offset into a 1-based line and column.
func (d *Document) Position(offset int) (line, col int) {
	i := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - d.lineStarts[i] + 1
}

// Text returns the source bytes of a node.
func (d *Document) Text(n Node) []byte {
	b := n.Bounds()
	return d.Source[b.Start:b.End]
}

// Rewrite calls fn for each prose node and applies the returned edits. Edit
// offsets are absolute positions in Source.
func (d *Document) Rewrite(fn func(p *Prose) []Edit) ([]byte, error) {
	var edits []Edit
	for _, n := range d.Nodes {
		switch n := n.(type) {
		case *Prose:
			edits = append(edits, fn(n)...)
		case *Code:
			// copied verbatim
		}
	}
	return ApplyEdits(d.Source, edits)
}

func fencedSpan(body []byte, node *gmast.FencedCodeBlock) *Code {
	lines := node.Lines()
	var start, end int
	switch {
	case node.Info != nil:
		start = lineStartOf(body, node.Info.Segment.Start)
	case lines.Len() > 0:
		start = lineStartOf(body, lines.At(0).Start)
		if start > 0 {
			start = lineStartOf(body, start-1)
		}
	default:
		return nil
	}
	end = start
	if lines.Len() > 0 {
		end = lines.At(lines.Len() - 1).Stop
	}
	if nl := bytes.IndexByte(body[end:], '\n'); nl >= 0 {
		end += nl + 1
	} else {
		end = len(body)
	}
	return &Code{Span: Span{Start: start, End: end}, Kind: CodeBlock}
}

func linesSpan(lines *text.Segments) (Span, bool) {
	if lines == nil || lines.Len() == 0 {
		return Span{}, false
	}
	return Span{Start: lines.At(0).Start, End: lines.At(lines.Len() - 1).Stop}, true
}

func childTextSpan(n gmast.Node) (Span, bool) {
	s := Span{Start: -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			continue
		}
		if s.Start < 0 {
			s.Start = t.Segment.Start
		}
		s.End = t.Segment.Stop
	}
	return s, s.Start >= 0
}

func lineStartOf(body []byte, offset int) int {
	if offset > len(body) {
		offset = len(body)
	}
	return bytes.LastIndexByte(body[:offset], '\n') + 1
}

func lineStarts(body []byte) []int {
	starts := []int{0}
	for i, b := range body {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// partition merges protected spans and fills the gaps with prose.
func partition(size int, protected []*Code) []Node {
	sort.Slice(protected, func(i, j int) bool { return protected[i].Start < protected[j].Start })

	nodes := make([]Node, 0, 2*len(protected)+1)
	pos := 0
	for _, c := range protected {
		if c.End <= pos {
			continue
		}
		if c.Start < pos {
			c.Start = pos
		}
		if c.Start > pos {
			nodes = append(nodes, &Prose{Span{Start: pos, End: c.Start}})
		}
		nodes = append(nodes, c)
		pos = c.End
	}
	if pos < size {
		nodes = append(nodes, &Prose{Span{Start: pos, End: size}})
	}
	return nodes
}
