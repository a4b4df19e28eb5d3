package frontmatter

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Field is a single key/value pair appended to front matter.
type Field struct {
	Key   string
	Value any
}

// AppendFields returns raw front matter with fields appended in the given
// order. Existing bytes are kept verbatim so authored formatting survives;
// only the appended lines are produced by the YAML encoder. A field whose key
// is already present is skipped whatever its authored value.
func AppendFields(frontmatter []byte, fields []Field, style Style) ([]byte, error) {
	authored, err := topLevelKeys(frontmatter)
	if err != nil {
		return nil, err
	}
	fields = slices.DeleteFunc(slices.Clone(fields), func(f Field) bool { return authored[f.Key] })
	if len(fields) == 0 {
		return frontmatter, nil
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		val, err := scalarNode(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Key, err)
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}, val)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	extra := buf.Bytes()
	if nl != "\n" {
		extra = bytes.ReplaceAll(extra, []byte("\n"), []byte(nl))
	}

	out := make([]byte, 0, len(frontmatter)+len(nl)+len(extra))
	out = append(out, frontmatter...)
	if len(out) > 0 && !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, nl...)
	}
	return append(out, extra...), nil
}

// topLevelKeys lists the keys of the front matter mapping.
func topLevelKeys(frontmatter []byte) (map[string]bool, error) {
	keys := map[string]bool{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return keys, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(frontmatter, &doc); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return keys, nil
	}
	m := doc.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys[m.Content[i].Value] = true
	}
	return keys, nil
}

// scalarNode tags strings explicitly so a title such as "2024" or "yes"
// stays a string after a round trip.
func scalarNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vv}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(vv)}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(vv)}, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return &node, nil
	}
}
