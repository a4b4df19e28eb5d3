package navigation

import (
	"encoding/json"
)

// Node is one sidebar entry. Implementations are *Category, *Doc and *Ref.
type Node interface {
	Kind() string
	isNode()
}

// Category groups the entries of one folder. Link is the docId of the
// folder's index document, empty when it has none.
type Category struct {
	Label string
	Link  string
	Items []Node
}

// Doc is a leaf pointing at one document.
type Doc struct {
	ID       string
	Label    string
	Position int
}

// Ref is a leaf pointing at a document owned by another sidebar.
type Ref struct {
	ID    string
	Label string
}

func (*Category) Kind() string { return "category" }
func (*Doc) Kind() string      { return "doc" }
func (*Ref) Kind() string      { return "ref" }

func (*Category) isNode() {}
func (*Doc) isNode()      {}
func (*Ref) isNode()      {}

type docLink struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// MarshalJSON emits the Docusaurus category shape.
func (c *Category) MarshalJSON() ([]byte, error) {
	out := struct {
		Type  string   `json:"type"`
		Label string   `json:"label"`
		Link  *docLink `json:"link,omitempty"`
		Items []Node   `json:"items"`
	}{Type: c.Kind(), Label: c.Label, Items: c.Items}
	if out.Items == nil {
		out.Items = []Node{}
	}
	if c.Link != "" {
		out.Link = &docLink{Type: "doc", ID: c.Link}
	}
	return json.Marshal(out)
}

// MarshalJSON emits the Docusaurus doc shape. Position only drives ordering
// and is not written.
func (d *Doc) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		ID    string `json:"id"`
		Label string `json:"label"`
	}{d.Kind(), d.ID, d.Label})
}

// MarshalJSON emits the Docusaurus ref shape.
func (r *Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		ID    string `json:"id"`
		Label string `json:"label"`
	}{r.Kind(), r.ID, r.Label})
}

// Group is one named sidebar.
type Group struct {
	Name  string
	Items []Node
}

// Sidebars is the ordered set of groups; the root group comes first.
type Sidebars struct {
	Groups []Group
}

// Group returns the group called name.
func (s *Sidebars) Group(name string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Names lists group names in output order.
func (s *Sidebars) Names() []string {
	names := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		names = append(names, g.Name)
	}
	return names
}
