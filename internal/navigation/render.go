package navigation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes groups as an object whose keys keep group order.
func (s *Sidebars) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range s.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Name)
		if err != nil {
			return nil, err
		}
		items := g.Items
		if items == nil {
			items = []Node{}
		}
		val, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("sidebar %q: %w", g.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RenderJSON renders the sidebars as indented JSON.
func RenderJSON(s *Sidebars) ([]byte, error) {
	return indentJSON(s)
}

const sidebarsHeader = `// Generated by docmigrate. Do not edit: this file is overwritten on every run.
// All sidebars belong to a single docs plugin instance.
import type { SidebarsConfig } from '@docusaurus/plugin-content-docs';

`

// RenderTS renders the sidebars as a sidebars.ts module. Output contains no
// timestamps so unchanged input yields identical bytes.
func RenderTS(s *Sidebars) ([]byte, error) {
	body, err := indentJSON(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(sidebarsHeader)
	buf.WriteString("const sidebars: SidebarsConfig = ")
	buf.Write(bytes.TrimRight(body, "\n"))
	buf.WriteString(";\n\nexport default sidebars;\n")
	return buf.Bytes(), nil
}

// NavbarItem is one entry of themeConfig.navbar.items.
type NavbarItem struct {
	Type      string `json:"type,omitempty"`
	SidebarID string `json:"sidebarId,omitempty"`
	Label     string `json:"label"`
	To        string `json:"to,omitempty"`
	Href      string `json:"href,omitempty"`
	Position  string `json:"position,omitempty"`
}

// NavbarItems returns one left-aligned docSidebar item per group followed by
// extra. Extra items without a position are placed on the left.
func NavbarItems(s *Sidebars, extra []NavbarItem) []NavbarItem {
	items := make([]NavbarItem, 0, len(s.Groups)+len(extra))
	for _, g := range s.Groups {
		items = append(items, NavbarItem{Type: "docSidebar", SidebarID: g.Name, Label: g.Name, Position: "left"})
	}
	for _, e := range extra {
		if e.Position == "" {
			e.Position = "left"
		}
		items = append(items, e)
	}
	return items
}

// RenderNavbarTS renders items as a navbarItems.ts module.
func RenderNavbarTS(items []NavbarItem) ([]byte, error) {
	if items == nil {
		items = []NavbarItem{}
	}
	body, err := indentJSON(items)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("// Generated by docmigrate. Do not edit: this file is overwritten on every run.\n\n")
	buf.WriteString("const navbarItems = ")
	buf.Write(bytes.TrimRight(body, "\n"))
	buf.WriteString(";\n\nexport default navbarItems;\n")
	return buf.Bytes(), nil
}

func indentJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
