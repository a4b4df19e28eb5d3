package navigation

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
)

// Crosslink is an extra root-group entry pointing into another sidebar.
type Crosslink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LoadCrosslinks reads a JSON crosslinks file holding either an array of
// {id,label} objects or an object with a "links" array. A missing file yields
// nothing; an unreadable or malformed one is reported and skipped. Entries
// lacking a string id or label are dropped.
func LoadCrosslinks(path string, log diagnostics.Logger) []Crosslink {
	if path == "" {
		return nil
	}
	if log == nil {
		log = diagnostics.Discard{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warning("Failed to read crosslinks", logfields.Path(path), logfields.Error(err))
		}
		return nil
	}
	links, err := ParseCrosslinks(data)
	if err != nil {
		log.Warning("Ignoring malformed crosslinks", logfields.Path(path), logfields.Error(err))
		return nil
	}
	log.Debug("Loaded crosslinks", logfields.Path(path), logfields.Count(len(links)))
	return links
}

// ParseCrosslinks decodes either accepted crosslinks shape.
func ParseCrosslinks(data []byte) ([]Crosslink, error) {
	var raw []map[string]any
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Links []map[string]any `json:"links"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		raw = wrapped.Links
	}

	links := make([]Crosslink, 0, len(raw))
	for _, entry := range raw {
		id, okID := entry["id"].(string)
		label, okLabel := entry["label"].(string)
		if okID && okLabel {
			links = append(links, Crosslink{ID: id, Label: label})
		}
	}
	return links, nil
}
