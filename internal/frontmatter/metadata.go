package frontmatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Recognized metadata keys.
const (
	KeyTitle           = "title"
	KeySlug            = "slug"
	KeySidebarPosition = "sidebar_position"
	KeyFolderPosition  = "folder_position"
)

// Metadata is the subset of front matter the migrator reads. Each value has a
// Has* flag so callers can distinguish authored values from defaults.
type Metadata struct {
	Title              string
	HasTitle           bool
	Slug               string
	HasSlug            bool
	SidebarPosition    int
	HasSidebarPosition bool
	FolderPosition     int
	HasFolderPosition  bool
}

// Extract reads recognized keys from parsed front matter. Values of the wrong
// shape are ignored rather than reported.
func Extract(fields map[string]any) Metadata {
	var md Metadata
	if s, ok := stringValue(fields[KeyTitle]); ok {
		md.Title, md.HasTitle = s, true
	}
	if s, ok := stringValue(fields[KeySlug]); ok {
		md.Slug, md.HasSlug = s, true
	}
	if n, ok := intValue(fields[KeySidebarPosition]); ok {
		md.SidebarPosition, md.HasSidebarPosition = n, true
	}
	if n, ok := intValue(fields[KeyFolderPosition]); ok {
		md.FolderPosition, md.HasFolderPosition = n, true
	}
	return md
}

// Read splits content and extracts its metadata. On malformed front matter the
// returned Metadata is empty and err describes the problem.
func Read(content []byte) (Metadata, error) {
	fm, _, had, _, err := Split(content)
	if err != nil {
		return Metadata{}, err
	}
	if !had {
		return Metadata{}, nil
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse front matter: %w", err)
	}
	return Extract(fields), nil
}

func stringValue(v any) (string, bool) {
	switch vv := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(vv)
		return s, s != ""
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(vv), true
	default:
		return "", false
	}
}

func intValue(v any) (int, bool) {
	switch vv := v.(type) {
	case int:
		return vv, true
	case int64:
		return int(vv), true
	case uint64:
		if vv > math.MaxInt32 {
			return 0, false
		}
		return int(vv), true
	case float64:
		if math.IsNaN(vv) || math.IsInf(vv, 0) {
			return 0, false
		}
		return int(vv), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		return n, err == nil
	default:
		return 0, false
	}
}
