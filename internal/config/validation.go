package config

import (
	"strings"

	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// Validate checks field values. Filesystem existence of the roots is checked
// later, at the start of a run.
func (c *Config) Validate() error {
	switch c.FolderPositionPrecedence {
	case PrefixFirst, MetadataFirst:
	default:
		return ferrors.ValidationError("unknown folder_position_precedence").
			WithContext("value", string(c.FolderPositionPrecedence)).Build()
	}
	if c.PositionStep < 1 {
		return ferrors.ValidationError("position_step must be positive").WithContext("value", c.PositionStep).Build()
	}
	if c.Workers < 1 {
		return ferrors.ValidationError("workers must be at least 1").WithContext("value", c.Workers).Build()
	}
	if c.MaxEmbedDepth < 1 {
		return ferrors.ValidationError("max_embed_depth must be at least 1").WithContext("value", c.MaxEmbedDepth).Build()
	}
	for _, ext := range c.DocumentExtensions {
		if !strings.HasPrefix(ext, ".") {
			return ferrors.ValidationError("document extensions must start with a dot").WithContext("value", ext).Build()
		}
	}
	if c.Source != "" && c.Source == c.Destination {
		return ferrors.ValidationError("source and destination must differ").WithContext("path", c.Source).Build()
	}
	return nil
}
