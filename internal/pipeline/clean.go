package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// keepFiles survive destination cleaning.
var keepFiles = map[string]bool{
	".gitkeep":        true,
	"_category_.json": true,
}

// CleanDestination removes every file below root except .gitkeep and
// _category_.json. A subdirectory left holding nothing but those files is
// removed entirely. Paths listed in protect, and everything below them, are
// left alone. It returns the number of files removed.
func CleanDestination(root string, protect ...string) (int, error) {
	c := cleaner{protect: make([]string, 0, len(protect))}
	for _, p := range protect {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			c.protect = append(c.protect, abs)
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	err = c.clean(abs)
	return c.removed, err
}

type cleaner struct {
	protect []string
	removed int
}

// within reports whether p is a protected path or lies below one.
func (c *cleaner) within(p string) bool {
	for _, keep := range c.protect {
		if p == keep || strings.HasPrefix(p, keep+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// holds reports whether a protected path lies below directory p.
func (c *cleaner) holds(p string) bool {
	for _, keep := range c.protect {
		if strings.HasPrefix(keep, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (c *cleaner) clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if c.within(p) {
			continue
		}
		if e.IsDir() {
			if err := c.clean(p); err != nil {
				return err
			}
			if c.holds(p) {
				continue
			}
			left, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			if onlyKeepFiles(left) {
				if err := os.RemoveAll(p); err != nil {
					return err
				}
			}
			continue
		}
		if keepFiles[e.Name()] {
			continue
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		c.removed++
	}
	return nil
}

func onlyKeepFiles(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !keepFiles[e.Name()] {
			return false
		}
	}
	return true
}
