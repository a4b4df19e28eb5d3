package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docmigrate/internal/diagnostics"
	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
	"git.home.luguber.info/inful/docmigrate/internal/index"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/naming"
	"git.home.luguber.info/inful/docmigrate/internal/resolver"
)

// outputMode is applied to every written document.
const outputMode os.FileMode = 0o444

// fileOutcome is what one per-file step produced. Outcomes are merged in
// index order once every file has been processed.
type fileOutcome struct {
	result      metrics.FileResult
	destPath    string
	fingerprint string
	stats       resolver.Stats
	unresolved  []diagnostics.UnresolvedLink
	links       []resolver.Link
	err         error
}

type transformer struct {
	destRoot string
	res      *resolver.Resolver
	log      diagnostics.Logger
	previous *Manifest // nil when every file must be written
}

// transformAll processes every file of ix. Workers above one fan out over
// files; the index is read-only for the duration.
func (t *transformer) transformAll(ctx context.Context, ix *index.Index, workers int) ([]fileOutcome, error) {
	out := make([]fileOutcome, len(ix.Files))
	if workers <= 1 {
		for i, rec := range ix.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = t.safeProcess(rec)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range ix.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = t.safeProcess(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// safeProcess isolates one file: a panic fails that file only.
func (t *transformer) safeProcess(rec *index.FileRecord) (out fileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fileOutcome{
				result:   metrics.FileFailed,
				destPath: rec.DestPath(),
				err: ferrors.InternalError("panic while transforming file").
					WithContext("path", rec.SourcePath).
					WithContext("panic", fmt.Sprint(r)).
					Build(),
			}
		}
	}()
	return t.process(rec)
}

func (t *transformer) process(rec *index.FileRecord) fileOutcome {
	out := fileOutcome{destPath: rec.DestPath()}
	dest := filepath.Join(t.destRoot, filepath.FromSlash(out.destPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return out.fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create destination directory").
			WithContext("path", filepath.Dir(dest)).Build())
	}

	if !rec.IsDocument {
		if err := copyFile(rec.SourcePath, dest); err != nil {
			return out.fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy file").
				WithContext("path", rec.SourcePath).Build())
		}
		out.result = metrics.FileCopied
		return out
	}

	content, err := os.ReadFile(rec.SourcePath)
	if err != nil {
		return out.fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read document").
			WithContext("path", rec.SourcePath).Build())
	}

	fm, body, had, style, err := frontmatter.Split(content)
	inject := true
	if err != nil {
		t.log.Warning("Malformed front matter; writing document without metadata changes", logfields.Path(rec.SourcePath), logfields.Error(err))
		fm, body, had, inject = nil, content, false, false
	} else if had {
		if _, perr := frontmatter.ParseYAML(fm); perr != nil {
			t.log.Warning("Malformed front matter; metadata not injected", logfields.Path(rec.SourcePath), logfields.Error(perr))
			inject = false
		}
	}

	result, err := t.res.Process(rec, body, frontmatter.BodyLineOffset(fm, had))
	if err != nil {
		return out.fail(ferrors.TransformError("failed to rewrite document").WithCause(err).
			WithContext("path", rec.SourcePath).Build())
	}
	out.stats = result.Stats
	out.unresolved = result.Unresolved
	out.links = result.Links

	if inject {
		fields := missingFields(rec)
		if len(fields) > 0 {
			fm, err = frontmatter.AppendFields(fm, fields, style)
			if err != nil {
				return out.fail(ferrors.TransformError("failed to inject front matter").WithCause(err).
					WithContext("path", rec.SourcePath).Build())
			}
			had = true
		}
	}

	out.fingerprint = Fingerprint(fm, result.Body)
	if t.previous.Unchanged(out.destPath, out.fingerprint, dest) {
		out.result = metrics.FileUnchanged
		return out
	}
	if err := writeReadOnly(dest, frontmatter.Join(fm, result.Body, had, style)); err != nil {
		return out.fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write document").
			WithContext("path", dest).Build())
	}
	out.result = metrics.FileWritten
	return out
}

func (o fileOutcome) fail(err error) fileOutcome {
	o.result = metrics.FileFailed
	o.err = err
	return o
}

// missingFields lists the metadata the author did not set, in output order.
func missingFields(rec *index.FileRecord) []frontmatter.Field {
	var fields []frontmatter.Field
	if !rec.ExplicitTitle && rec.DestTitle != "" {
		fields = append(fields, frontmatter.Field{Key: frontmatter.KeyTitle, Value: rec.DestTitle})
	}
	if !rec.ExplicitSlug && rec.DestSlug != "" {
		fields = append(fields, frontmatter.Field{Key: frontmatter.KeySlug, Value: naming.StripExt(rec.DestSlug)})
	}
	if !rec.ExplicitPosition && rec.SidebarPosition >= 0 {
		fields = append(fields, frontmatter.Field{Key: frontmatter.KeySidebarPosition, Value: rec.SidebarPosition})
	}
	return fields
}

// writeReadOnly replaces path with data and marks it read-only.
func writeReadOnly(path string, data []byte) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.WriteFile(path, data, outputMode); err != nil {
		return err
	}
	return os.Chmod(path, outputMode)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if rerr := os.Remove(dst); rerr != nil && !os.IsNotExist(rerr) {
		return rerr
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
