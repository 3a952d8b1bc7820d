// Package crawl implements the disk crawler that turns a source directory
// tree into the flat, URI-keyed set of CurrentFiles a snapshot is built
// from. Its recursive-descent structure and its treatment of directories,
// regular files, and symbolic links follow the shape of Mutagen's
// synchronization scanner, simplified to RRDP's needs: there is no caching,
// no ignore rules, and no executability tracking, because RRDP publishes
// opaque object bytes rather than synchronizing a filesystem tree.
package crawl

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-rpki/rrdppub/pkg/rrdp"
	"github.com/go-rpki/rrdppub/pkg/uri"
)

// ErrCrawlCancelled indicates that the crawl's context was cancelled before
// it completed.
var ErrCrawlCancelled = context.Canceled

// Crawl recursively descends sourceRoot and returns one CurrentFile per
// non-hidden regular file found (following symbolic links transparently),
// with URIs resolved against rsyncBase using the file's path relative to
// sourceRoot. The returned order is unspecified.
func Crawl(ctx context.Context, sourceRoot string, rsyncBase uri.RsyncBase) ([]rrdp.CurrentFile, error) {
	c := &crawler{ctx: ctx, sourceRoot: sourceRoot, rsyncBase: rsyncBase}
	if err := c.walk(sourceRoot); err != nil {
		return nil, err
	}
	return c.results, nil
}

// crawler accumulates CurrentFiles while descending a tree. It plays the
// same role Mutagen's scanner struct plays for synchronization entries, but
// holds no caches because RRDP crawls are always full crawls.
type crawler struct {
	ctx        context.Context
	sourceRoot string
	rsyncBase  uri.RsyncBase
	results    []rrdp.CurrentFile
}

// walk processes one directory, recursing into subdirectories and emitting
// a CurrentFile for each regular file (or symbolic link resolving to one)
// it encounters.
func (c *crawler) walk(dir string) error {
	if err := c.ctx.Err(); err != nil {
		return ErrCrawlCancelled
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errCrawlFailed(dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if isHidden(name) {
			continue
		}

		entryPath := filepath.Join(dir, name)

		// Symbolic links are followed transparently: Stat (rather than
		// Lstat) resolves them to whatever they point at, and the result is
		// handled exactly as if it had been a plain directory or file.
		info, err := os.Stat(entryPath)
		if err != nil {
			return errCrawlFailed(entryPath, err)
		}

		if info.IsDir() {
			if err := c.walk(entryPath); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		content, err := os.ReadFile(entryPath)
		if err != nil {
			return errCrawlFailed(entryPath, err)
		}

		rel, err := filepath.Rel(c.sourceRoot, entryPath)
		if err != nil {
			return errCrawlFailed(entryPath, err)
		}
		rel = filepath.ToSlash(rel)

		c.results = append(c.results, rrdp.NewCurrentFile(c.rsyncBase.Resolve(rel), content))
	}

	return nil
}

// isHidden reports whether name begins with ".", which covers dotfiles as
// well as the "." and ".." entries some platforms surface.
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
