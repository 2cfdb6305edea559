package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Name    string
	Size    int64
}

// Options selects which files a walk emits.
type Options struct {
	// Match filters files by base name. Nil matches every file.
	Match func(name string) bool
	// Prune reports directories (absolute path) whose subtree is skipped.
	// The root itself is checked too.
	Prune func(path string) bool
	// Skip excludes individual files by absolute path.
	Skip func(path string) bool
}

// Walk traverses the directory tree rooted at root in lexical pre-order and
// sends matching files on the returned channel. Unreadable entries are
// skipped. The error channel receives at most one error and is closed when
// the walk ends; cancelling ctx ends the walk early with ctx.Err().
func Walk(ctx context.Context, root string, opts Options) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != absRoot {
					return filepath.SkipDir
				}
				return nil // skip errors, keep walking
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if d.IsDir() {
				if opts.Prune != nil && opts.Prune(path) {
					return filepath.SkipDir
				}
				return nil
			}

			name := d.Name()
			if opts.Match != nil && !opts.Match(name) {
				return nil
			}
			if opts.Skip != nil && opts.Skip(path) {
				return nil
			}

			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}

			relPath, _ := filepath.Rel(absRoot, path)
			select {
			case files <- FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Name:    name,
				Size:    size,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// HasSuffix matches file names ending in any of suffixes. Suffixes are
// compared literally, so both ".h" and "CMakeLists.txt" work.
func HasSuffix(suffixes ...string) func(name string) bool {
	return func(name string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}
}

// ExcludeBuildAndGit prunes any directory whose full path contains "build"
// in any case, or ".git". The match is a substring of the whole path, so a
// root under e.g. ~/builds/ is excluded entirely.
func ExcludeBuildAndGit(path string) bool {
	return strings.Contains(strings.ToLower(path), "build") || strings.Contains(path, ".git")
}

// PathContainsAny excludes files whose full path contains any of parts.
func PathContainsAny(parts ...string) func(path string) bool {
	return func(path string) bool {
		for _, p := range parts {
			if strings.Contains(path, p) {
				return true
			}
		}
		return false
	}
}
