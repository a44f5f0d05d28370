package pack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
)

// CacheDirName is scrubbed from code directories before bundling, otherwise
// the framework copies it into the model directory.
const CacheDirName = "__pycache__"

// CheckCodePaths validates that every code path is an existing directory,
// that none equals the current working directory and that none is an
// ancestor of the output path (which would pull the output into itself).
func CheckCodePaths(codePaths []string, outPath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return err
	}
	for _, path := range codePaths {
		info, err := os.Stat(path)
		if err != nil {
			return errors.NewFileNotFoundError(path)
		}
		if !info.IsDir() {
			return errors.NewConfigInvalidError(
				fmt.Sprintf("all code dependencies must be directories, %s is not", path))
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if abs == cwd {
			return errors.NewConfigInvalidError("code paths must not contain the current directory")
		}
		if isAncestorOf(abs, absOut) {
			return errors.NewConfigInvalidError(fmt.Sprintf(
				"code path %s cannot be a parent of the output path %s", path, outPath))
		}
	}
	return nil
}

func isAncestorOf(dir string, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// ScrubCaches removes cache directories below every code path.
func ScrubCaches(codePaths []string) error {
	g := errgroup.Group{}
	for _, path := range codePaths {
		path := path
		g.Go(func() error {
			var caches []string
			err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() && d.Name() == CacheDirName {
					caches = append(caches, p)
					return fs.SkipDir
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, cache := range caches {
				if err := os.RemoveAll(cache); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
