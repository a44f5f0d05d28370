// Package codepath discovers the local source directories a model entry file
// depends on, so the packaging step can bundle them. Imports are resolved
// through an explicit resolver map supplied by the build step instead of any
// runtime introspection.
package codepath

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
)

// Resolver maps module names (dotted or top level) to the filesystem
// directory holding their source.
type Resolver map[string]string

var (
	importRe     = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	fromImportRe = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`)
)

// parseImports statically scans a source file for imported module names.
func parseImports(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var modules []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if m := fromImportRe.FindStringSubmatch(line); m != nil {
			modules = append(modules, m[1])
			continue
		}
		if m := importRe.FindStringSubmatch(line); m != nil {
			for _, name := range strings.Split(m[1], ",") {
				modules = append(modules, strings.TrimSpace(name))
			}
		}
	}
	return modules, scanner.Err()
}

func isIgnoredDir(dir string, ignorePaths []string) bool {
	for _, part := range strings.Split(filepath.Clean(dir), string(os.PathSeparator)) {
		// virtual environments and installed packages are never bundled
		if strings.Contains(part, "venv") || part == "site-packages" {
			return true
		}
	}
	for _, ignore := range ignorePaths {
		// ignore the path itself and anything below it
		if dir == ignore || strings.HasPrefix(dir, ignore+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// topLevelDir walks up from the resolved module directory to the outermost
// package directory owning the import, e.g. pkg/sub resolves to pkg.
func topLevelDir(moduleName string, dir string) string {
	base := moduleName
	if head, _, found := strings.Cut(moduleName, "."); found {
		base = head
	}
	parts := strings.Split(filepath.Clean(dir), string(os.PathSeparator))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == base {
			return strings.Join(parts[:i+1], string(os.PathSeparator))
		}
	}
	return dir
}

// Infer returns the deduplicated set of top-level source directories the
// entry file imports, resolved through resolver. Imports the resolver does
// not know (standard library, installed packages) are skipped, as are
// directories under any ignore path.
//
// Known limitation: inconsistent import styles for the same underlying
// module produce divergent paths.
func Infer(entry string, resolver Resolver, ignorePaths []string) ([]string, error) {
	for _, p := range append([]string{entry}, ignorePaths...) {
		if _, err := os.Stat(p); err != nil {
			return nil, errors.NewFileNotFoundError(p)
		}
	}

	modules, err := parseImports(entry)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var paths []string
	for _, module := range modules {
		dir, ok := resolver[module]
		if !ok {
			head, _, _ := strings.Cut(module, ".")
			if dir, ok = resolver[head]; !ok {
				continue
			}
		}
		if isIgnoredDir(dir, ignorePaths) {
			continue
		}
		top := topLevelDir(module, dir)
		if _, dup := seen[top]; dup {
			continue
		}
		seen[top] = struct{}{}
		paths = append(paths, top)
	}
	slices.Sort(paths)
	return paths, nil
}
