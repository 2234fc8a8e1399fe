package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"logsmith/internal/syntax"
)

var excludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".next":        true,
	".nuxt":        true,
	".turbo":       true,
}

// IsExcludedDir reports whether a directory name is always skipped.
func IsExcludedDir(name string) bool {
	return excludedDirs[name]
}

// GetAllSourceFiles walks rootPath and returns the JavaScript and TypeScript
// files it contains, skipping well-known output directories and anything
// matched by the root .gitignore.
func GetAllSourceFiles(rootPath string) ([]string, error) {
	var files []string
	ignorePatterns := loadGitIgnorePatterns(rootPath)
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != rootPath && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if isIgnoredPath(relPath, ignorePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if isIgnoredPath(relPath, ignorePatterns) {
			return nil
		}
		if syntax.IsSupportedFile(path) && !strings.HasSuffix(path, ".d.ts") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ExpandPaths turns command arguments into a sorted, de-duplicated list of
// source files. Directories are walked; files are taken as given as long as
// their language is supported.
func ExpandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := syntax.CheckSupported(arg); err != nil {
				return nil, fmt.Errorf("%s: %w", arg, err)
			}
			add(filepath.Clean(arg))
			continue
		}
		files, err := GetAllSourceFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	sort.Strings(out)
	return out, nil
}

func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// loadGitIgnorePatterns reads the root-level .gitignore (if present) and
// returns a list of non-empty, non-comment patterns.
func loadGitIgnorePatterns(rootPath string) []string {
	gitIgnorePath := filepath.Join(rootPath, ".gitignore")
	data, err := os.ReadFile(gitIgnorePath)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(data), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// isIgnoredPath applies the subset of .gitignore matching needed to skip
// build output and generated bundles. Patterns are root-relative.
func isIgnoredPath(relPath string, patterns []string) bool {
	relPath = strings.TrimSpace(strings.TrimPrefix(relPath, "./"))
	if relPath == "" || relPath == "." {
		return false
	}

	for _, pattern := range patterns {
		p := filepath.ToSlash(strings.TrimSpace(pattern))
		p = strings.TrimPrefix(p, "/")
		if p == "" {
			continue
		}

		// Directory-style pattern, e.g. "out/".
		if strings.HasSuffix(p, "/") {
			dir := strings.TrimPrefix(strings.TrimSuffix(p, "/"), "./")
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
				return true
			}
			continue
		}

		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
		// Globs without a slash match the base name at any depth.
		if !strings.Contains(p, "/") {
			if ok, _ := filepath.Match(p, filepath.Base(relPath)); ok {
				return true
			}
			segment := "/" + p + "/"
			if strings.Contains("/"+relPath+"/", segment) {
				return true
			}
		}
	}

	return false
}
