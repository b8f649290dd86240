// Package scanner enumerates the project's source files under the source
// root, applying exclusion globs and the project's gitignore rules.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"dartbridge/internal/core/config"
	"dartbridge/internal/engine/graph"
)

const sourceExt = ".dart"

type Scanner struct {
	cfg       *config.Config
	logger    *slog.Logger
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
	gitignore *ignore.GitIgnore
}

func New(cfg *config.Config, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{cfg: cfg, logger: logger}

	for _, p := range cfg.Exclude.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		s.dirGlobs = append(s.dirGlobs, g)
	}
	for _, p := range cfg.Exclude.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		s.fileGlobs = append(s.fileGlobs, g)
	}

	if cfg.Exclude.UseGitignore {
		path := filepath.Join(cfg.Paths.ProjectRoot, ".gitignore")
		gi, err := ignore.CompileIgnoreFile(path)
		if err == nil {
			s.gitignore = gi
		} else {
			logger.Debug("no usable gitignore", "path", path, "error", err)
		}
	}

	return s, nil
}

// Scan walks the source root and returns every analyzable file as a
// canonical identity, sorted for deterministic downstream ordering.
func (s *Scanner) Scan() ([]graph.FileIdentity, error) {
	root := filepath.Join(s.cfg.Paths.ProjectRoot, s.cfg.Paths.SourceRoot)

	var out []graph.FileIdentity
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			for _, g := range s.dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !s.Accepts(path) {
			return nil
		}

		id, err := graph.Identify(path)
		if err != nil {
			s.logger.Warn("skipping unidentifiable file", "path", path, "error", err)
			return nil
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// AcceptsDir reports whether a directory should be descended into. Dot
// directories and exclusion globs are rejected; the watcher reuses it when
// registering new subtrees.
func (s *Scanner) AcceptsDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, g := range s.dirGlobs {
		if g.Match(base) {
			return false
		}
	}
	return true
}

// Accepts reports whether a single path belongs to the analyzed set. The
// watcher reuses it to filter change events.
func (s *Scanner) Accepts(path string) bool {
	if filepath.Ext(path) != sourceExt {
		return false
	}
	base := filepath.Base(path)
	if !s.cfg.Analysis.IncludeTests && strings.HasSuffix(base, "_test"+sourceExt) {
		return false
	}
	for _, g := range s.fileGlobs {
		if g.Match(base) {
			return false
		}
	}
	if s.gitignore != nil {
		if rel, err := filepath.Rel(s.cfg.Paths.ProjectRoot, path); err == nil {
			if s.gitignore.MatchesPath(rel) {
				return false
			}
		}
	}
	return true
}
