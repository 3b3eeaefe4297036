package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// Scanner discovers files under one or more roots.
type Scanner struct {
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan walks every root concurrently. Roots are validated up front so a
// typo fails before any walking starts.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*Result, error) {
	roots := make([]string, len(opts.Roots))
	for i, r := range opts.Roots {
		abs, err := validateRoot(r)
		if err != nil {
			return nil, err
		}
		roots[i] = abs
	}

	exts := normalizeExtensions(opts.Extensions)
	result := &Result{
		Roots:      make([]RootResult, len(roots)),
		Extensions: exts,
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, root := range roots {
		g.Go(func() error {
			rr, err := s.scanRoot(gctx, root, exts, opts)
			if err != nil {
				return err
			}
			result.Roots[i] = rr
			if opts.ProgressFunc != nil {
				n := 0
				for _, p := range rr.ByExtension {
					n += len(p)
				}
				opts.ProgressFunc(root, n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("scan_complete",
		slog.Int("roots", len(roots)),
		slog.Int("extensions", len(exts)),
		slog.Int("files", result.Count()))
	return result, nil
}

// ScanRoot walks a single root. It is what the catalog calls when only
// some extensions of a root need refreshing.
func (s *Scanner) ScanRoot(ctx context.Context, root string, opts ScanOptions) (RootResult, error) {
	abs, err := validateRoot(root)
	if err != nil {
		return RootResult{}, err
	}
	return s.scanRoot(ctx, abs, normalizeExtensions(opts.Extensions), opts)
}

func (s *Scanner) scanRoot(ctx context.Context, root string, exts []string, opts ScanOptions) (RootResult, error) {
	rr := RootResult{
		Root:        root,
		ByExtension: make(map[string][]string, len(exts)),
	}
	for _, ext := range exts {
		rr.ByExtension[ext] = []string{}
	}
	if len(exts) == 0 {
		return rr, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			rr.Skipped++
			s.logger.Debug("scan_skip", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.shouldExcludeDir(relPath, d.Name(), opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if !opts.IncludeHidden && isHidden(d.Name()) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		ext := Extension(d.Name())
		if bucket, ok := rr.ByExtension[ext]; ok {
			rr.ByExtension[ext] = append(bucket, path)
		}
		return nil
	})
	if err != nil {
		return RootResult{}, fmt.Errorf("scan %s: %w", root, err)
	}

	for ext := range rr.ByExtension {
		slices.Sort(rr.ByExtension[ext])
	}
	return rr, nil
}

// shouldExcludeDir checks default and custom exclusions, then hidden dirs.
func (s *Scanner) shouldExcludeDir(relPath, name string, opts ScanOptions) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return !opts.IncludeHidden && isHidden(name)
}

// matchDirPattern checks if a directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	// **/name/** matches name at any depth
	if strings.HasPrefix(pattern, "**/") {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		return slices.Contains(strings.Split(relPath, string(filepath.Separator)), name)
	}

	// prefix/** matches the directory itself and everything below it
	prefix := strings.TrimSuffix(pattern, "/**")
	return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}

func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", trovoerrors.New(trovoerrors.ErrCodeFileNotFound,
			fmt.Sprintf("scan root not found: %s", abs), err).
			WithDetail("root", abs).
			WithSuggestion("Check the --path flag or scan.paths in your config")
	}
	if !info.IsDir() {
		return "", trovoerrors.New(trovoerrors.ErrCodeFileNotFound,
			fmt.Sprintf("scan root is not a directory: %s", abs), nil).
			WithDetail("root", abs)
	}
	return abs, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" && !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

// ExcludeExtensions drops paths whose extension is in exts. Paths
// without an extension are kept. Order is preserved.
func ExcludeExtensions(paths []string, exts []string) []string {
	drop := normalizeExtensions(exts)
	if len(drop) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !slices.Contains(drop, Extension(p)) {
			out = append(out, p)
		}
	}
	return out
}

// MatchExtensions filters paths to those whose extension is in exts and,
// when prefix is non-empty, that start with prefix. Order is preserved.
// An empty exts keeps every extension.
func MatchExtensions(paths []string, prefix string, exts []string) []string {
	want := normalizeExtensions(exts)
	var out []string
	for _, p := range paths {
		if prefix != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		if len(want) > 0 && !slices.Contains(want, Extension(p)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
