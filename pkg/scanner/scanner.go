// Package scanner is the batch driver: it walks a directory tree for APK
// files and runs the parser chain over them with a worker pool.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/apkscope/apkscope/pkg/apk"
	"github.com/apkscope/apkscope/pkg/models"
)

// Scanner walks directories and inspects every matching APK.
type Scanner struct {
	config *models.Config
	chain  *apk.Chain
	log    *zap.SugaredLogger
}

// New builds a scanner around the default parser chain. The logger also
// feeds the chain's diagnostics.
func New(config *models.Config, log *zap.SugaredLogger) *Scanner {
	return &Scanner{
		config: config,
		chain:  apk.NewDefaultChain(apk.ZapLogger(log)),
		log:    log,
	}
}

// Result is the outcome of one directory scan.
type Result struct {
	Reports    []*models.InspectionReport
	TotalFiles int
	Parsed     int
	Errors     []error
}

// Scan walks the directory, honoring the recursion, symlink and pattern
// settings, and inspects matches concurrently. Per-file failures are
// collected, not fatal; reports come back sorted by path so output is
// stable regardless of worker interleaving.
func (s *Scanner) Scan(directory string) (*Result, error) {
	files, walkErrs := s.collect(directory)

	result := &Result{
		TotalFiles: len(files),
		Errors:     walkErrs,
	}

	workers := s.config.Scanning.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				parsed, err := s.chain.Parse(path)
				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("inspecting %s: %w", path, err))
				} else {
					result.Reports = append(result.Reports, parsed.Report)
					result.Parsed++
				}
				mu.Unlock()
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Reports, func(i, j int) bool {
		return result.Reports[i].FilePath < result.Reports[j].FilePath
	})
	return result, nil
}

// collect gathers the matching file paths up front so the worker count
// can be sized to the actual workload. FollowSymlinks admits symlinked
// files; the walk itself never descends symlinked directories.
func (s *Scanner) collect(directory string) ([]string, []error) {
	var files []string
	var errs []error

	walkErr := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("accessing %s: %w", path, err))
			return nil
		}
		if info.IsDir() {
			if !s.config.Scanning.Recursive && path != directory {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 && !s.config.Scanning.FollowSymlinks {
			return nil
		}
		if !s.matchesPattern(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking %s: %w", directory, walkErr))
	}
	return files, errs
}

// matchesPattern applies the exclude patterns first, then the includes.
func (s *Scanner) matchesPattern(path string) bool {
	filename := filepath.Base(path)

	for _, pattern := range s.config.Scanning.ExcludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return false
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return false
		}
	}
	for _, pattern := range s.config.Scanning.IncludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return true
		}
	}
	return false
}
