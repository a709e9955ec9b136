package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// OrchestratorConfig controls how a package's files are discovered and
// fanned out to parsers, scoped to a single package directory since seed
// storage is partitioned per package (§4.3).
type OrchestratorConfig struct {
	// Workers bounds concurrent per-file parse tasks; 0 means runtime.NumCPU().
	Workers int
	// Timeout bounds a single file's parse; 0 means no per-file deadline.
	Timeout time.Duration
}

// DefaultOrchestratorConfig bounds concurrency to the CPU count, since a
// package directory rarely has more files than cores are useful for.
func DefaultOrchestratorConfig() OrchestratorConfig {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return OrchestratorConfig{
		Workers: workers,
		Timeout: 30 * time.Second,
	}
}

// PackageResult aggregates every file's ParseResult for one package run,
// keeping per-file failures (§4.2: "a failure must be reported per-file
// without aborting the package") alongside the successes.
type PackageResult struct {
	Results []*ParseResult
	Errors  []error
}

// Orchestrator discovers source files under a package directory and drives
// registered language Parsers over them with bounded concurrency.
type Orchestrator struct {
	config  OrchestratorConfig
	parsers map[string]Parser // keyed by DetectLanguage's language id
}

// NewOrchestrator builds an orchestrator from a set of language parsers.
// Parsers are looked up by the language DetectLanguage assigns to a file
// extension; a file whose language has no registered parser is skipped.
func NewOrchestrator(config OrchestratorConfig, parsers ...Parser) *Orchestrator {
	if config.Workers < 1 {
		config = DefaultOrchestratorConfig()
	}
	reg := make(map[string]Parser, len(parsers))
	for _, p := range parsers {
		reg[p.Language()] = p
	}
	return &Orchestrator{config: config, parsers: reg}
}

// ParsePackage walks packageDir and parses every supported file, bounded by
// config.Workers goroutines (§5: "per-file parser tasks within a package,
// bounded by CPU count").
func (o *Orchestrator) ParsePackage(ctx context.Context, packageDir string, cfg Config) (*PackageResult, error) {
	files, err := walkSourceFiles(packageDir, cfg.RecognizeTestFiles)
	if err != nil {
		return nil, fmt.Errorf("parser: walk %s: %w", packageDir, err)
	}

	type outcome struct {
		result *ParseResult
		err    error
	}
	outcomes := make(chan outcome, o.config.Workers)

	var wg sync.WaitGroup
	for w := 0; w < o.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range files {
				lang := DetectLanguage(filePath)
				p, ok := o.parsers[lang]
				if !ok {
					continue
				}

				parseCtx := ctx
				var cancel context.CancelFunc
				if o.config.Timeout > 0 {
					parseCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
				}
				done := make(chan outcome, 1)
				go func() {
					r, err := p.Parse(filePath, cfg)
					done <- outcome{result: r, err: err}
				}()
				var res outcome
				select {
				case res = <-done:
				case <-parseCtx.Done():
					res = outcome{err: parseCtx.Err()}
				}
				result, err := res.result, res.err
				if cancel != nil {
					cancel()
				}
				if err != nil {
					outcomes <- outcome{err: fmt.Errorf("%s: %w", filePath, err)}
					continue
				}
				outcomes <- outcome{result: result}

				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	pr := &PackageResult{}
	for o := range outcomes {
		if o.err != nil {
			pr.Errors = append(pr.Errors, o.err)
			continue
		}
		pr.Results = append(pr.Results, o.result)
	}
	return pr, nil
}

// DetectLanguage maps a file extension to the language id a registered
// Parser advertises via Parser.Language().
func DetectLanguage(filePath string) string {
	switch filepath.Ext(filePath) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".py", ".pyi", ".pyw":
		return "python"
	case ".cs":
		return "csharp"
	default:
		return ""
	}
}

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "venv": true,
	"__pycache__": true, ".next": true, ".nuxt": true, "dist": true,
	"build": true, "out": true, "bin": true, "obj": true, "target": true,
	".cache": true, ".parcel-cache": true, "coverage": true, ".nyc_output": true,
	".pytest_cache": true, ".tox": true, ".venv": true, "__mocks__": true,
	".idea": true, ".vscode": true,
}

var generatedSuffixes = []string{
	".min.js", ".bundle.js", ".generated.ts", ".generated.js",
	".pb.js", ".pb.ts", ".d.ts", "_pb.js", "_pb.ts", ".designer.cs", ".g.cs",
}

var testFixtureDirs = []string{
	"/__tests__/fixtures/", "/__mocks__/", "/test/fixtures/", "/tests/fixtures/", "/spec/fixtures/",
}

// walkSourceFiles discovers supported source files under dir, applying
// directory-skip, generated-file, and test-fixture exclusion rules.
func walkSourceFiles(dir string, recognizeTestFiles bool) (<-chan string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if DetectLanguage(path) == "" {
				return nil
			}
			if isGeneratedFile(path) {
				return nil
			}
			if !recognizeTestFiles && isTestFixture(path) {
				return nil
			}
			out <- path
			return nil
		})
	}()
	return out, nil
}

func isGeneratedFile(path string) bool {
	for _, suf := range generatedSuffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	for _, dir := range []string{"/dist/", "/build/", "/out/", "/.next/", "/.nuxt/", "/bin/", "/obj/"} {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

func isTestFixture(path string) bool {
	for _, dir := range testFixtureDirs {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}
