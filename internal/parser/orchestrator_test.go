package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"a.ts", "typescript"},
		{"a.tsx", "tsx"},
		{"a.js", "javascript"},
		{"a.jsx", "javascript"},
		{"a.py", "python"},
		{"a.cs", "csharp"},
		{"README.md", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.file), "file: %s", tt.file)
	}
}

// stubParser is a minimal Parser used to exercise the orchestrator without
// depending on a real tree-sitter grammar.
type stubParser struct {
	lang  string
	calls int
}

func (s *stubParser) Language() string { return s.lang }

func (s *stubParser) Parse(filePath string, cfg Config) (*ParseResult, error) {
	s.calls++
	return &ParseResult{FilePath: filePath, Language: s.lang}, nil
}

func TestParsePackageSkipsUnregisteredLanguages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rb"), []byte("x = 1"), 0o644))

	ts := &stubParser{lang: "typescript"}
	o := NewOrchestrator(OrchestratorConfig{Workers: 2}, ts)

	result, err := o.ParsePackage(context.Background(), dir, Config{RepoName: "acme", PackagePath: "."})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "a.ts", filepath.Base(result.Results[0].FilePath))
	assert.Equal(t, 1, ts.calls)
}

func TestParsePackageSkipsGeneratedAndVendorPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "dep.ts"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.min.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.ts"), []byte("x"), 0o644))

	ts := &stubParser{lang: "typescript"}
	js := &stubParser{lang: "javascript"}
	o := NewOrchestrator(OrchestratorConfig{Workers: 2}, ts, js)

	result, err := o.ParsePackage(context.Background(), dir, Config{RepoName: "acme", PackagePath: "."})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "keep.ts", filepath.Base(result.Results[0].FilePath))
}

func TestParsePackageMissingDirErrors(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{Workers: 1}, &stubParser{lang: "typescript"})
	_, err := o.ParsePackage(context.Background(), filepath.Join(t.TempDir(), "missing"), Config{})
	assert.Error(t, err)
}

func TestDefaultOrchestratorConfigHasAtLeastOneWorker(t *testing.T) {
	cfg := DefaultOrchestratorConfig()
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}
