package ident

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		repoRoot string
		expected string
	}{
		{"already relative", "src/file.ts", "/repo", "src/file.ts"},
		{"absolute under root", "/repo/src/file.ts", "/repo", "src/file.ts"},
		{"absolute root itself", "/repo", "/repo", "."},
		{"outside root falls back to cleaned absolute", "/other/file.ts", "/repo", "/other/file.ts"},
	}

	for _, tt := range tests {
		result := NormalizePath(tt.absPath, tt.repoRoot)
		assert.Equal(t, tt.expected, result, "case: %s", tt.name)
	}
}

func TestEntityIDIsDeterministic(t *testing.T) {
	a := EntityID("acme/web", "src/auth", "src/auth/login.ts", "function", "login", "")
	b := EntityID("acme/web", "src/auth", "src/auth/login.ts", "function", "login", "")
	assert.Equal(t, a, b)
}

func TestEntityIDDiffersOnDisambiguator(t *testing.T) {
	a := EntityID("acme/web", "src/auth", "src/auth/login.ts", "method", "handle", "")
	b := EntityID("acme/web", "src/auth", "src/auth/login.ts", "method", "handle", "overload:2")
	assert.NotEqual(t, a, b)
}

func TestEntityIDFollowsContract(t *testing.T) {
	id := EntityID("acme/web", "src/auth", "src/auth/login.ts", "function", "login", "")
	parts := len(filepathSplit(id))
	assert.Equal(t, 5, parts, "entity_id must have repo:package_path:file_path:kind:hash")
}

func filepathSplit(id string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			parts = append(parts, id[start:i])
			start = i + 1
		}
	}
	parts = append(parts, id[start:])
	return parts
}

func TestEffectIDDistinguishesLocations(t *testing.T) {
	a := EffectID("acme/web:src:src/a.ts:function:abcd1234", "FunctionCall", 10, 2)
	b := EffectID("acme/web:src:src/a.ts:function:abcd1234", "FunctionCall", 20, 2)
	assert.NotEqual(t, a, b)
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const x = 1;\n"), 0o644))

	h1, err := FileHash(path)
	require.NoError(t, err)
	require.NotEmpty(t, h1)

	h2, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(path, []byte("export const x = 2;\n"), 0o644))
	h3, err := FileHash(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestFileHashMissingFile(t *testing.T) {
	_, err := FileHash(filepath.Join(t.TempDir(), "missing.ts"))
	assert.Error(t, err)
}

func TestManifestHashOrderIndependent(t *testing.T) {
	a := ManifestHash(map[string]string{"a.ts": "h1", "b.ts": "h2"})
	b := ManifestHash(map[string]string{"b.ts": "h2", "a.ts": "h1"})
	assert.Equal(t, a, b)
}

func TestManifestHashChangesWithContent(t *testing.T) {
	a := ManifestHash(map[string]string{"a.ts": "h1"})
	b := ManifestHash(map[string]string{"a.ts": "h2"})
	assert.NotEqual(t, a, b)
}
