package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
)

func nodeParseResult(entityID, filePath string) *parser.ParseResult {
	return &parser.ParseResult{
		FilePath: filePath,
		Language: "typescript",
		Nodes: []model.Node{
			{EntityID: entityID, Name: "handler", QualName: "pkg.handler", Kind: model.KindFunction,
				Location: model.Location{FilePath: filePath, StartLine: 1, EndLine: 5}, Exported: true},
		},
		SourceFileHash: "hash-" + entityID,
	}
}

func TestWriterFlushWritesTables(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})

	require.NoError(t, w.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, w.Flush())

	nodesPath := filepath.Join(dir, ".devac", "seed", "base", tableNodes)
	_, err := os.Stat(nodesPath)
	require.NoError(t, err)

	reader := NewReader(dir, "")
	nodes, err := reader.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "e1", nodes[0].EntityID)
}

func TestWriterFlushUpsertsByPrimaryKey(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})

	require.NoError(t, w.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, w.Flush())

	// Re-emit the same entity with a changed name: should overwrite, not duplicate.
	updated := nodeParseResult("e1", "a.ts")
	updated.Nodes[0].Name = "renamedHandler"
	require.NoError(t, w.AddParseResult(updated))
	require.NoError(t, w.Flush())

	reader := NewReader(dir, "")
	nodes, err := reader.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "renamedHandler", nodes[0].Name)
}

func TestWriterFlushNoopOnEmptyBuffer(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.Flush())

	_, err := os.Stat(filepath.Join(dir, ".devac", "seed", "base"))
	require.True(t, os.IsNotExist(err), "flush with nothing buffered should not create the seed dir")
}

func TestWriterAutoFlushesAtThreshold(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test", FlushThreshold: 1})

	require.NoError(t, w.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.Equal(t, 0, w.bufferedCount(), "buffer should have been flushed automatically")
}

func TestWriterBranchOverlaysBase(t *testing.T) {
	dir := t.TempDir()

	base := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, base.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, base.Flush())

	branch := NewWriter(WriterConfig{PackageDir: dir, Branch: "feature-x", WriterID: "test"})
	require.NoError(t, branch.AddParseResult(nodeParseResult("e2", "b.ts")))
	require.NoError(t, branch.Flush())

	reader := NewReader(dir, "feature-x")
	nodes, err := reader.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestWriterBranchTombstoneHidesBaseNode(t *testing.T) {
	dir := t.TempDir()

	base := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, base.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, base.Flush())

	branch := NewWriter(WriterConfig{PackageDir: dir, Branch: "feature-x", WriterID: "test"})
	deleted := nodeParseResult("e1", "a.ts")
	deleted.Nodes[0].IsDeleted = true
	require.NoError(t, branch.AddParseResult(deleted))
	require.NoError(t, branch.Flush())

	reader := NewReader(dir, "feature-x")
	nodes, err := reader.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 0)
}
