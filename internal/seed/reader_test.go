package seed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderHasSeedFalseWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	r := NewReader(dir, "")
	require.False(t, r.HasSeed())
}

func TestReaderHasSeedTrueAfterFlush(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, w.Flush())

	r := NewReader(dir, "")
	require.True(t, r.HasSeed())
}

func TestReaderEdgesEmptyWhenNoBase(t *testing.T) {
	dir := t.TempDir()
	r := NewReader(dir, "")
	edges, err := r.Edges()
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestReaderBranchDirTreatsBaseAliasAsBase(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(nodeParseResult("e1", "a.ts")))
	require.NoError(t, w.Flush())

	r := NewReader(dir, "base")
	nodes, err := r.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
