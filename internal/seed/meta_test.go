package seed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadMetaFreshDirectory(t *testing.T) {
	dir := t.TempDir()

	m, err := readMeta(dir, "writer-1")
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, m.SchemaVersion)
	require.Equal(t, "writer-1", m.Writer)
	require.NotNil(t, m.FileHashes)
}

func TestWriteMetaThenReadMetaRoundtrips(t *testing.T) {
	dir := t.TempDir()

	m, err := readMeta(dir, "writer-1")
	require.NoError(t, err)
	m.FileHashes["a.ts"] = "deadbeef"

	require.NoError(t, writeMeta(dir, m))

	reloaded, err := readMeta(dir, "writer-1")
	require.NoError(t, err)
	require.Equal(t, "deadbeef", reloaded.FileHashes["a.ts"])
	require.False(t, reloaded.LastWrittenAt.IsZero())
}
