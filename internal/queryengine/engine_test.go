package queryengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/seed"
)

func writeOneNode(t *testing.T, dir, entityID string) {
	t.Helper()
	w := seed.NewWriter(seed.WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(&parser.ParseResult{
		FilePath: "a.ts",
		Nodes: []model.Node{
			{EntityID: entityID, Name: "handler", QualName: "pkg.handler", Kind: model.KindFunction,
				Location: model.Location{FilePath: "a.ts", StartLine: 1, EndLine: 3}, Exported: true},
		},
		SourceFileHash: "h",
	}))
	require.NoError(t, w.Flush())
}

func TestCheckReadinessNoPackages(t *testing.T) {
	r := CheckReadiness(nil, "")
	require.False(t, r.Ready)
}

func TestCheckReadinessAllMissing(t *testing.T) {
	r := CheckReadiness([]string{t.TempDir()}, "")
	require.False(t, r.Ready)
	require.Equal(t, 1, r.MissingCount)
}

func TestCheckReadinessAvailable(t *testing.T) {
	dir := t.TempDir()
	writeOneNode(t, dir, "e1")

	r := CheckReadiness([]string{dir}, "")
	require.True(t, r.Ready)
	require.Equal(t, 1, r.AvailableCount)
}

func TestSetupViewsAndExecute(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeOneNode(t, dirA, "a#1")
	writeOneNode(t, dirB, "b#1")

	e, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	defer e.Close()

	created, err := e.SetupViews([]string{dirA, dirB}, "")
	require.NoError(t, err)
	require.ElementsMatch(t, ViewNames, created)

	count, err := e.ExecuteCount(context.Background(), "SELECT COUNT(*) FROM {nodes}")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestSetupViewsSkipsMissingPackage(t *testing.T) {
	dirA := t.TempDir()
	writeOneNode(t, dirA, "a#1")
	dirEmpty := t.TempDir()

	e, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.SetupViews([]string{dirA, dirEmpty}, "")
	require.NoError(t, err)

	count, err := e.ExecuteCount(context.Background(), "SELECT COUNT(*) FROM nodes")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSetupViewsAllMissingIsFatal(t *testing.T) {
	e, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.SetupViews([]string{t.TempDir()}, "")
	require.Error(t, err)
}

func TestExpandPlaceholders(t *testing.T) {
	got := ExpandPlaceholders("SELECT * FROM {nodes} JOIN {edges} ON 1=1")
	require.Equal(t, "SELECT * FROM nodes JOIN edges ON 1=1", got)
}
