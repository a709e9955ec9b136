package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
)

func TestWriteReadRowsRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodes.parquet")

	rows := []NodeRow{
		{EntityID: "a#1", Name: "Foo", QualifiedName: "pkg.Foo", Kind: "function", FilePath: "a.ts", StartLine: 1, EndLine: 4, Exported: true},
		{EntityID: "a#2", Name: "Bar", QualifiedName: "pkg.Bar", Kind: "class", FilePath: "a.ts", StartLine: 6, EndLine: 20},
	}

	require.NoError(t, WriteRows(path, rows))

	got, err := ReadRows[NodeRow](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, rows[0].EntityID, got[0].EntityID)
	require.Equal(t, rows[1].Name, got[1].Name)
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows[NodeRow](filepath.Join(t.TempDir(), "missing.parquet"))
	require.Error(t, err)
}

func TestNodeRowFromModel(t *testing.T) {
	now := time.Unix(1700000000, 0)
	n := model.Node{
		EntityID: "repo:pkg:file.ts:function:abcd1234",
		Name:     "handler", QualName: "pkg.handler", Kind: model.KindFunction,
		Location:  model.Location{FilePath: "file.ts", StartLine: 10, EndLine: 20},
		Exported:  true,
		UpdatedAt: now,
	}

	row := NodeRowFromModel(n)
	require.Equal(t, n.EntityID, row.EntityID)
	require.Equal(t, "function", row.Kind)
	require.Equal(t, int32(10), row.StartLine)
	require.Equal(t, now.Unix(), row.UpdatedAtUnix)
}

func TestExternalRefRowFromModelNilTarget(t *testing.T) {
	r := model.ExternalRef{
		SourceEntityID: "a", ModuleSpecifier: "./b", ImportedSymbol: "Thing",
	}
	row := ExternalRefRowFromModel(r)
	require.Equal(t, "", row.TargetEntityID)

	target := "b#Thing"
	r.TargetEntityID = &target
	row = ExternalRefRowFromModel(r)
	require.Equal(t, target, row.TargetEntityID)
}
