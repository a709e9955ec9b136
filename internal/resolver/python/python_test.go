package python

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/seed"
)

func TestNewResolverName(t *testing.T) {
	r := New()
	require.Equal(t, "python", r.Name())
	require.True(t, r.Available())
}

func TestResolveRefAcrossPackageInit(t *testing.T) {
	dir := t.TempDir()
	w := seed.NewWriter(seed.WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(&parser.ParseResult{
		FilePath: "utils/__init__.py",
		Nodes:    []model.Node{{EntityID: "u#1", Name: "format_date", Location: model.Location{FilePath: "utils/__init__.py"}, Exported: true}},
	}))
	require.NoError(t, w.Flush())
	reader := seed.NewReader(dir, "")

	r := New()
	idx, err := r.BuildExportIndex("pkg", reader)
	require.NoError(t, err)

	ref := model.ExternalRef{
		SourceEntityID: "main.py", ModuleSpecifier: "./utils", ImportedSymbol: "format_date",
		Location: model.Location{FilePath: "main.py"},
	}
	res := r.ResolveRef(ref, idx, "pkg")
	require.NotNil(t, res)
	require.Equal(t, "u#1", res.TargetEntityID)
}

func TestResolveCallsSkipsBuiltin(t *testing.T) {
	r := New()
	edges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "isinstance", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "a.py"}},
	}
	results := r.ResolveCalls(edges, map[string][]model.Node{})
	require.Len(t, results, 1)
	require.Nil(t, results[0].Result)
}
