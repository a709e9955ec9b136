package typescript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/seed"
)

func TestNewResolverName(t *testing.T) {
	r := New()
	require.Equal(t, "typescript", r.Name())
	require.True(t, r.Available())
}

func TestResolveRefAcrossTsxExtension(t *testing.T) {
	dir := t.TempDir()
	w := seed.NewWriter(seed.WriterConfig{PackageDir: dir, WriterID: "test"})
	require.NoError(t, w.AddParseResult(&parser.ParseResult{
		FilePath: "Widget.tsx",
		Nodes:    []model.Node{{EntityID: "w#1", Name: "Widget", Location: model.Location{FilePath: "Widget.tsx"}, Exported: true, DefaultExport: true}},
	}))
	require.NoError(t, w.Flush())
	reader := seed.NewReader(dir, "")

	r := New()
	idx, err := r.BuildExportIndex("pkg", reader)
	require.NoError(t, err)

	ref := model.ExternalRef{
		SourceEntityID: "App.tsx", ModuleSpecifier: "./Widget", IsDefault: true,
		Location: model.Location{FilePath: "App.tsx"},
	}
	res := r.ResolveRef(ref, idx, "pkg")
	require.NotNil(t, res)
	require.Equal(t, "w#1", res.TargetEntityID)
}

func TestResolveCallsSkipsBuiltinGlobal(t *testing.T) {
	r := New()
	edges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "setTimeout", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "a.ts"}},
	}
	results := r.ResolveCalls(edges, map[string][]model.Node{})
	require.Len(t, results, 1)
	require.Nil(t, results[0].Result)
}
