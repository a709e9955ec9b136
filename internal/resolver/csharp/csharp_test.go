package csharp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
)

func TestNewResolverName(t *testing.T) {
	r := New()
	require.Equal(t, "csharp", r.Name())
	require.True(t, r.Available())
}

func TestResolveRefNamespaceUsingNeverResolvesAsRelative(t *testing.T) {
	r := New()
	ref := model.ExternalRef{ModuleSpecifier: "System.Collections.Generic", Location: model.Location{FilePath: "Widget.cs"}}
	require.Nil(t, r.ResolveRef(ref, nil, "pkg"))
}

func TestResolveCallsPrefersLocalBindingAndSkipsBuiltins(t *testing.T) {
	r := New()

	builtinEdges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "Console", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "Widget.cs"}},
	}
	results := r.ResolveCalls(builtinEdges, map[string][]model.Node{})
	require.Len(t, results, 1)
	require.Nil(t, results[0].Result)

	localEdges := []model.Edge{
		{SourceEntityID: "a#1", TargetEntityID: model.UnresolvedPrefix + "Render", EdgeType: model.EdgeCalls,
			Location: model.Location{FilePath: "Widget.cs"}},
	}
	nodesByFile := map[string][]model.Node{
		"Widget.cs": {{EntityID: "a#2", Name: "Render"}},
	}
	results = r.ResolveCalls(localEdges, nodesByFile)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Result)
	require.Equal(t, "a#2", results[0].Result.TargetEntityID)
}
