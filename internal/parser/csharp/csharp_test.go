package csharp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	devacparser "github.com/devac/devac/internal/parser"
)

func TestParserExtractsNamespaceClassAndMethod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Widget.cs")
	require.NoError(t, os.WriteFile(path, []byte(`
using System;

namespace Acme.Widgets
{
	public class Widget
	{
		public void Render()
		{
			Console.WriteLine("hi");
		}
	}
}
`), 0o644))

	p := New()
	assert.Equal(t, "csharp", p.Language())

	result, err := p.Parse(path, devacparser.Config{RepoName: "acme", PackagePath: "."})
	require.NoError(t, err)
	require.Empty(t, result.Warning)
	require.NotEmpty(t, result.SourceFileHash)

	var kinds = map[string]model.Kind{}
	for _, n := range result.Nodes {
		kinds[n.Name] = n.Kind
	}
	assert.Equal(t, model.KindClass, kinds["Widget"])
	assert.Equal(t, model.KindMethod, kinds["Render"])

	var namespaces []string
	for _, r := range result.ExternalRefs {
		namespaces = append(namespaces, r.ModuleSpecifier)
	}
	assert.Contains(t, namespaces, "System")

	var calleeNames []string
	for _, e := range result.Effects {
		calleeNames = append(calleeNames, e.CalleeName)
	}
	assert.Contains(t, calleeNames, "Console.WriteLine")
}

func TestParserSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Big.cs")
	require.NoError(t, os.WriteFile(path, []byte("class Big {}\n"), 0o644))

	p := New()
	result, err := p.Parse(path, devacparser.Config{RepoName: "acme", PackagePath: ".", MaxFileBytes: 1})
	require.NoError(t, err)
	assert.Equal(t, "file exceeds max_file_bytes", result.Warning)
}

func TestParserMissingFileIsError(t *testing.T) {
	p := New()
	_, err := p.Parse(filepath.Join(t.TempDir(), "missing.cs"), devacparser.Config{})
	assert.Error(t, err)
}
