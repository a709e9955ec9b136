package treesitter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
	devacparser "github.com/devac/devac/internal/parser"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestECMAScriptParserExtractsTypeScriptSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.ts", `
import { formatDate } from "./utils";
import lodash from "lodash";

export function render(): string {
	return formatDate(lodash.now());
}

export class Widget {
	async load(): void {
		render();
	}
}
`)

	p := NewECMAScriptParser("typescript")
	assert.Equal(t, "typescript", p.Language())

	result, err := p.Parse(path, devacparser.Config{RepoName: "acme", PackagePath: "."})
	require.NoError(t, err)
	require.Empty(t, result.Warning)
	require.NotEmpty(t, result.SourceFileHash)

	var names []string
	for _, n := range result.Nodes {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "render")
	assert.Contains(t, names, "Widget")

	var moduleSpecs []string
	for _, r := range result.ExternalRefs {
		moduleSpecs = append(moduleSpecs, r.ModuleSpecifier)
	}
	assert.Contains(t, moduleSpecs, "./utils")
	assert.Contains(t, moduleSpecs, "lodash")

	var calleeNames []string
	for _, e := range result.Effects {
		calleeNames = append(calleeNames, e.CalleeName)
	}
	assert.Contains(t, calleeNames, "formatDate")
}

func TestECMAScriptParserSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "big.ts", "export const x = 1;\n")

	p := NewECMAScriptParser("typescript")
	result, err := p.Parse(path, devacparser.Config{RepoName: "acme", PackagePath: ".", MaxFileBytes: 1})
	require.NoError(t, err)
	assert.Equal(t, "file exceeds max_file_bytes", result.Warning)
	assert.Empty(t, result.Nodes)
}

func TestECMAScriptParserMissingFileIsError(t *testing.T) {
	p := NewECMAScriptParser("typescript")
	_, err := p.Parse(filepath.Join(t.TempDir(), "missing.ts"), devacparser.Config{})
	assert.Error(t, err)
}

func TestPythonParserExtractsSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "service.py", `
import json
from .utils import format_date

class Service:
	async def load(self):
		return format_date(json.dumps({}))

def helper():
	pass
`)

	p := NewPythonParser()
	assert.Equal(t, "python", p.Language())

	result, err := p.Parse(path, devacparser.Config{RepoName: "acme", PackagePath: "."})
	require.NoError(t, err)
	require.Empty(t, result.Warning)

	var kinds = map[string]model.Kind{}
	for _, n := range result.Nodes {
		kinds[n.Name] = n.Kind
	}
	assert.Equal(t, model.KindClass, kinds["Service"])
	assert.Equal(t, model.KindFunction, kinds["helper"])

	var moduleSpecs []string
	for _, r := range result.ExternalRefs {
		moduleSpecs = append(moduleSpecs, r.ModuleSpecifier)
	}
	assert.Contains(t, moduleSpecs, ".utils")
}
