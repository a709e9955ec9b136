package treesitter

import (
	"fmt"
	"os"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/devac/devac/internal/ident"
	devacparser "github.com/devac/devac/internal/parser"
)

// languageParser wraps a compiled tree-sitter grammar and the parser
// instance built against it; Close releases the underlying CGO memory.
type languageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	lang     string
}

func newLanguageParser(lang string) (*languageParser, error) {
	p := sitter.NewParser()
	if p == nil {
		return nil, fmt.Errorf("treesitter: failed to create parser")
	}

	var language *sitter.Language
	switch lang {
	case "javascript", "jsx":
		language = sitter.NewLanguage(tree_sitter_javascript.Language())
	case "typescript":
		language = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case "tsx":
		language = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case "python":
		language = sitter.NewLanguage(tree_sitter_python.Language())
	default:
		p.Close()
		return nil, fmt.Errorf("treesitter: unsupported language %q", lang)
	}

	if err := p.SetLanguage(language); err != nil {
		p.Close()
		return nil, fmt.Errorf("treesitter: set language %s: %w", lang, err)
	}
	return &languageParser{parser: p, language: language, lang: lang}, nil
}

func (lp *languageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// ECMAScriptParser implements devacparser.Parser for JavaScript/TypeScript
// source files (including JSX/TSX). One instance handles all four
// extensions since the grammars only differ in which constructs they
// additionally accept.
type ECMAScriptParser struct {
	lang string // "javascript", "typescript", "tsx", or "jsx"
}

// NewECMAScriptParser returns a Parser bound to a single grammar variant.
func NewECMAScriptParser(lang string) *ECMAScriptParser {
	return &ECMAScriptParser{lang: lang}
}

func (p *ECMAScriptParser) Language() string { return p.lang }

func (p *ECMAScriptParser) Parse(filePath string, cfg devacparser.Config) (*devacparser.ParseResult, error) {
	start := time.Now()

	maxBytes := cfg.MaxFileBytes
	if maxBytes == 0 {
		maxBytes = devacparser.DefaultMaxFileBytes
	}
	if info, err := os.Stat(filePath); err == nil && info.Size() > maxBytes {
		return &devacparser.ParseResult{FilePath: filePath, Language: p.lang, Warning: "file exceeds max_file_bytes", ParseTime: time.Since(start)}, nil
	}

	code, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("treesitter: read %s: %w", filePath, err)
	}

	lp, err := newLanguageParser(p.lang)
	if err != nil {
		return &devacparser.ParseResult{FilePath: filePath, Language: p.lang, Warning: err.Error(), ParseTime: time.Since(start)}, nil
	}
	defer lp.Close()

	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return &devacparser.ParseResult{FilePath: filePath, Language: p.lang, Warning: "parse failed", ParseTime: time.Since(start)}, nil
	}
	defer tree.Close()

	relPath := ident.NormalizePath(filePath, cfg.PackagePath)
	fileHash, err := ident.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("treesitter: hash %s: %w", filePath, err)
	}

	c := newExtractCtx(cfg.RepoName, cfg.PackagePath, relPath, cfg.Branch, fileHash, p.lang)
	walkECMAScript(c, tree.RootNode(), code, p.lang == "typescript" || p.lang == "tsx")

	return &devacparser.ParseResult{
		FilePath:       filePath,
		Language:       p.lang,
		Nodes:          c.nodes,
		Edges:          c.edges,
		ExternalRefs:   c.externalRefs,
		Effects:        c.effects,
		SourceFileHash: fileHash,
		ParseTime:      time.Since(start),
	}, nil
}

// PythonParser implements devacparser.Parser for Python source files.
type PythonParser struct{}

// NewPythonParser returns a Parser for Python.
func NewPythonParser() *PythonParser { return &PythonParser{} }

func (p *PythonParser) Language() string { return "python" }

func (p *PythonParser) Parse(filePath string, cfg devacparser.Config) (*devacparser.ParseResult, error) {
	start := time.Now()

	maxBytes := cfg.MaxFileBytes
	if maxBytes == 0 {
		maxBytes = devacparser.DefaultMaxFileBytes
	}
	if info, err := os.Stat(filePath); err == nil && info.Size() > maxBytes {
		return &devacparser.ParseResult{FilePath: filePath, Language: "python", Warning: "file exceeds max_file_bytes", ParseTime: time.Since(start)}, nil
	}

	code, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("treesitter: read %s: %w", filePath, err)
	}

	lp, err := newLanguageParser("python")
	if err != nil {
		return &devacparser.ParseResult{FilePath: filePath, Language: "python", Warning: err.Error(), ParseTime: time.Since(start)}, nil
	}
	defer lp.Close()

	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return &devacparser.ParseResult{FilePath: filePath, Language: "python", Warning: "parse failed", ParseTime: time.Since(start)}, nil
	}
	defer tree.Close()

	relPath := ident.NormalizePath(filePath, cfg.PackagePath)
	fileHash, err := ident.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("treesitter: hash %s: %w", filePath, err)
	}

	c := newExtractCtx(cfg.RepoName, cfg.PackagePath, relPath, cfg.Branch, fileHash, "python")
	walkPython(c, tree.RootNode(), code)

	return &devacparser.ParseResult{
		FilePath:       filePath,
		Language:       "python",
		Nodes:          c.nodes,
		Edges:          c.edges,
		ExternalRefs:   c.externalRefs,
		Effects:        c.effects,
		SourceFileHash: fileHash,
		ParseTime:      time.Since(start),
	}, nil
}
