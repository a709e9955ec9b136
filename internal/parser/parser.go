// Package parser defines the shared contract implemented by each language
// variant (§4.2): a Config describing where a file sits in its repo/branch,
// a ParseResult carrying the raw extraction output, and the Parser
// capability interface the orchestrator drives without knowing which
// language it's talking to. The tree-sitter-backed variants live in the
// treesitter subpackage; the C# variant lives in csharp.
package parser

import (
	"time"

	"github.com/devac/devac/internal/model"
)

// Config carries the per-file parse parameters (§4.2).
type Config struct {
	RepoName            string
	PackagePath         string
	Branch              string
	RecognizeTestFiles  bool
	MaxFileBytes        int64
}

// DefaultMaxFileBytes caps how large a source file a parser will read before
// refusing it as unparseable, keeping one oversized generated file from
// stalling a package's worker pool.
const DefaultMaxFileBytes = 5 * 1024 * 1024

// ParseResult is one file's extraction output. Warning is set (with Nodes
// etc. left empty) when the file could not be parsed but the orchestrator
// should continue with the rest of the package. IO failures are not carried
// in Err: Parse returns them as its error, and the orchestrator records them
// per file in PackageResult.Errors. The parsers in this module leave Err
// unset.
type ParseResult struct {
	FilePath       string
	Language       string
	Nodes          []model.Node
	Edges          []model.Edge
	ExternalRefs   []model.ExternalRef
	Effects        []model.Effect
	SourceFileHash string
	ParseTime      time.Duration
	Warning        string
	Err            error
}

// Parser is the capability every language variant implements so the
// orchestrator can drive them uniformly (§4.2: "parsers are interchangeable
// through a common capability set").
type Parser interface {
	// Language returns the identifier this parser handles, e.g. "typescript".
	Language() string
	// Parse extracts a ParseResult for one file. It never returns a non-nil
	// error for a merely-unparseable file; IO failures (such as a missing
	// file) are returned as the error.
	Parse(filePath string, cfg Config) (*ParseResult, error)
}
