// Package model defines the core code-graph entities shared by the parser,
// seed storage, resolver, rules, and federation packages (§3): plain
// structs with JSON tags for the storage boundary, split into Node, Edge,
// ExternalRef, and Effect per the entity/relationship/side-effect
// distinction the rest of devac is built around.
package model

import "time"

// Kind enumerates the entity kinds a parser can emit.
type Kind string

const (
	KindModule    Kind = "module"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindTypeAlias Kind = "type_alias"
	KindConstant  Kind = "constant"
	KindProperty  Kind = "property"
	KindParameter Kind = "parameter"
)

// Visibility enumerates symbol visibility.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// Location is a source position shared by every record kind.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// Node is one source-defined symbol.
type Node struct {
	EntityID   string `json:"entity_id"`
	Name       string `json:"name"`
	QualName   string `json:"qualified_name"`
	Kind       Kind   `json:"kind"`
	Location   Location

	Exported       bool       `json:"exported"`
	DefaultExport  bool       `json:"default_export"`
	Visibility     Visibility `json:"visibility"`
	Async          bool       `json:"async"`
	Generator      bool       `json:"generator"`
	Static         bool       `json:"static"`
	Abstract       bool       `json:"abstract"`
	TypeSignature  string     `json:"type_signature,omitempty"`
	Doc            string     `json:"doc,omitempty"`
	Decorators     []string   `json:"decorators,omitempty"`
	TypeParameters []string   `json:"type_parameters,omitempty"`

	SourceFileHash string    `json:"source_file_hash"`
	Branch         string    `json:"branch"`
	IsDeleted      bool      `json:"is_deleted"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PrimaryKey returns the node's upsert key (§4.3: nodes keyed by entity_id).
func (n *Node) PrimaryKey() string { return n.EntityID }

// EdgeType enumerates relationship kinds between entities.
type EdgeType string

const (
	EdgeCalls      EdgeType = "CALLS"
	EdgeImports    EdgeType = "IMPORTS"
	EdgeExtends    EdgeType = "EXTENDS"
	EdgeImplements EdgeType = "IMPLEMENTS"
	EdgeReferences EdgeType = "REFERENCES"
	EdgeDefines    EdgeType = "DEFINES"
)

// UnresolvedPrefix marks an edge target awaiting semantic resolution.
const UnresolvedPrefix = "unresolved:"

// Edge is a directed relationship between two entity_ids.
type Edge struct {
	SourceEntityID string         `json:"source_entity_id"`
	TargetEntityID string         `json:"target_entity_id"`
	EdgeType       EdgeType       `json:"edge_type"`
	Location       Location       `json:"location"`
	Properties     map[string]any `json:"properties,omitempty"`

	SourceFileHash string    `json:"source_file_hash"`
	Branch         string    `json:"branch"`
	IsDeleted      bool      `json:"is_deleted"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PrimaryKey returns the edge's upsert key: (source, target, type).
func (e *Edge) PrimaryKey() [3]string {
	return [3]string{e.SourceEntityID, e.TargetEntityID, string(e.EdgeType)}
}

// IsUnresolved reports whether the edge's target still awaits resolution.
func (e *Edge) IsUnresolved() bool {
	return len(e.TargetEntityID) >= len(UnresolvedPrefix) && e.TargetEntityID[:len(UnresolvedPrefix)] == UnresolvedPrefix
}

// UnresolvedSymbol extracts the bare symbol name from an unresolved target.
func (e *Edge) UnresolvedSymbol() string {
	if !e.IsUnresolved() {
		return ""
	}
	return e.TargetEntityID[len(UnresolvedPrefix):]
}

// ExternalRef is an import site awaiting cross-file binding.
type ExternalRef struct {
	SourceEntityID   string   `json:"source_entity_id"`
	ModuleSpecifier  string   `json:"module_specifier"`
	ImportedSymbol   string   `json:"imported_symbol"`
	IsTypeOnly       bool     `json:"is_type_only"`
	IsDefault        bool     `json:"is_default"`
	IsNamespace      bool     `json:"is_namespace"`
	Location         Location `json:"location"`
	IsResolved       bool     `json:"is_resolved"`
	TargetEntityID   *string  `json:"target_entity_id,omitempty"`

	Branch    string    `json:"branch"`
	IsDeleted bool      `json:"is_deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryKey returns the external ref's upsert key.
func (r *ExternalRef) PrimaryKey() [3]string {
	return [3]string{r.SourceEntityID, r.ModuleSpecifier, r.ImportedSymbol}
}

// EffectType enumerates the raw side-effect kinds a parser can observe.
type EffectType string

const (
	EffectFunctionCall EffectType = "FunctionCall"
	EffectStore        EffectType = "Store"
	EffectRetrieve     EffectType = "Retrieve"
	EffectSend         EffectType = "Send"
)

// Effect is a side-effect observation with a type-dependent payload.
// The payload is modeled as a tagged variant (§9): only the fields relevant
// to EffectType are populated; the rest stay zero-valued. Serialization at
// the storage boundary flattens this into a JSON payload column.
type Effect struct {
	EffectID       string     `json:"effect_id"`
	SourceEntityID string     `json:"source_entity_id"`
	EffectType     EffectType `json:"effect_type"`
	Location       Location   `json:"location"`

	// FunctionCall payload.
	CalleeName      string `json:"callee_name,omitempty"`
	IsExternal      bool   `json:"is_external,omitempty"`
	IsAsync         bool   `json:"is_async,omitempty"`
	ExternalModule  string `json:"external_module,omitempty"`

	// Store/Retrieve payload.
	TargetResource string `json:"target_resource,omitempty"`
	Operation      string `json:"operation,omitempty"`

	// Send payload.
	Target        string `json:"target,omitempty"`
	IsThirdParty  bool   `json:"is_third_party,omitempty"`

	Branch    string    `json:"branch"`
	IsDeleted bool      `json:"is_deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RepoStatus enumerates a federation repo's lifecycle state.
type RepoStatus string

const (
	RepoActive  RepoStatus = "active"
	RepoStale   RepoStatus = "stale"
	RepoRemoved RepoStatus = "removed"
	RepoMissing RepoStatus = "missing"
)

// RepoRegistration is a hub-tracked repository.
type RepoRegistration struct {
	RepoID       string     `json:"repo_id"`
	LocalPath    string     `json:"local_path"`
	ManifestHash string     `json:"manifest_hash"`
	LastSynced   time.Time  `json:"last_synced"`
	Status       RepoStatus `json:"status"`
}

// CrossRepoEdge links two entities owned by different repos.
type CrossRepoEdge struct {
	SourceRepo     string         `json:"source_repo"`
	SourceEntityID string         `json:"source_entity_id"`
	TargetRepo     string         `json:"target_repo"`
	TargetEntityID string         `json:"target_entity_id"`
	EdgeType       EdgeType       `json:"edge_type"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// PrimaryKey returns the cross-repo edge's upsert key.
func (e *CrossRepoEdge) PrimaryKey() [3]string {
	return [3]string{e.SourceEntityID, e.TargetEntityID, string(e.EdgeType)}
}

// DiagnosticSource enumerates where a diagnostic originated.
type DiagnosticSource string

const (
	SourceTSC        DiagnosticSource = "tsc"
	SourceESLint     DiagnosticSource = "eslint"
	SourceBiome      DiagnosticSource = "biome"
	SourceTest       DiagnosticSource = "test"
	SourceCoverage   DiagnosticSource = "coverage"
	SourceCICheck    DiagnosticSource = "ci-check"
	SourceGitHubIssue DiagnosticSource = "github-issue"
	SourcePRReview   DiagnosticSource = "pr-review"
)

// Severity enumerates diagnostic severity, ordered critical-first for the
// hub's default sort (§4.7).
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
	SeverityNote       Severity = "note"
)

// severityRank gives severities their sort order, critical first.
var severityRank = map[Severity]int{
	SeverityCritical:   0,
	SeverityError:      1,
	SeverityWarning:    2,
	SeveritySuggestion: 3,
	SeverityNote:       4,
}

// SeverityRank returns the sort rank used for diagnostic ordering.
func SeverityRank(s Severity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// UnifiedDiagnostic is a validator-produced issue tracked by the hub.
type UnifiedDiagnostic struct {
	DiagnosticID string           `json:"diagnostic_id"`
	RepoID       string           `json:"repo_id"`
	Source       DiagnosticSource `json:"source"`
	File         string           `json:"file,omitempty"`
	Line         int              `json:"line,omitempty"`
	Column       int              `json:"column,omitempty"`
	Severity     Severity         `json:"severity"`
	Category     string           `json:"category,omitempty"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Code         string           `json:"code,omitempty"`
	Suggestion   string           `json:"suggestion,omitempty"`
	Resolved     bool             `json:"resolved"`
	Actionable   bool             `json:"actionable"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	// SourceRef carries a source-specific reference (PR number, issue
	// number, CI run ID) as an opaque string; interpretation is source-specific.
	SourceRef string `json:"source_ref,omitempty"`
}
