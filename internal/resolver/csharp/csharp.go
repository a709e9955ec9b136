// Package csharp implements the C# Semantic Resolver variant (§4.5) via
// namespace-qualified file lookups rather than extension-based resolution.
package csharp

import "github.com/devac/devac/internal/resolver"

var builtins = map[string]bool{
	"Console": true, "String": true, "Convert": true, "Math": true,
	"List": true, "Dictionary": true, "Task": true, "Enumerable": true,
}

// Resolver is the C# LanguageResolver.
type Resolver struct {
	*resolver.Base
}

// New returns a C# resolver. C# namespace lookups don't use the
// relative-specifier/extension resolution the TS and Python variants need
// (using directives name namespaces, not file paths), so Extensions and
// IndexFiles stay empty — ResolveRef's relative-path branch simply never
// matches for this language's ExternalRef.ModuleSpecifier shape, and
// resolve_calls/resolve_extends (same-file bindings only) still apply
// unchanged.
func New() *Resolver {
	return &Resolver{Base: resolver.NewBase(resolver.Config{
		Language: "csharp",
		Builtins: builtins,
	})}
}
