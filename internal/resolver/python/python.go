// Package python implements the Python Semantic Resolver variant (§4.5):
// module resolution via __init__.py/submodule lookups, and the builtin
// names that never correspond to a real CALLS target.
package python

import "github.com/devac/devac/internal/resolver"

var builtins = map[string]bool{
	"print": true, "len": true, "range": true, "str": true, "int": true,
	"float": true, "list": true, "dict": true, "set": true, "tuple": true,
	"isinstance": true, "super": true, "open": true, "enumerate": true, "zip": true,
}

// Resolver is the Python LanguageResolver.
type Resolver struct {
	*resolver.Base
}

// New returns a Python resolver.
func New() *Resolver {
	return &Resolver{Base: resolver.NewBase(resolver.Config{
		Language:   "python",
		Extensions: []string{".py"},
		IndexFiles: []string{"__init__.py"},
		Builtins:   builtins,
	})}
}
