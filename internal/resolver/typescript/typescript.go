// Package typescript implements the TypeScript/JavaScript Semantic Resolver
// variant (§4.5), configuring the shared resolver.Base with TS/JS module
// resolution extensions and the console/global built-ins calls must skip.
package typescript

import "github.com/devac/devac/internal/resolver"

// builtinGlobals overlaps the set the parser's ecmascript extractor treats as
// non-call-edge-worthy but is not identical to it: it adds process, Error,
// setTimeout and setInterval, and leaves out Reflect, parseInt and parseFloat.
var builtinGlobals = map[string]bool{
	"console": true, "require": true, "process": true, "Promise": true,
	"Array": true, "Object": true, "JSON": true, "Math": true, "Error": true,
	"setTimeout": true, "setInterval": true, "Map": true, "Set": true, "Symbol": true,
}

// Resolver is the TypeScript/JavaScript LanguageResolver.
type Resolver struct {
	*resolver.Base
}

// New returns a TypeScript/JavaScript resolver.
func New() *Resolver {
	return &Resolver{Base: resolver.NewBase(resolver.Config{
		Language:   "typescript",
		Extensions: []string{".ts", ".tsx", ".js", ".jsx"},
		IndexFiles: []string{"index.ts", "index.tsx", "index.js", "index.jsx"},
		Builtins:   builtinGlobals,
	})}
}
