// Package treesitter implements the TypeScript/JavaScript and Python parser
// variants (§4.2) on top of the official tree-sitter Go bindings: a
// per-language wrapper around a compiled grammar and an AST-walk-by-node-
// kind extraction strategy that emits model.Node/Edge/ExternalRef/Effect
// records keyed by ident.EntityID.
package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/devac/devac/internal/ident"
	"github.com/devac/devac/internal/model"
)

// getNodeText extracts text from a node using its byte offsets into code.
func getNodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint(len(code))
	}
	if int(start) > len(code) {
		return ""
	}
	return string(code[start:end])
}

// findParentClassName traverses up to find the containing class name, used
// to build a qualified "Class.method" disambiguator.
func findParentClassName(node *sitter.Node, code []byte, classKinds ...string) string {
	current := node.Parent()
	for current != nil {
		for _, k := range classKinds {
			if current.Kind() == k {
				if nameNode := current.ChildByFieldName("name"); nameNode != nil {
					return getNodeText(nameNode, code)
				}
			}
		}
		current = current.Parent()
	}
	return ""
}

func loc(node *sitter.Node, filePath string) model.Location {
	return model.Location{
		FilePath:  filePath,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		StartCol:  int(node.StartPosition().Column),
		EndCol:    int(node.EndPosition().Column),
	}
}

// extractCtx threads the per-file identity parameters through the recursive
// AST walk so every extractor function can mint entity_ids consistently.
type extractCtx struct {
	repo        string
	packagePath string
	filePath    string // repo-relative, forward-slashed
	branch      string
	fileHash    string
	language    string

	nodes        []model.Node
	edges        []model.Edge
	externalRefs []model.ExternalRef
	effects      []model.Effect

	// importAliases maps a local binding name to the module specifier it
	// came from, so call expressions can be tagged is_external/external_module.
	importAliases map[string]string
}

func newExtractCtx(repo, packagePath, filePath, branch, fileHash, language string) *extractCtx {
	return &extractCtx{
		repo: repo, packagePath: packagePath, filePath: filePath,
		branch: branch, fileHash: fileHash, language: language,
		importAliases: make(map[string]string),
	}
}

func (c *extractCtx) entityID(kind, qualifiedName, disambiguator string) string {
	return ident.EntityID(c.repo, c.packagePath, c.filePath, kind, qualifiedName, disambiguator)
}

func (c *extractCtx) addNode(n model.Node) string {
	n.Branch = c.branch
	n.SourceFileHash = c.fileHash
	c.nodes = append(c.nodes, n)
	return n.EntityID
}

func (c *extractCtx) addCallEffectAndEdge(sourceEntityID, calleeName string, node *sitter.Node, isAsync bool) {
	external, module := c.classifyCallee(calleeName)
	eid := ident.EffectID(sourceEntityID, string(model.EffectFunctionCall), int(node.StartPosition().Row)+1, int(node.StartPosition().Column))
	c.effects = append(c.effects, model.Effect{
		EffectID:       eid,
		SourceEntityID: sourceEntityID,
		EffectType:     model.EffectFunctionCall,
		Location:       loc(node, c.filePath),
		CalleeName:     calleeName,
		IsExternal:     external,
		IsAsync:        isAsync,
		ExternalModule: module,
		Branch:         c.branch,
	})
	c.edges = append(c.edges, model.Edge{
		SourceEntityID: sourceEntityID,
		TargetEntityID: model.UnresolvedPrefix + calleeName,
		EdgeType:       model.EdgeCalls,
		Location:       loc(node, c.filePath),
		Branch:         c.branch,
	})
}

// classifyCallee reports whether calleeName's root identifier (before any
// "." member access) resolves to a known import binding, per §4.2's
// "tagging FunctionCall effects with is_external/is_async/external_module
// inferred from import bindings".
func (c *extractCtx) classifyCallee(calleeName string) (external bool, module string) {
	root := calleeName
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root = root[:i]
	}
	if mod, ok := c.importAliases[root]; ok {
		return true, mod
	}
	return false, ""
}

func (c *extractCtx) addImportEdgeAndRef(sourceEntityID, modulePath, importedSymbol string, isDefault, isType, isNamespace bool, node *sitter.Node) {
	c.externalRefs = append(c.externalRefs, model.ExternalRef{
		SourceEntityID:  sourceEntityID,
		ModuleSpecifier: modulePath,
		ImportedSymbol:  importedSymbol,
		IsTypeOnly:      isType,
		IsDefault:       isDefault,
		IsNamespace:     isNamespace,
		Location:        loc(node, c.filePath),
		Branch:          c.branch,
	})
	c.edges = append(c.edges, model.Edge{
		SourceEntityID: sourceEntityID,
		TargetEntityID: model.UnresolvedPrefix + modulePath + ":" + importedSymbol,
		EdgeType:       model.EdgeImports,
		Location:       loc(node, c.filePath),
		Branch:         c.branch,
	})
}

func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
