package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/devac/devac/internal/model"
)

// walkPython extracts nodes/edges/external_refs/effects from a Python AST
// by dispatching on function_definition/class_definition/import_statement/
// call node kinds.
func walkPython(c *extractCtx, root *sitter.Node, code []byte) {
	c.addNode(model.Node{
		EntityID: c.entityID(string(model.KindModule), c.filePath, ""),
		Name:     c.filePath,
		QualName: c.filePath,
		Kind:     model.KindModule,
		Location: model.Location{FilePath: c.filePath},
	})

	var classStack []string

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_definition":
			extractPyFunction(c, node, code, currentClass(classStack))

		case "class_definition":
			name := extractPyClass(c, node, code)
			classStack = append(classStack, name)
			for i := uint(0); i < node.ChildCount(); i++ {
				walk(node.Child(i))
			}
			classStack = classStack[:len(classStack)-1]
			return

		case "import_statement", "import_from_statement":
			extractPyImport(c, node, code)

		case "call":
			extractPyCall(c, node, code)
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
}

func extractPyFunction(c *extractCtx, node *sitter.Node, code []byte, enclosingClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	funcName := getNodeText(nameNode, code)
	qualified := funcName
	kind := model.KindFunction
	if enclosingClass != "" {
		qualified = enclosingClass + "." + funcName
		kind = model.KindMethod
	}

	entityID := c.entityID(string(kind), qualified, "")
	c.addNode(model.Node{
		EntityID:      entityID,
		Name:          funcName,
		QualName:      qualified,
		Kind:          kind,
		Location:      loc(node, c.filePath),
		Async:         hasChildOfKind(node, "async", code, "async") || pyIsAsync(node, code),
		TypeSignature: signatureOf(node, code),
		Doc:           pyDocstring(node, code),
		Decorators:    pyDecorators(node, code),
	})
}

func pyIsAsync(node *sitter.Node, code []byte) bool {
	parent := node.Parent()
	return parent != nil && getNodeText(parent.Child(0), code) == "async"
}

func pyDocstring(node *sitter.Node, code []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Kind() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Kind() != "string" {
		return ""
	}
	return trimQuotes(getNodeText(str, code))
}

func pyDecorators(node *sitter.Node, code []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var decorators []string
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child.Kind() == "decorator" {
			decorators = append(decorators, getNodeText(child, code))
		}
	}
	return decorators
}

func extractPyClass(c *extractCtx, node *sitter.Node, code []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := getNodeText(nameNode, code)
	entityID := c.entityID(string(model.KindClass), name, "")
	classID := c.addNode(model.Node{
		EntityID: entityID,
		Name:     name,
		QualName: name,
		Kind:     model.KindClass,
		Location: loc(node, c.filePath),
	})

	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		for i := uint(0); i < bases.ChildCount(); i++ {
			child := bases.Child(i)
			if child.Kind() == "identifier" {
				baseName := getNodeText(child, code)
				c.edges = append(c.edges, model.Edge{
					SourceEntityID: classID,
					TargetEntityID: model.UnresolvedPrefix + baseName,
					EdgeType:       model.EdgeExtends,
					Location:       loc(child, c.filePath),
					Branch:         c.branch,
				})
			}
		}
	}
	return name
}

func extractPyImport(c *extractCtx, node *sitter.Node, code []byte) {
	moduleEntity := c.entityID(string(model.KindModule), c.filePath, "")

	if node.Kind() == "import_statement" {
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			modulePath := getNodeText(nameNode, code)
			c.importAliases[firstSegment(modulePath)] = modulePath
			c.addImportEdgeAndRef(moduleEntity, modulePath, "", false, false, true, node)
		}
		return
	}

	// import_from_statement
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	modulePath := getNodeText(moduleNode, code)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "dotted_name" && child != moduleNode || child.Kind() == "aliased_import" {
			name := getNodeText(child, code)
			c.importAliases[name] = modulePath
			c.addImportEdgeAndRef(moduleEntity, modulePath, name, false, false, false, node)
		}
		if child.Kind() == "wildcard_import" {
			c.addImportEdgeAndRef(moduleEntity, modulePath, "*", false, false, true, node)
		}
	}
}

func firstSegment(dotted string) string {
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

func extractPyCall(c *extractCtx, node *sitter.Node, code []byte) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	calleeName := getNodeText(fnNode, code)
	if calleeName == "" || pyIsBuiltin(calleeName) {
		return
	}
	source := enclosingPyCallable(node, code, c)
	c.addCallEffectAndEdge(source, calleeName, node, false)
}

func enclosingPyCallable(node *sitter.Node, code []byte, c *extractCtx) string {
	current := node.Parent()
	for current != nil {
		if current.Kind() == "function_definition" {
			if n := current.ChildByFieldName("name"); n != nil {
				name := getNodeText(n, code)
				cls := findParentClassName(current, code, "class_definition")
				kind := model.KindFunction
				qual := name
				if cls != "" {
					qual = cls + "." + name
					kind = model.KindMethod
				}
				return c.entityID(string(kind), qual, "")
			}
		}
		current = current.Parent()
	}
	return c.entityID(string(model.KindModule), c.filePath, "")
}

var pyBuiltins = map[string]bool{
	"print": true, "len": true, "range": true, "isinstance": true, "super": true,
	"str": true, "int": true, "float": true, "list": true, "dict": true, "set": true,
	"tuple": true, "open": true, "repr": true, "enumerate": true, "zip": true, "map": true, "filter": true,
}

func pyIsBuiltin(calleeName string) bool {
	return pyBuiltins[firstSegment(calleeName)]
}
