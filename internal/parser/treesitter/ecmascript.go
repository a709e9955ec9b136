package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/devac/devac/internal/model"
)

// walkECMAScript extracts nodes/edges/external_refs/effects from a
// JavaScript or TypeScript AST. TypeScript-only constructs (interfaces,
// type aliases, explicit type annotations) are only inspected when
// isTypeScript is set; the walk itself is shared since the two grammars
// overlap on every node kind a JS file can contain (§4.2 treats TS/JS as one
// parser variant).
func walkECMAScript(c *extractCtx, root *sitter.Node, code []byte, isTypeScript bool) {
	fileEntityID := c.addNode(model.Node{
		EntityID: c.entityID(string(model.KindModule), c.filePath, ""),
		Name:     c.filePath,
		QualName: c.filePath,
		Kind:     model.KindModule,
		Location: model.Location{FilePath: c.filePath},
	})
	_ = fileEntityID

	var classStack []string

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_declaration", "function_signature":
			extractFunctionDecl(c, node, code, "")

		case "arrow_function", "function_expression":
			extractArrowFunction(c, node, code, currentClass(classStack))

		case "class_declaration", "abstract_class_declaration":
			name := extractClassDecl(c, node, code)
			classStack = append(classStack, name)
			for i := uint(0); i < node.ChildCount(); i++ {
				walk(node.Child(uint(i)))
			}
			classStack = classStack[:len(classStack)-1]
			return

		case "method_definition", "method_signature", "abstract_method_signature":
			extractMethodDef(c, node, code, currentClass(classStack))

		case "interface_declaration":
			if isTypeScript {
				extractInterfaceDecl(c, node, code)
			}

		case "type_alias_declaration":
			if isTypeScript {
				extractTypeAlias(c, node, code)
			}

		case "import_statement":
			extractImportStatement(c, node, code, isTypeScript)

		case "call_expression":
			extractCallExpression(c, node, code, currentClass(classStack))

		case "export_statement":
			for i := uint(0); i < node.ChildCount(); i++ {
				walk(node.Child(uint(i)))
			}
			return
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(uint(i)))
		}
	}

	walk(root)
}

func currentClass(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

func extractFunctionDecl(c *extractCtx, node *sitter.Node, code []byte, enclosingClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := getNodeText(nameNode, code)
	async := hasAsyncModifier(node, code)

	entityID := c.entityID(string(model.KindFunction), name, "")
	c.addNode(model.Node{
		EntityID:      entityID,
		Name:          name,
		QualName:      name,
		Kind:          model.KindFunction,
		Location:      loc(node, c.filePath),
		Exported:      isExported(node),
		Async:         async,
		TypeSignature: signatureOf(node, code),
	})
}

func extractArrowFunction(c *extractCtx, node *sitter.Node, code []byte, enclosingClass string) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	var name string
	switch parent.Kind() {
	case "variable_declarator":
		if n := parent.ChildByFieldName("name"); n != nil {
			name = getNodeText(n, code)
		}
	case "assignment_expression":
		if n := parent.ChildByFieldName("left"); n != nil {
			name = getNodeText(n, code)
		}
	}
	if name == "" {
		return // anonymous callback, not a named symbol worth a node
	}

	entityID := c.entityID(string(model.KindFunction), name, "")
	c.addNode(model.Node{
		EntityID:      entityID,
		Name:          name,
		QualName:      name,
		Kind:          model.KindFunction,
		Location:      loc(node, c.filePath),
		Exported:      isExported(parent),
		Async:         hasAsyncModifier(node, code),
		TypeSignature: signatureOf(node, code),
	})
}

func extractClassDecl(c *extractCtx, node *sitter.Node, code []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := getNodeText(nameNode, code)

	entityID := c.entityID(string(model.KindClass), name, "")
	c.addNode(model.Node{
		EntityID: entityID,
		Name:     name,
		QualName: name,
		Kind:     model.KindClass,
		Location: loc(node, c.filePath),
		Exported: isExported(node),
		Abstract: node.Kind() == "abstract_class_declaration",
	})
	return name
}

func extractMethodDef(c *extractCtx, node *sitter.Node, code []byte, enclosingClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	methodName := getNodeText(nameNode, code)
	qualified := methodName
	if enclosingClass != "" {
		qualified = enclosingClass + "." + methodName
	}

	entityID := c.entityID(string(model.KindMethod), qualified, "")
	c.addNode(model.Node{
		EntityID:      entityID,
		Name:          methodName,
		QualName:      qualified,
		Kind:          model.KindMethod,
		Location:      loc(node, c.filePath),
		Static:        hasStaticModifier(node, code),
		Async:         hasAsyncModifier(node, code),
		TypeSignature: signatureOf(node, code),
	})
}

func extractInterfaceDecl(c *extractCtx, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := getNodeText(nameNode, code)
	entityID := c.entityID(string(model.KindInterface), name, "")
	interfaceID := c.addNode(model.Node{
		EntityID: entityID,
		Name:     name,
		QualName: name,
		Kind:     model.KindInterface,
		Location: loc(node, c.filePath),
		Exported: isExported(node),
	})

	if heritage := node.ChildByFieldName("extends_clause"); heritage != nil {
		for i := uint(0); i < heritage.ChildCount(); i++ {
			child := heritage.Child(uint(i))
			if child.Kind() == "type_identifier" || child.Kind() == "identifier" {
				parentName := getNodeText(child, code)
				c.edges = append(c.edges, model.Edge{
					SourceEntityID: interfaceID,
					TargetEntityID: model.UnresolvedPrefix + parentName,
					EdgeType:       model.EdgeExtends,
					Location:       loc(child, c.filePath),
					Branch:         c.branch,
				})
			}
		}
	}
}

func extractTypeAlias(c *extractCtx, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := getNodeText(nameNode, code)
	entityID := c.entityID(string(model.KindTypeAlias), name, "")
	c.addNode(model.Node{
		EntityID: entityID,
		Name:     name,
		QualName: name,
		Kind:     model.KindTypeAlias,
		Location: loc(node, c.filePath),
		Exported: isExported(node),
	})
}

// extractImportStatement records both the bare module specifier (so the
// resolver can distinguish relative vs external per §4.5) and, where the
// grammar exposes them, individual named/default/namespace specifiers.
func extractImportStatement(c *extractCtx, node *sitter.Node, code []byte, isTypeScript bool) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	modulePath := trimQuotes(getNodeText(sourceNode, code))
	isTypeOnly := isTypeScript && hasChildOfKind(node, "import", code, "type")

	clause := findChildOfKind(node, "import_clause")
	if clause == nil {
		// Side-effect import: `import "module";` — still worth a ref so the
		// resolver/federation layer can see the dependency exists.
		c.externalRefs = append(c.externalRefs, model.ExternalRef{
			SourceEntityID:  c.entityID(string(model.KindModule), c.filePath, ""),
			ModuleSpecifier: modulePath,
			Location:        loc(node, c.filePath),
			Branch:          c.branch,
		})
		return
	}

	moduleEntity := c.entityID(string(model.KindModule), c.filePath, "")
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(uint(i))
		switch child.Kind() {
		case "identifier":
			// default import: `import Foo from "mod"`
			name := getNodeText(child, code)
			c.importAliases[name] = modulePath
			c.addImportEdgeAndRef(moduleEntity, modulePath, name, true, isTypeOnly, false, node)
		case "namespace_import":
			name := getNodeText(child, code)
			name = trimNamespacePrefix(name)
			c.importAliases[name] = modulePath
			c.addImportEdgeAndRef(moduleEntity, modulePath, name, false, isTypeOnly, true, node)
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(uint(j))
				if spec.Kind() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				imported := getNodeText(nameNode, code)
				local := imported
				if aliasNode != nil {
					local = getNodeText(aliasNode, code)
				}
				c.importAliases[local] = modulePath
				c.addImportEdgeAndRef(moduleEntity, modulePath, imported, false, isTypeOnly, false, node)
			}
		}
	}
}

func extractCallExpression(c *extractCtx, node *sitter.Node, code []byte, enclosingClass string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	calleeName := getNodeText(fnNode, code)
	if calleeName == "" || isBuiltinGlobal(calleeName) {
		return
	}

	// Attribute the call to the innermost enclosing function/method so the
	// effect's source_entity_id is meaningful; fall back to the file itself.
	source := enclosingCallable(node, code, c)
	async := false
	c.addCallEffectAndEdge(source, calleeName, node, async)
}

// enclosingCallable walks up from a call expression to the nearest
// function/method node and returns its entity_id, or the file's entity_id
// if the call sits at module scope.
func enclosingCallable(node *sitter.Node, code []byte, c *extractCtx) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "function_declaration":
			if n := current.ChildByFieldName("name"); n != nil {
				return c.entityID(string(model.KindFunction), getNodeText(n, code), "")
			}
		case "method_definition":
			if n := current.ChildByFieldName("name"); n != nil {
				methodName := getNodeText(n, code)
				cls := findParentClassName(current, code, "class_declaration", "abstract_class_declaration")
				qual := methodName
				if cls != "" {
					qual = cls + "." + methodName
				}
				return c.entityID(string(model.KindMethod), qual, "")
			}
		}
		current = current.Parent()
	}
	return c.entityID(string(model.KindModule), c.filePath, "")
}

var builtinGlobals = map[string]bool{
	"console": true, "require": true, "Promise": true, "Array": true,
	"Object": true, "JSON": true, "Map": true, "Set": true, "Math": true,
	"Symbol": true, "Reflect": true, "parseInt": true, "parseFloat": true,
}

func isBuiltinGlobal(calleeName string) bool {
	root := calleeName
	for i := 0; i < len(root); i++ {
		if root[i] == '.' {
			root = root[:i]
			break
		}
	}
	return builtinGlobals[root]
}

func isExported(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

func hasAsyncModifier(node *sitter.Node, code []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if getNodeText(node.Child(uint(i)), code) == "async" {
			return true
		}
	}
	return false
}

func hasStaticModifier(node *sitter.Node, code []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if getNodeText(node.Child(uint(i)), code) == "static" {
			return true
		}
	}
	return false
}

func hasChildOfKind(node *sitter.Node, kind string, code []byte, text string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind && getNodeText(child, code) == text {
			return true
		}
	}
	return false
}

func findChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(uint(i)); child.Kind() == kind {
			return child
		}
	}
	return nil
}

func trimNamespacePrefix(s string) string {
	// namespace_import text looks like "* as name"; keep only the alias.
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return s[i+1:]
		}
	}
	return s
}

func signatureOf(node *sitter.Node, code []byte) string {
	params := node.ChildByFieldName("parameters")
	ret := node.ChildByFieldName("return_type")
	sig := ""
	if params != nil {
		sig = getNodeText(params, code)
	}
	if ret != nil {
		sig += ": " + getNodeText(ret, code)
	}
	return sig
}
