// Package csharp implements the C# parser variant (§4.2) using
// smacker/go-tree-sitter, since no C# grammar exists in the
// tree-sitter/go-tree-sitter binding family the TypeScript/Python variants
// use. The AST-walk and node-kind dispatch produce the same
// model.Node/Edge/ExternalRef/Effect records the rest of devac shares.
package csharp

import (
	"context"
	"fmt"
	"os"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/devac/devac/internal/ident"
	"github.com/devac/devac/internal/model"
	devacparser "github.com/devac/devac/internal/parser"
)

// Parser implements devacparser.Parser for C# source files.
type Parser struct{}

// New returns a C# Parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return "csharp" }

func (p *Parser) Parse(filePath string, cfg devacparser.Config) (*devacparser.ParseResult, error) {
	start := time.Now()

	maxBytes := cfg.MaxFileBytes
	if maxBytes == 0 {
		maxBytes = devacparser.DefaultMaxFileBytes
	}
	if info, err := os.Stat(filePath); err == nil && info.Size() > maxBytes {
		return &devacparser.ParseResult{FilePath: filePath, Language: "csharp", Warning: "file exceeds max_file_bytes", ParseTime: time.Since(start)}, nil
	}

	code, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("csharp: read %s: %w", filePath, err)
	}

	sp := sitter.NewParser()
	sp.SetLanguage(csharp.GetLanguage())

	tree, err := sp.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return &devacparser.ParseResult{FilePath: filePath, Language: "csharp", Warning: fmt.Sprintf("parse failed: %v", err), ParseTime: time.Since(start)}, nil
	}
	defer tree.Close()

	relPath := ident.NormalizePath(filePath, cfg.PackagePath)
	fileHash, err := ident.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("csharp: hash %s: %w", filePath, err)
	}

	c := &ctx{
		repo: cfg.RepoName, packagePath: cfg.PackagePath, filePath: relPath,
		branch: cfg.Branch, fileHash: fileHash,
		importAliases: make(map[string]string),
	}
	c.addNode(model.Node{
		EntityID: c.entityID(string(model.KindModule), relPath, ""),
		Name:     relPath,
		QualName: relPath,
		Kind:     model.KindModule,
		Location: model.Location{FilePath: relPath},
	})
	walk(c, tree.RootNode(), code, "")

	return &devacparser.ParseResult{
		FilePath:       filePath,
		Language:       "csharp",
		Nodes:          c.nodes,
		Edges:          c.edges,
		ExternalRefs:   c.externalRefs,
		Effects:        c.effects,
		SourceFileHash: fileHash,
		ParseTime:      time.Since(start),
	}, nil
}

type ctx struct {
	repo, packagePath, filePath, branch, fileHash string

	nodes        []model.Node
	edges        []model.Edge
	externalRefs []model.ExternalRef
	effects      []model.Effect

	importAliases map[string]string
}

func (c *ctx) entityID(kind, qualifiedName, disambiguator string) string {
	return ident.EntityID(c.repo, c.packagePath, c.filePath, kind, qualifiedName, disambiguator)
}

func (c *ctx) addNode(n model.Node) string {
	n.Branch = c.branch
	n.SourceFileHash = c.fileHash
	c.nodes = append(c.nodes, n)
	return n.EntityID
}

func text(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	return string(code[node.StartByte():node.EndByte()])
}

func location(node *sitter.Node, filePath string) model.Location {
	start := node.StartPoint()
	end := node.EndPoint()
	return model.Location{
		FilePath:  filePath,
		StartLine: int(start.Row) + 1,
		EndLine:   int(end.Row) + 1,
		StartCol:  int(start.Column),
		EndCol:    int(end.Column),
	}
}

// walk extracts namespace/class/interface/method declarations, using
// clause, and invocation_expression (method-call) nodes. Nested `namespace`
// blocks are walked into, but namespace names do not become part of a
// qualified_name.
func walk(c *ctx, node *sitter.Node, code []byte, enclosingType string) {
	if node == nil {
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_declaration":
			walk(c, child, code, enclosingType)

		case "class_declaration", "interface_declaration", "struct_declaration":
			name := extractTypeDecl(c, child, code)
			walk(c, child, code, name)

		case "method_declaration", "constructor_declaration":
			extractMethod(c, child, code, enclosingType)
			// methods can't nest further declarations worth walking twice;
			// still descend for invocation_expression calls within the body.
			walk(c, child, code, enclosingType)

		case "using_directive":
			extractUsing(c, child, code)

		case "invocation_expression":
			extractInvocation(c, child, code, enclosingType)

		default:
			walk(c, child, code, enclosingType)
		}
	}
}

func extractTypeDecl(c *ctx, node *sitter.Node, code []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := text(nameNode, code)
	kind := model.KindClass
	switch node.Type() {
	case "interface_declaration":
		kind = model.KindInterface
	}

	entityID := c.entityID(string(kind), name, "")
	typeID := c.addNode(model.Node{
		EntityID: entityID,
		Name:     name,
		QualName: name,
		Kind:     kind,
		Location: location(node, c.filePath),
		Exported: isPublic(node, code),
	})

	if bases := node.ChildByFieldName("bases"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			b := bases.NamedChild(i)
			baseName := text(b, code)
			c.edges = append(c.edges, model.Edge{
				SourceEntityID: typeID,
				TargetEntityID: model.UnresolvedPrefix + baseName,
				EdgeType:       model.EdgeExtends,
				Location:       location(b, c.filePath),
				Branch:         c.branch,
			})
		}
	}
	return name
}

func extractMethod(c *ctx, node *sitter.Node, code []byte, enclosingType string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	methodName := text(nameNode, code)
	qualified := methodName
	if enclosingType != "" {
		qualified = enclosingType + "." + methodName
	}

	entityID := c.entityID(string(model.KindMethod), qualified, "")
	c.addNode(model.Node{
		EntityID: entityID,
		Name:     methodName,
		QualName: qualified,
		Kind:     model.KindMethod,
		Location: location(node, c.filePath),
		Exported: isPublic(node, code),
		Static:   hasModifier(node, code, "static"),
		Async:    hasModifier(node, code, "async"),
	})
}

func extractUsing(c *ctx, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	namespace := text(nameNode, code)
	moduleEntity := c.entityID(string(model.KindModule), c.filePath, "")
	c.importAliases[namespace] = namespace
	c.externalRefs = append(c.externalRefs, model.ExternalRef{
		SourceEntityID:  moduleEntity,
		ModuleSpecifier: namespace,
		IsNamespace:     true,
		Location:        location(node, c.filePath),
		Branch:          c.branch,
	})
	c.edges = append(c.edges, model.Edge{
		SourceEntityID: moduleEntity,
		TargetEntityID: model.UnresolvedPrefix + namespace,
		EdgeType:       model.EdgeImports,
		Location:       location(node, c.filePath),
		Branch:         c.branch,
	})
}

func extractInvocation(c *ctx, node *sitter.Node, code []byte, enclosingType string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	calleeName := text(fnNode, code)
	if calleeName == "" {
		return
	}

	source := c.entityID(string(model.KindModule), c.filePath, "")
	eid := ident.EffectID(source, string(model.EffectFunctionCall), int(node.StartPoint().Row)+1, int(node.StartPoint().Column))
	c.effects = append(c.effects, model.Effect{
		EffectID:       eid,
		SourceEntityID: source,
		EffectType:     model.EffectFunctionCall,
		Location:       location(node, c.filePath),
		CalleeName:     calleeName,
		Branch:         c.branch,
	})
	c.edges = append(c.edges, model.Edge{
		SourceEntityID: source,
		TargetEntityID: model.UnresolvedPrefix + calleeName,
		EdgeType:       model.EdgeCalls,
		Location:       location(node, c.filePath),
		Branch:         c.branch,
	})
}

func isPublic(node *sitter.Node, code []byte) bool {
	return hasModifier(node, code, "public")
}

func hasModifier(node *sitter.Node, code []byte, modifier string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifier" && text(child, code) == modifier {
			return true
		}
	}
	return false
}
