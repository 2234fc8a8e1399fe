// Package syntax answers enclosing-block queries from a tree-sitter parse of
// the document. It is the precise counterpart of the line-based resolver and
// falls back to it whenever parsing is not possible.
package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"logsmith/internal/brackets"
	"logsmith/internal/enclosing"
)

// Resolver implements enclosing.Resolver on top of tree-sitter.
type Resolver struct {
	// Path selects the grammar by extension.
	Path string
	// Fallback answers when the path is unsupported or parsing fails.
	// Defaults to enclosing.LineResolver.
	Fallback enclosing.Resolver
}

// NewResolver creates a resolver for the file at path.
func NewResolver(path string) *Resolver {
	return &Resolver{Path: path, Fallback: enclosing.LineResolver{}}
}

// EnclosingName returns the name of the innermost class or function node
// around line.
func (r *Resolver) EnclosingName(doc brackets.Lines, line int, kind enclosing.Kind) string {
	code := []byte(joinLines(doc))
	tree, err := r.parse(code)
	if err != nil {
		return r.fallback().EnclosingName(doc, line, kind)
	}
	defer tree.Close()

	text := doc.Line(line)
	col := len(text) - len(strings.TrimLeft(text, " \t"))
	path := ancestors(tree.RootNode(), sitter.Point{Row: uint32(line), Column: uint32(col)})
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		start, end := int(node.StartPoint().Row), int(node.EndPoint().Row)
		switch kind {
		case enclosing.Class:
			if !classNodes[node.Type()] || !(start < line && line < end) {
				continue
			}
		default:
			if !functionNodes[node.Type()] || !(start <= line && line < end) {
				continue
			}
		}
		if name := nodeName(node, code); name != "" {
			return name
		}
	}
	return ""
}

func (r *Resolver) fallback() enclosing.Resolver {
	if r.Fallback == nil {
		return enclosing.LineResolver{}
	}
	return r.Fallback
}

func (r *Resolver) parse(code []byte) (*sitter.Tree, error) {
	lang := grammar(DetectLanguage(r.Path))
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, r.Path)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.Path, err)
	}
	return tree, nil
}

var classNodes = map[string]bool{
	"class_declaration":          true,
	"abstract_class_declaration": true,
	"class":                      true,
}

var functionNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"method_definition":              true,
	"function":                       true,
	"function_expression":            true,
	"generator_function":             true,
	"arrow_function":                 true,
}

// ancestors returns the chain of named nodes from root down to the deepest
// node containing p. Siblings sharing p's row are told apart by column.
func ancestors(root *sitter.Node, p sitter.Point) []*sitter.Node {
	path := []*sitter.Node{root}
	node := root
	for {
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if !pointBefore(p, child.StartPoint()) && pointBefore(p, child.EndPoint()) {
				next = child
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		node = next
	}
}

func pointBefore(a, b sitter.Point) bool {
	return a.Row < b.Row || (a.Row == b.Row && a.Column < b.Column)
}

// nodeName reads the declared name of a class or function node. Anonymous
// function values take the name they are bound to.
func nodeName(node *sitter.Node, code []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(code)
	}
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator", "public_field_definition", "field_definition":
		if name := parent.ChildByFieldName("name"); name != nil {
			return name.Content(code)
		}
		if prop := parent.ChildByFieldName("property"); prop != nil {
			return prop.Content(code)
		}
	case "assignment_expression":
		left := parent.ChildByFieldName("left")
		if left == nil {
			return ""
		}
		if prop := left.ChildByFieldName("property"); prop != nil {
			return prop.Content(code)
		}
		return left.Content(code)
	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil {
			return strings.Trim(key.Content(code), `"'`)
		}
	}
	return ""
}

func joinLines(doc brackets.Lines) string {
	var b strings.Builder
	for i := 0; i < doc.LineCount(); i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(doc.Line(i))
	}
	return b.String()
}
