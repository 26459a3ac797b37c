package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"lintel/internal/source"
	"lintel/internal/tree"
)

// converter lowers a tree-sitter CST into the tree arena. Children are
// always converted before their parent is pushed, and nothing is pushed that
// does not end up attached: Finish rejects unreachable nodes.
type converter struct {
	src  []byte
	file *source.File
	b    *tree.Builder
}

func newConverter(file *source.File) *converter {
	return &converter{src: file.Content, file: file, b: tree.NewBuilder(file)}
}

func (c *converter) span(n *sitter.Node) source.Span {
	return c.b.Span(n.StartByte(), n.EndByte())
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

func (c *converter) push(n tree.Node) tree.NodeID {
	return c.b.Push(n)
}

// collectComments records every comment of the file, wherever the grammar
// attached it.
func (c *converter) collectComments(n *sitter.Node) {
	if isComment(n) {
		c.b.AddComment(c.span(n), c.text(n))
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			c.collectComments(child)
		}
	}
}

func (c *converter) unit(root *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	for _, n := range named(root) {
		if isTypeDecl(n) {
			kids = append(kids, c.class(n))
		}
	}
	return c.push(tree.Node{Kind: tree.KindUnit, Span: c.file.Span(), Children: kids})
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

func isTypeDecl(n *sitter.Node) bool {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

// named returns the named children of n without comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := n.NamedChild(i); child != nil && !isComment(child) {
			out = append(out, child)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// fieldAll returns every child stored under field; ChildByFieldName only
// yields the first.
func fieldAll(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, k := range named(n) {
		if k.Type() == typ {
			return k
		}
	}
	return nil
}

// ids drops invalid entries.
func ids(xs ...tree.NodeID) []tree.NodeID {
	out := make([]tree.NodeID, 0, len(xs))
	for _, x := range xs {
		if x.IsValid() {
			out = append(out, x)
		}
	}
	return out
}
