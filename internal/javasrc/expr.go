package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"lintel/internal/tree"
)

var literalKinds = map[string]tree.LitKind{
	"true":                           tree.LitBool,
	"false":                          tree.LitBool,
	"null_literal":                   tree.LitNull,
	"string_literal":                 tree.LitString,
	"text_block":                     tree.LitString,
	"character_literal":              tree.LitChar,
	"decimal_integer_literal":        tree.LitNumber,
	"hex_integer_literal":            tree.LitNumber,
	"octal_integer_literal":          tree.LitNumber,
	"binary_integer_literal":         tree.LitNumber,
	"decimal_floating_point_literal": tree.LitNumber,
	"hex_floating_point_literal":     tree.LitNumber,
}

// expr converts an expression. Parentheses are dropped; unknown forms
// become OtherExpr with their children converted.
func (c *converter) expr(n *sitter.Node) tree.NodeID {
	if n == nil {
		return tree.NoNodeID
	}
	if lit, ok := literalKinds[n.Type()]; ok {
		return c.push(tree.Node{Kind: tree.KindLiteral, Span: c.span(n), Lit: lit, Text: c.text(n)})
	}
	switch n.Type() {
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil {
			return c.expr(inner)
		}
	case "identifier", "this", "super":
		return c.push(tree.Node{Kind: tree.KindIdent, Span: c.span(n), Text: c.text(n)})
	case "binary_expression":
		return c.binary(n, tree.KindBinary)
	case "assignment_expression":
		return c.binary(n, tree.KindAssign)
	case "unary_expression":
		x := c.expr(n.ChildByFieldName("operand"))
		return c.push(tree.Node{Kind: tree.KindUnary, Span: c.span(n),
			Op: tree.ParseOp(n.ChildByFieldName("operator").Type()), X: x, Children: ids(x)})
	case "update_expression":
		return c.update(n)
	case "ternary_expression":
		cond := c.expr(n.ChildByFieldName("condition"))
		a := c.expr(n.ChildByFieldName("consequence"))
		b := c.expr(n.ChildByFieldName("alternative"))
		return c.push(tree.Node{Kind: tree.KindTernary, Span: c.span(n),
			Cond: cond, Body: a, Else: b, Children: ids(cond, a, b)})
	case "method_invocation":
		recv := c.expr(n.ChildByFieldName("object"))
		args := c.args(n.ChildByFieldName("arguments"))
		return c.push(tree.Node{Kind: tree.KindCall, Span: c.span(n),
			Text: c.text(n.ChildByFieldName("name")), X: recv, Children: append(ids(recv), args...)})
	case "object_creation_expression":
		return c.newExpr(n)
	case "instanceof_expression":
		x := c.expr(n.ChildByFieldName("left"))
		typ := n.ChildByFieldName("right")
		if typ == nil {
			typ = firstNamed(n.ChildByFieldName("pattern"))
		}
		return c.push(tree.Node{Kind: tree.KindInstanceOf, Span: c.span(n),
			Type: c.text(typ), X: x, Children: ids(x)})
	case "cast_expression":
		x := c.expr(n.ChildByFieldName("value"))
		return c.push(tree.Node{Kind: tree.KindCast, Span: c.span(n),
			Type: c.text(n.ChildByFieldName("type")), X: x, Children: ids(x)})
	case "field_access":
		x := c.expr(n.ChildByFieldName("object"))
		return c.push(tree.Node{Kind: tree.KindFieldAccess, Span: c.span(n),
			Text: c.text(n.ChildByFieldName("field")), X: x, Children: ids(x)})
	case "lambda_expression":
		return c.lambda(n)
	case "switch_expression":
		return c.switchNode(n, false)
	}
	return c.otherExpr(n)
}

func (c *converter) otherExpr(n *sitter.Node) tree.NodeID {
	kids := named(n)
	node := tree.Node{Kind: tree.KindOtherExpr, Span: c.span(n)}
	if len(kids) == 0 {
		node.Text = c.text(n)
	}
	for _, k := range kids {
		switch {
		case k.Type() == "class_body":
			node.Children = append(node.Children, c.anonymousClass(k))
		case isStatement(k):
			node.Children = append(node.Children, c.stmts(k)...)
		default:
			node.Children = append(node.Children, ids(c.expr(k))...)
		}
	}
	return c.push(node)
}

func (c *converter) binary(n *sitter.Node, kind tree.Kind) tree.NodeID {
	x := c.expr(n.ChildByFieldName("left"))
	y := c.expr(n.ChildByFieldName("right"))
	return c.push(tree.Node{Kind: kind, Span: c.span(n),
		Op: tree.ParseOp(n.ChildByFieldName("operator").Type()), X: x, Y: y, Children: ids(x, y)})
}

// update handles ++/--; the operand position tells prefix from postfix.
func (c *converter) update(n *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindUnary, Span: c.span(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		k := n.Child(i)
		if k.IsNamed() {
			node.X = c.expr(k)
			continue
		}
		node.Op = tree.ParseOp(k.Type())
		if i > 0 {
			node.Flags |= tree.FlagPostfix
		}
	}
	node.Children = ids(node.X)
	return c.push(node)
}

func (c *converter) args(list *sitter.Node) []tree.NodeID {
	var out []tree.NodeID
	for _, a := range named(list) {
		out = append(out, ids(c.expr(a))...)
	}
	return out
}

func (c *converter) newExpr(n *sitter.Node) tree.NodeID {
	kids := c.args(n.ChildByFieldName("arguments"))
	if body := childOfType(n, "class_body"); body != nil {
		kids = append(kids, c.anonymousClass(body))
	}
	return c.push(tree.Node{Kind: tree.KindNew, Span: c.span(n),
		Type: c.text(n.ChildByFieldName("type")), Children: kids})
}

func (c *converter) anonymousClass(body *sitter.Node) tree.NodeID {
	return c.push(tree.Node{Kind: tree.KindClass, Span: c.span(body), Children: c.members(body)})
}

// ctorCall turns this(...) / super(...) into a Call named after the keyword.
func (c *converter) ctorCall(n *sitter.Node) tree.NodeID {
	recv := c.expr(n.ChildByFieldName("object"))
	args := c.args(n.ChildByFieldName("arguments"))
	return c.push(tree.Node{Kind: tree.KindCall, Span: c.span(n),
		Text: c.text(n.ChildByFieldName("constructor")), X: recv, Children: append(ids(recv), args...)})
}

func (c *converter) lambda(n *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	switch p := n.ChildByFieldName("parameters"); {
	case p == nil:
	case p.Type() == "identifier":
		kids = append(kids, c.push(tree.Node{Kind: tree.KindParam, Span: c.span(p), Text: c.text(p)}))
	default:
		kids = append(kids, c.params(p)...)
	}
	var body tree.NodeID
	if b := n.ChildByFieldName("body"); b != nil && b.Type() == "block" {
		body = c.block(b)
	} else {
		body = c.expr(b)
	}
	kids = append(kids, ids(body)...)
	return c.push(tree.Node{Kind: tree.KindLambda, Span: c.span(n), Body: body, Children: kids})
}
