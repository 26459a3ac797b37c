package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"lintel/internal/tree"
)

var statementTypes = map[string]bool{
	"block":                            true,
	"expression_statement":             true,
	"local_variable_declaration":       true,
	"if_statement":                     true,
	"while_statement":                  true,
	"do_statement":                     true,
	"for_statement":                    true,
	"enhanced_for_statement":           true,
	"switch_statement":                 true,
	"try_statement":                    true,
	"try_with_resources_statement":     true,
	"return_statement":                 true,
	"throw_statement":                  true,
	"break_statement":                  true,
	"continue_statement":               true,
	"yield_statement":                  true,
	"labeled_statement":                true,
	"synchronized_statement":           true,
	"assert_statement":                 true,
	"explicit_constructor_invocation":  true,
	"local_class_declaration":          true,
}

func isStatement(n *sitter.Node) bool {
	return statementTypes[n.Type()] || isTypeDecl(n)
}

func (c *converter) block(n *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	for _, s := range named(n) {
		kids = append(kids, c.stmts(s)...)
	}
	return c.push(tree.Node{Kind: tree.KindBlock, Span: c.span(n), Children: kids})
}

// stmts converts one statement of a statement list; declarations may
// expand to several nodes.
func (c *converter) stmts(n *sitter.Node) []tree.NodeID {
	switch {
	case n.Type() == "local_variable_declaration":
		return c.variables(n, tree.KindLocalVar)
	case isTypeDecl(n):
		return []tree.NodeID{c.class(n)}
	}
	return ids(c.stmt(n))
}

// stmt converts a statement in a position that holds exactly one.
func (c *converter) stmt(n *sitter.Node) tree.NodeID {
	if n == nil {
		return tree.NoNodeID
	}
	if !n.IsNamed() {
		// `;` на месте тела
		return c.push(tree.Node{Kind: tree.KindOtherStmt, Span: c.span(n)})
	}
	switch n.Type() {
	case "block", "constructor_body":
		return c.block(n)
	case "local_variable_declaration":
		vars := c.variables(n, tree.KindLocalVar)
		if len(vars) == 1 {
			return vars[0]
		}
		return c.push(tree.Node{Kind: tree.KindOtherStmt, Span: c.span(n), Children: vars})
	case "expression_statement":
		inner := firstNamed(n)
		if inner != nil && inner.Type() == "switch_expression" {
			return c.switchNode(inner, true)
		}
		x := c.expr(inner)
		return c.push(tree.Node{Kind: tree.KindExprStmt, Span: c.span(n), X: x, Children: ids(x)})
	case "if_statement":
		cond := c.expr(n.ChildByFieldName("condition"))
		then := c.stmt(n.ChildByFieldName("consequence"))
		els := c.stmt(n.ChildByFieldName("alternative"))
		return c.push(tree.Node{Kind: tree.KindIf, Span: c.span(n),
			Cond: cond, Body: then, Else: els, Children: ids(cond, then, els)})
	case "while_statement":
		cond := c.expr(n.ChildByFieldName("condition"))
		body := c.stmt(n.ChildByFieldName("body"))
		return c.push(tree.Node{Kind: tree.KindWhile, Span: c.span(n),
			Cond: cond, Body: body, Children: ids(cond, body)})
	case "do_statement":
		body := c.stmt(n.ChildByFieldName("body"))
		cond := c.expr(n.ChildByFieldName("condition"))
		return c.push(tree.Node{Kind: tree.KindDoWhile, Span: c.span(n),
			Cond: cond, Body: body, Children: ids(body, cond)})
	case "for_statement":
		return c.forStmt(n)
	case "enhanced_for_statement":
		return c.forEach(n)
	case "switch_statement", "switch_expression":
		return c.switchNode(n, true)
	case "try_statement", "try_with_resources_statement":
		return c.try(n)
	case "return_statement":
		return c.jump(n, tree.KindReturn)
	case "throw_statement":
		return c.jump(n, tree.KindThrow)
	case "break_statement":
		return c.push(tree.Node{Kind: tree.KindBreak, Span: c.span(n), Text: c.text(firstNamed(n))})
	case "continue_statement":
		return c.push(tree.Node{Kind: tree.KindContinue, Span: c.span(n), Text: c.text(firstNamed(n))})
	case "labeled_statement":
		var kids []tree.NodeID
		label := ""
		for _, k := range named(n) {
			if k.Type() == "identifier" && label == "" {
				label = c.text(k)
				continue
			}
			kids = append(kids, c.stmts(k)...)
		}
		return c.push(tree.Node{Kind: tree.KindOtherStmt, Span: c.span(n), Text: label, Children: kids})
	case "explicit_constructor_invocation":
		call := c.ctorCall(n)
		return c.push(tree.Node{Kind: tree.KindExprStmt, Span: c.span(n), X: call, Children: ids(call)})
	}
	if isTypeDecl(n) {
		return c.class(n)
	}
	return c.otherStmt(n)
}

// otherStmt keeps unknown statements (yield, assert, synchronized, ...)
// with their children converted.
func (c *converter) otherStmt(n *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	for _, k := range named(n) {
		if isStatement(k) {
			kids = append(kids, c.stmts(k)...)
		} else {
			kids = append(kids, ids(c.expr(k))...)
		}
	}
	return c.push(tree.Node{Kind: tree.KindOtherStmt, Span: c.span(n), Text: n.Type(), Children: kids})
}

func (c *converter) jump(n *sitter.Node, kind tree.Kind) tree.NodeID {
	x := c.expr(firstNamed(n))
	return c.push(tree.Node{Kind: kind, Span: c.span(n), X: x, Children: ids(x)})
}

// forStmt lays children out as init..., cond, update..., body.
func (c *converter) forStmt(n *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	for _, init := range fieldAll(n, "init") {
		if init.Type() == "local_variable_declaration" {
			kids = append(kids, c.variables(init, tree.KindLocalVar)...)
			continue
		}
		x := c.expr(init)
		kids = append(kids, c.push(tree.Node{Kind: tree.KindExprStmt, Span: c.span(init), X: x, Children: ids(x)}))
	}
	cond := c.expr(n.ChildByFieldName("condition"))
	kids = append(kids, ids(cond)...)
	for _, upd := range fieldAll(n, "update") {
		kids = append(kids, ids(c.expr(upd))...)
	}
	body := c.stmt(n.ChildByFieldName("body"))
	kids = append(kids, ids(body)...)
	return c.push(tree.Node{Kind: tree.KindFor, Span: c.span(n), Cond: cond, Body: body, Children: kids})
}

func (c *converter) forEach(n *sitter.Node) tree.NodeID {
	typ := n.ChildByFieldName("type")
	name := n.ChildByFieldName("name")
	mods := childOfType(n, "modifiers")
	start := typ
	if mods != nil {
		start = mods
	}
	v := tree.Node{Kind: tree.KindLocalVar, Span: c.b.Span(start.StartByte(), name.EndByte()),
		Text: c.text(name), Type: c.text(typ)}
	if mods != nil {
		v.Children = []tree.NodeID{c.modifiers(mods)}
	}
	loopVar := c.push(v)
	iter := c.expr(n.ChildByFieldName("value"))
	body := c.stmt(n.ChildByFieldName("body"))
	return c.push(tree.Node{Kind: tree.KindForEach, Span: c.span(n),
		X: iter, Body: body, Children: ids(loopVar, iter, body)})
}

// switchNode handles both forms; asStmt is false for switches in
// expression position.
func (c *converter) switchNode(n *sitter.Node, asStmt bool) tree.NodeID {
	node := tree.Node{Kind: tree.KindSwitch, Span: c.span(n)}
	if !asStmt {
		node.Flags |= tree.FlagSwitchExpr
	}
	node.Cond = c.expr(n.ChildByFieldName("condition"))
	kids := ids(node.Cond)
	for _, g := range named(n.ChildByFieldName("body")) {
		switch g.Type() {
		case "switch_block_statement_group":
			kids = append(kids, c.caseGroup(g)...)
		case "switch_rule":
			node.Flags |= tree.FlagArrow
			kids = append(kids, c.caseRule(g))
		}
	}
	node.Children = kids
	return c.push(node)
}

// caseGroup splits `case 1: case 2: stmts` into one SwitchCase per label;
// only the last one carries the statements.
func (c *converter) caseGroup(g *sitter.Node) []tree.NodeID {
	var labels, body []*sitter.Node
	for _, k := range named(g) {
		if k.Type() == "switch_label" {
			labels = append(labels, k)
		} else {
			body = append(body, k)
		}
	}
	out := make([]tree.NodeID, 0, len(labels))
	for i, l := range labels {
		node := c.caseLabel(l)
		node.Span = c.span(l)
		if i == len(labels)-1 {
			node.Span = c.b.Span(l.StartByte(), g.EndByte())
			for _, s := range body {
				node.Children = append(node.Children, c.stmts(s)...)
			}
		}
		out = append(out, c.push(node))
	}
	return out
}

func (c *converter) caseRule(r *sitter.Node) tree.NodeID {
	var node tree.Node
	var body []tree.NodeID
	for _, k := range named(r) {
		if k.Type() == "switch_label" {
			node = c.caseLabel(k)
			continue
		}
		body = append(body, c.stmts(k)...)
	}
	node.Kind = tree.KindSwitchCase
	node.Span = c.span(r)
	node.Flags |= tree.FlagArrow
	node.Children = append(node.Children, body...)
	return c.push(node)
}

// caseLabel converts the label; with `case A, B` only A becomes X.
func (c *converter) caseLabel(l *sitter.Node) tree.Node {
	node := tree.Node{Kind: tree.KindSwitchCase}
	for i := 0; i < int(l.ChildCount()); i++ {
		if l.Child(i).Type() == "default" {
			node.Flags |= tree.FlagDefault
		}
	}
	if first := firstNamed(l); first != nil {
		node.X = c.expr(first)
		node.Children = ids(node.X)
	}
	return node
}

func (c *converter) try(n *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindTry, Span: c.span(n)}
	var kids []tree.NodeID
	for _, r := range named(n.ChildByFieldName("resources")) {
		kids = append(kids, c.resource(r))
	}
	node.Body = c.block(n.ChildByFieldName("body"))
	kids = append(kids, node.Body)
	for _, k := range named(n) {
		switch k.Type() {
		case "catch_clause":
			kids = append(kids, c.catch(k))
		case "finally_clause":
			body := c.block(childOfType(k, "block"))
			kids = append(kids, c.push(tree.Node{Kind: tree.KindFinally, Span: c.span(k),
				Body: body, Children: []tree.NodeID{body}}))
		}
	}
	node.Children = kids
	return c.push(node)
}

func (c *converter) resource(r *sitter.Node) tree.NodeID {
	typ := r.ChildByFieldName("type")
	if typ == nil {
		id := c.expr(firstNamed(r))
		if n := c.b.Node(id); n != nil {
			n.Flags |= tree.FlagResource
		}
		return id
	}
	node := tree.Node{Kind: tree.KindLocalVar, Span: c.span(r), Flags: tree.FlagResource,
		Text: c.text(r.ChildByFieldName("name")), Type: c.text(typ)}
	if mods := childOfType(r, "modifiers"); mods != nil {
		node.Children = append(node.Children, c.modifiers(mods))
	}
	if v := r.ChildByFieldName("value"); v != nil {
		node.X = c.expr(v)
		node.Children = append(node.Children, node.X)
	}
	return c.push(node)
}

func (c *converter) catch(n *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindCatch, Span: c.span(n)}
	var kids []tree.NodeID
	if p := childOfType(n, "catch_formal_parameter"); p != nil {
		param := tree.Node{Kind: tree.KindParam, Span: c.span(p),
			Text: c.text(p.ChildByFieldName("name")), Type: c.text(childOfType(p, "catch_type"))}
		if mods := childOfType(p, "modifiers"); mods != nil {
			param.Children = []tree.NodeID{c.modifiers(mods)}
		}
		node.Text = param.Type
		kids = append(kids, c.push(param))
	}
	node.Body = c.block(n.ChildByFieldName("body"))
	node.Children = append(kids, node.Body)
	return c.push(node)
}
