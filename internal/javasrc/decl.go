package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"lintel/internal/tree"
)

// class converts any type declaration. Body members become direct children.
func (c *converter) class(n *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindClass, Span: c.span(n), Text: c.text(n.ChildByFieldName("name"))}
	switch n.Type() {
	case "interface_declaration", "annotation_type_declaration":
		node.Flags |= tree.FlagInterface
	case "enum_declaration":
		node.Flags |= tree.FlagEnum
	case "record_declaration":
		node.Flags |= tree.FlagRecord
	}
	var kids []tree.NodeID
	for _, k := range named(n) {
		switch k.Type() {
		case "modifiers":
			kids = append(kids, c.modifiers(k))
		case "superclass", "super_interfaces", "extends_interfaces":
			node.Supers = append(node.Supers, c.typeNames(k)...)
		case "permits":
			node.Permits = append(node.Permits, c.typeNames(k)...)
		case "formal_parameters":
			// компоненты записи
			for _, p := range named(k) {
				if p.Type() == "formal_parameter" {
					kids = append(kids, c.recordComponent(p))
				}
			}
		case "class_body", "interface_body", "enum_body", "annotation_type_body":
			kids = append(kids, c.members(k)...)
		}
	}
	node.Children = kids
	return c.push(node)
}

func (c *converter) typeNames(n *sitter.Node) []string {
	var out []string
	for _, k := range named(n) {
		if k.Type() == "type_list" {
			out = append(out, c.typeNames(k)...)
			continue
		}
		out = append(out, c.text(k))
	}
	return out
}

func (c *converter) members(body *sitter.Node) []tree.NodeID {
	var out []tree.NodeID
	for _, m := range named(body) {
		switch m.Type() {
		case "field_declaration", "constant_declaration":
			out = append(out, c.variables(m, tree.KindField)...)
		case "method_declaration", "annotation_type_element_declaration":
			out = append(out, c.method(m, false))
		case "constructor_declaration", "compact_constructor_declaration":
			out = append(out, c.method(m, true))
		case "static_initializer":
			if b := childOfType(m, "block"); b != nil {
				out = append(out, c.block(b))
			}
		case "block":
			out = append(out, c.block(m))
		case "enum_body_declarations":
			out = append(out, c.members(m)...)
		case "enum_constant":
			if cb := m.ChildByFieldName("body"); cb != nil {
				out = append(out, c.push(tree.Node{
					Kind:     tree.KindClass,
					Span:     c.span(m),
					Text:     c.text(m.ChildByFieldName("name")),
					Children: c.members(cb),
				}))
			}
		default:
			if isTypeDecl(m) {
				out = append(out, c.class(m))
			}
		}
	}
	return out
}

func (c *converter) method(n *sitter.Node, ctor bool) tree.NodeID {
	node := tree.Node{
		Kind: tree.KindMethod,
		Span: c.span(n),
		Text: c.text(n.ChildByFieldName("name")),
		Type: c.text(n.ChildByFieldName("type")),
	}
	if ctor {
		node.Flags |= tree.FlagConstructor
		node.Type = ""
	}
	var kids []tree.NodeID
	if mods := childOfType(n, "modifiers"); mods != nil {
		kids = append(kids, c.modifiers(mods))
	}
	kids = append(kids, c.params(n.ChildByFieldName("parameters"))...)
	if body := n.ChildByFieldName("body"); body != nil {
		node.Body = c.block(body)
		kids = append(kids, node.Body)
	}
	node.Children = kids
	return c.push(node)
}

func (c *converter) params(list *sitter.Node) []tree.NodeID {
	var out []tree.NodeID
	for _, p := range named(list) {
		switch p.Type() {
		case "formal_parameter", "spread_parameter":
			out = append(out, c.param(p))
		case "identifier":
			out = append(out, c.push(tree.Node{Kind: tree.KindParam, Span: c.span(p), Text: c.text(p)}))
		}
	}
	return out
}

func (c *converter) param(p *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindParam, Span: c.span(p)}
	var kids []tree.NodeID
	if p.Type() == "spread_parameter" {
		node.Flags |= tree.FlagVarArgs
		for _, k := range named(p) {
			switch k.Type() {
			case "modifiers":
				kids = append(kids, c.modifiers(k))
			case "variable_declarator":
				node.Text = c.text(k.ChildByFieldName("name"))
			default:
				if node.Type == "" {
					node.Type = c.text(k)
				}
			}
		}
		node.Type += "..."
	} else {
		node.Text = c.text(p.ChildByFieldName("name"))
		node.Type = c.text(p.ChildByFieldName("type"))
		if mods := childOfType(p, "modifiers"); mods != nil {
			kids = append(kids, c.modifiers(mods))
		}
	}
	node.Children = kids
	return c.push(node)
}

func (c *converter) recordComponent(p *sitter.Node) tree.NodeID {
	return c.push(tree.Node{
		Kind: tree.KindField,
		Span: c.span(p),
		Text: c.text(p.ChildByFieldName("name")),
		Type: c.text(p.ChildByFieldName("type")),
	})
}

// variables converts a field or local declaration. `int a = 1, b;` yields
// one node per declarator; the first one owns the modifiers.
func (c *converter) variables(n *sitter.Node, kind tree.Kind) []tree.NodeID {
	typ := c.text(n.ChildByFieldName("type"))
	decls := fieldAll(n, "declarator")
	out := make([]tree.NodeID, 0, len(decls))
	for i, d := range decls {
		node := tree.Node{Kind: kind, Text: c.text(d.ChildByFieldName("name")), Type: typ}
		if dims := d.ChildByFieldName("dimensions"); dims != nil {
			node.Type += c.text(dims)
		}
		var kids []tree.NodeID
		switch {
		case len(decls) == 1:
			node.Span = c.span(n)
		case i == 0:
			node.Span = c.b.Span(n.StartByte(), d.EndByte())
		default:
			node.Span = c.span(d)
		}
		if i == 0 {
			if mods := childOfType(n, "modifiers"); mods != nil {
				kids = append(kids, c.modifiers(mods))
			}
		}
		if v := d.ChildByFieldName("value"); v != nil {
			node.X = c.expr(v)
			kids = append(kids, node.X)
		}
		node.Children = kids
		out = append(out, c.push(node))
	}
	return out
}

func (c *converter) modifiers(n *sitter.Node) tree.NodeID {
	node := tree.Node{Kind: tree.KindModifiers, Span: c.span(n)}
	var kids []tree.NodeID
	for i := 0; i < int(n.ChildCount()); i++ {
		k := n.Child(i)
		switch k.Type() {
		case "annotation", "marker_annotation":
			kids = append(kids, c.annotation(k))
		default:
			if !k.IsNamed() || k.Type() == "non-sealed" {
				node.Mods |= tree.ParseModifier(k.Type())
			}
		}
	}
	node.Children = kids
	return c.push(node)
}

// annotation keeps the simple name and flattens argument values into children.
func (c *converter) annotation(n *sitter.Node) tree.NodeID {
	name := c.text(n.ChildByFieldName("name"))
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	node := tree.Node{Kind: tree.KindAnnotation, Span: c.span(n), Text: name}
	var kids []tree.NodeID
	for _, arg := range named(n.ChildByFieldName("arguments")) {
		if arg.Type() == "element_value_pair" {
			arg = arg.ChildByFieldName("value")
		}
		kids = append(kids, c.elementValue(arg)...)
	}
	node.Children = kids
	return c.push(node)
}

func (c *converter) elementValue(v *sitter.Node) []tree.NodeID {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case "element_value_array_initializer":
		var out []tree.NodeID
		for _, e := range named(v) {
			out = append(out, c.elementValue(e)...)
		}
		return out
	case "annotation", "marker_annotation":
		return []tree.NodeID{c.annotation(v)}
	}
	return ids(c.expr(v))
}
