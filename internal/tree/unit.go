package tree

import (
	"sort"

	"lintel/internal/source"
)

// Comment is a source comment kept next to the tree for directive lookups.
type Comment struct {
	Span source.Span
	Text string
}

// Unit is one parsed file: the node arena, its root and a flat span index.
// A Unit is immutable once Builder.Finish returns it.
type Unit struct {
	file     *source.File
	nodes    *Arena[Node]
	depth    []uint16 // by NodeID-1
	root     NodeID
	comments []Comment
	index    []NodeID // sorted by (start asc, end desc, depth asc)
}

func (u *Unit) File() *source.File { return u.file }

func (u *Unit) Path() string { return u.file.Path }

func (u *Unit) Root() NodeID { return u.root }

// Len returns the number of nodes.
func (u *Unit) Len() int { return int(u.nodes.Len()) }

// Node returns the node with the given id, or nil. Callers must not modify it.
func (u *Unit) Node(id NodeID) *Node {
	return u.nodes.Get(uint32(id))
}

// Kind is a shortcut for Node(id).Kind that tolerates NoNodeID.
func (u *Unit) Kind(id NodeID) Kind {
	if n := u.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (u *Unit) Children(id NodeID) []NodeID {
	if n := u.Node(id); n != nil {
		return n.Children
	}
	return nil
}

func (u *Unit) Parent(id NodeID) NodeID {
	if n := u.Node(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// Depth returns the distance from the root (root = 0).
func (u *Unit) Depth(id NodeID) int {
	if !id.IsValid() || int(id) > len(u.depth) {
		return -1
	}
	return int(u.depth[id-1])
}

// Comments returns the unit's comments in source order.
func (u *Unit) Comments() []Comment { return u.comments }

// IsAncestor reports whether anc is a strict ancestor of id.
func (u *Unit) IsAncestor(anc, id NodeID) bool {
	for p := u.Parent(id); p.IsValid(); p = u.Parent(p) {
		if p == anc {
			return true
		}
	}
	return false
}

// ChildrenOfKind returns the direct children of id with kind k.
func (u *Unit) ChildrenOfKind(id NodeID, k Kind) []NodeID {
	var out []NodeID
	for _, c := range u.Children(id) {
		if u.Kind(c) == k {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child of id with kind k.
func (u *Unit) FirstChildOfKind(id NodeID, k Kind) NodeID {
	for _, c := range u.Children(id) {
		if u.Kind(c) == k {
			return c
		}
	}
	return NoNodeID
}

// Modifiers returns the modifier bits of a declaration.
func (u *Unit) Modifiers(decl NodeID) Modifier {
	if m := u.FirstChildOfKind(decl, KindModifiers); m.IsValid() {
		return u.Node(m).Mods
	}
	return 0
}

// Annotations returns the annotations attached to a declaration.
func (u *Unit) Annotations(decl NodeID) []NodeID {
	if m := u.FirstChildOfKind(decl, KindModifiers); m.IsValid() {
		return u.ChildrenOfKind(m, KindAnnotation)
	}
	return nil
}

// Params returns the parameter declarations of a method or lambda.
func (u *Unit) Params(routine NodeID) []NodeID {
	return u.ChildrenOfKind(routine, KindParam)
}

// CaseBody returns the statements of a switch case, without its label.
func (u *Unit) CaseBody(id NodeID) []NodeID {
	n := u.Node(id)
	if n == nil || n.Kind != KindSwitchCase {
		return nil
	}
	if !n.X.IsValid() {
		return n.Children
	}
	out := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if c != n.X {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the source text covered by span.
func (u *Unit) Text(span source.Span) string {
	if span.End > u.file.Len() || span.Start > span.End {
		return ""
	}
	return string(u.file.Content[span.Start:span.End])
}

// Source returns the source text of a node.
func (u *Unit) Source(id NodeID) string {
	if n := u.Node(id); n != nil {
		return u.Text(n.Span)
	}
	return ""
}

// Location resolves a span of this unit to line and column positions.
func (u *Unit) Location(span source.Span) source.Location {
	start, end := u.file.Resolve(span)
	return source.Location{Path: u.file.Path, Start: start, End: end}
}

// Walk calls fn for id and its descendants in pre-order. Returning false
// from fn skips the children of that node.
func (u *Unit) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range u.Children(id) {
		u.Walk(c, fn)
	}
}

// Covering returns the innermost node whose span contains span.
func (u *Unit) Covering(span source.Span) NodeID {
	if span.File != u.file.ID {
		return NoNodeID
	}
	return u.innermost(span.Start, func(s source.Span) bool { return s.Contains(span) })
}

// innermost scans the index backwards from the last node starting at or
// before off. Containing nodes form a chain, and the deepest one sorts last.
func (u *Unit) innermost(off uint32, contains func(source.Span) bool) NodeID {
	i := sort.Search(len(u.index), func(i int) bool {
		return u.Node(u.index[i]).Span.Start > off
	})
	for i--; i >= 0; i-- {
		id := u.index[i]
		if contains(u.Node(id).Span) {
			return id
		}
	}
	return NoNodeID
}

// Equal reports whether two subtrees are structurally identical:
// same kinds, operators, names and literal text, recursively. Spans are ignored.
func (u *Unit) Equal(a, b NodeID) bool {
	if a == b {
		return true
	}
	na, nb := u.Node(a), u.Node(b)
	if na == nil || nb == nil {
		return false
	}
	if na.Kind != nb.Kind || na.Op != nb.Op || na.Lit != nb.Lit ||
		na.Text != nb.Text || na.Type != nb.Type || na.Flags != nb.Flags ||
		len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !u.Equal(na.Children[i], nb.Children[i]) {
			return false
		}
	}
	return true
}

func (u *Unit) buildIndex() {
	u.index = make([]NodeID, 0, u.nodes.Len())
	u.Walk(u.root, func(id NodeID) bool {
		u.index = append(u.index, id)
		return true
	})
	sort.SliceStable(u.index, func(i, j int) bool {
		a, b := u.Node(u.index[i]), u.Node(u.index[j])
		if a.Span != b.Span {
			return a.Span.Before(b.Span)
		}
		return u.Depth(u.index[i]) < u.Depth(u.index[j])
	})
}
