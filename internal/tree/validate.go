package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is wrapped by every tree invariant violation.
var ErrInvalidTree = errors.New("invalid syntax tree")

// Validate checks the structural invariants of a unit:
//  1. every span lies within the file content
//  2. every child span is contained in its parent span
//  3. child and parent links agree and the root has no parent
//  4. every node is reachable from the root exactly once
//  5. reference fields (Cond, Body, Else, X, Y) point at children
func Validate(u *Unit) error {
	if u == nil || u.file == nil {
		return fmt.Errorf("%w: nil unit or file", ErrInvalidTree)
	}
	root := u.Node(u.root)
	if root == nil {
		return fmt.Errorf("%w: missing root", ErrInvalidTree)
	}
	if root.Parent.IsValid() {
		return fmt.Errorf("%w: root %d has parent %d", ErrInvalidTree, u.root, root.Parent)
	}

	size := u.file.Len()
	seen := make([]bool, u.nodes.Len()+1)
	var errs []error
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if seen[id] {
			errs = append(errs, fmt.Errorf("node %d reached twice", id))
			return
		}
		seen[id] = true
		n := u.Node(id)
		if n.Kind == KindInvalid || n.Kind >= KindCount {
			errs = append(errs, fmt.Errorf("node %d has invalid kind %d", id, n.Kind))
		}
		if n.Span.File != u.file.ID {
			errs = append(errs, fmt.Errorf("node %d span points to file %d, want %d", id, n.Span.File, u.file.ID))
		}
		if n.Span.Start > n.Span.End || n.Span.End > size {
			errs = append(errs, fmt.Errorf("node %d span %v outside file bounds [0,%d)", id, n.Span, size))
		}
		for _, c := range n.Children {
			child := u.Node(c)
			if child.Parent != id {
				errs = append(errs, fmt.Errorf("node %d parent is %d, want %d", c, child.Parent, id))
			}
			if !n.Span.Contains(child.Span) {
				errs = append(errs, fmt.Errorf("%s %d span %v is not inside parent %s %d span %v",
					child.Kind, c, child.Span, n.Kind, id, n.Span))
			}
		}
		for _, ref := range [...]NodeID{n.Cond, n.Body, n.Else, n.X, n.Y} {
			if ref.IsValid() && u.Parent(ref) != id {
				errs = append(errs, fmt.Errorf("%s %d references non-child %d", n.Kind, id, ref))
			}
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(u.root)

	for i := 1; i < len(seen); i++ {
		if !seen[i] {
			errs = append(errs, fmt.Errorf("node %d is unreachable from root", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTree, errors.Join(errs...))
	}
	return nil
}
