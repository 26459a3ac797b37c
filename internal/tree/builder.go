package tree

import (
	"fmt"

	"lintel/internal/source"
)

// Builder assembles a Unit bottom-up: children are pushed before their parent.
type Builder struct {
	file     *source.File
	nodes    *Arena[Node]
	comments []Comment
}

// NewBuilder returns a builder for the given file.
func NewBuilder(file *source.File) *Builder {
	return &Builder{
		file:  file,
		nodes: NewArena[Node](uint(len(file.Content) / 8)),
	}
}

// Push appends n and returns its id. Parent is assigned by Finish.
func (b *Builder) Push(n Node) NodeID {
	n.Parent = NoNodeID
	return NodeID(b.nodes.Allocate(n))
}

// Node gives mutable access to a pushed node until Finish is called.
func (b *Builder) Node(id NodeID) *Node {
	return b.nodes.Get(uint32(id))
}

// Span is a convenience for building spans in this builder's file.
func (b *Builder) Span(start, end uint32) source.Span {
	return source.Span{File: b.file.ID, Start: start, End: end}
}

// AddComment records a comment. Comments may be added in any order.
func (b *Builder) AddComment(span source.Span, text string) {
	b.comments = append(b.comments, Comment{Span: span, Text: text})
}

// Finish links parents, checks the tree invariants and freezes the Unit.
// The builder must not be used afterwards.
func (b *Builder) Finish(root NodeID) (*Unit, error) {
	if b.nodes.Get(uint32(root)) == nil {
		return nil, fmt.Errorf("%w: root %d does not exist", ErrInvalidTree, root)
	}
	for i, n := range b.nodes.Slice() {
		parent := NodeID(i + 1) //nolint:gosec // arena index
		for _, c := range n.Children {
			child := b.nodes.Get(uint32(c))
			if child == nil {
				return nil, fmt.Errorf("%w: node %d references missing child %d", ErrInvalidTree, parent, c)
			}
			// дети всегда создаются раньше родителя, поэтому циклов быть не может
			if c >= parent {
				return nil, fmt.Errorf("%w: child %d pushed after parent %d", ErrInvalidTree, c, parent)
			}
			if child.Parent.IsValid() {
				return nil, fmt.Errorf("%w: node %d has two parents (%d, %d)", ErrInvalidTree, c, child.Parent, parent)
			}
			child.Parent = parent
		}
	}

	sortComments(b.comments)
	u := &Unit{
		file:     b.file,
		nodes:    b.nodes,
		root:     root,
		comments: b.comments,
	}
	u.depth = make([]uint16, u.nodes.Len())
	u.Walk(root, func(id NodeID) bool {
		if p := u.Parent(id); p.IsValid() {
			u.depth[id-1] = u.depth[p-1] + 1
		}
		return true
	})
	if err := Validate(u); err != nil {
		return nil, err
	}
	u.buildIndex()
	return u, nil
}

func sortComments(cs []Comment) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Span.Start < cs[j-1].Span.Start; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}
