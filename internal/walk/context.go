package walk

import (
	"lintel/internal/tree"
)

// Context is the read-only view a visitor gets during a callback. It is only
// valid for the duration of that callback.
type Context struct {
	unit  *tree.Unit
	stack []tree.NodeID // root first, current last
}

func (c *Context) push(id tree.NodeID) { c.stack = append(c.stack, id) }
func (c *Context) pop()                { c.stack = c.stack[:len(c.stack)-1] }

func (c *Context) Unit() *tree.Unit { return c.unit }

// ID returns the current node.
func (c *Context) ID() tree.NodeID { return c.stack[len(c.stack)-1] }

// Node returns the current node. Do not modify it.
func (c *Context) Node() *tree.Node { return c.unit.Node(c.ID()) }

// Depth is the number of ancestors of the current node.
func (c *Context) Depth() int { return len(c.stack) - 1 }

// Parent returns the direct parent, or NoNodeID at the root.
func (c *Context) Parent() tree.NodeID {
	if len(c.stack) < 2 {
		return tree.NoNodeID
	}
	return c.stack[len(c.stack)-2]
}

// EnclosingRoutine returns the nearest enclosing method or lambda,
// excluding the current node itself.
func (c *Context) EnclosingRoutine() tree.NodeID {
	for i := len(c.stack) - 2; i >= 0; i-- {
		if c.unit.Kind(c.stack[i]).IsRoutine() {
			return c.stack[i]
		}
	}
	return tree.NoNodeID
}
