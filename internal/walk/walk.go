// Package walk implements the traversal engine: one deterministic pre-order
// walk per unit that dispatches enter/exit callbacks to the visitors
// subscribed to each node kind.
package walk

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"lintel/internal/source"
	"lintel/internal/tree"
)

// ErrRuleFailure is wrapped by every RuleFailure.
var ErrRuleFailure = errors.New("rule failure")

// Visitor receives callbacks for subscribed node kinds. A visitor belongs to
// exactly one unit and must not modify the tree.
type Visitor interface {
	Enter(c *Context)
	Exit(c *Context)
}

// Funcs adapts plain functions to Visitor; nil callbacks are skipped.
type Funcs struct {
	OnEnter func(c *Context)
	OnExit  func(c *Context)
}

func (f Funcs) Enter(c *Context) {
	if f.OnEnter != nil {
		f.OnEnter(c)
	}
}

func (f Funcs) Exit(c *Context) {
	if f.OnExit != nil {
		f.OnExit(c)
	}
}

// Subscriber binds a visitor to the node kinds it wants to see.
type Subscriber struct {
	RuleID  string
	Kinds   tree.KindSet
	Visitor Visitor
}

// RuleFailure describes a visitor callback that panicked.
type RuleFailure struct {
	RuleID string
	Node   tree.NodeID
	Kind   tree.Kind
	Span   source.Span
	Phase  string // "enter" or "exit"
	Value  any
	Stack  []byte
}

func (f *RuleFailure) Error() string {
	return fmt.Sprintf("rule %s failed on %s (%s): %v", f.RuleID, f.Kind, f.Phase, f.Value)
}

func (f *RuleFailure) Unwrap() error { return ErrRuleFailure }

// Options tune a walk.
type Options struct {
	// FailFast aborts the walk on the first rule failure and returns it.
	FailFast bool
	// OnFailure is called for every isolated failure when FailFast is off.
	OnFailure func(f *RuleFailure)
}

// Walk traverses unit once, calling Enter before and Exit after the children
// of each node, for every subscriber whose kinds include that node's kind.
// Subscribers are dispatched in slice order. A panicking callback disables
// its subscriber for the rest of the unit. Cancellation is checked before each
// dispatch; a running callback always completes.
func Walk(ctx context.Context, unit *tree.Unit, subs []Subscriber, opts Options) error {
	w := &walker{
		ctx:      ctx,
		unit:     unit,
		subs:     subs,
		opts:     opts,
		disabled: make([]bool, len(subs)),
	}
	for i := range subs {
		for k := tree.KindInvalid; k < tree.KindCount; k++ {
			if subs[i].Kinds.Has(k) {
				w.table[k] = append(w.table[k], i)
			}
		}
	}
	w.cur.unit = unit
	return w.visit(unit.Root())
}

type walker struct {
	ctx      context.Context
	unit     *tree.Unit
	subs     []Subscriber
	opts     Options
	table    [tree.KindCount][]int
	disabled []bool
	cur      Context
}

func (w *walker) visit(id tree.NodeID) error {
	n := w.unit.Node(id)
	handlers := w.table[n.Kind]

	w.cur.push(id)
	defer w.cur.pop()

	for _, i := range handlers {
		if err := w.dispatch(i, id, true); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := w.visit(c); err != nil {
			return err
		}
	}
	for _, i := range handlers {
		if err := w.dispatch(i, id, false); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) dispatch(i int, id tree.NodeID, enter bool) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if w.disabled[i] {
		return nil
	}
	if f := w.call(i, id, enter); f != nil {
		w.disabled[i] = true
		if w.opts.FailFast {
			return f
		}
		if w.opts.OnFailure != nil {
			w.opts.OnFailure(f)
		}
	}
	return nil
}

func (w *walker) call(i int, id tree.NodeID, enter bool) (failure *RuleFailure) {
	defer func() {
		if r := recover(); r != nil {
			n := w.unit.Node(id)
			phase := "exit"
			if enter {
				phase = "enter"
			}
			failure = &RuleFailure{
				RuleID: w.subs[i].RuleID,
				Node:   id,
				Kind:   n.Kind,
				Span:   n.Span,
				Phase:  phase,
				Value:  r,
				Stack:  debug.Stack(),
			}
		}
	}()
	if enter {
		w.subs[i].Visitor.Enter(&w.cur)
	} else {
		w.subs[i].Visitor.Exit(&w.cur)
	}
	return nil
}
