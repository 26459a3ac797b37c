package cfg

import (
	"strings"

	"lintel/internal/tree"
)

// Options tune how decisions are counted.
type Options struct {
	// SwitchAsSingleDecision counts a whole switch as one decision point
	// instead of one per case label.
	SwitchAsSingleDecision bool
	// Exceptions gives every statement that calls or allocates an
	// exceptional edge to its handler, and lowers finally bodies once per
	// way out of the try (normal, exceptional, each return/break/continue).
	// Such graphs are for path analysis; complexity is counted without it.
	Exceptions bool
}

type jumpTarget struct {
	brk  BlockID
	cont BlockID // -1 for switch
	fins int     // finally frames open outside the target
}

type finFrame struct {
	fin      tree.NodeID
	handlers int // handler depth outside the try
}

// Builder lowers statements into a Graph one at a time.
type Builder struct {
	u       *tree.Unit
	g       *Graph
	cur     BlockID
	targets []jumpTarget

	exceptions bool
	handlers   []BlockID
	finallies  []finFrame
}

// NewBuilder starts a graph for routine with an open entry block.
func NewBuilder(u *tree.Unit, routine tree.NodeID, opts Options) *Builder {
	b := &Builder{u: u, g: &Graph{Routine: routine, switchAsSingle: opts.SwitchAsSingleDecision}, exceptions: opts.Exceptions}
	b.g.Entry = b.newBlock(BlockEntry)
	b.g.Exit = b.newBlock(BlockExit)
	b.cur = b.g.Entry
	return b
}

// Build lowers the body of a method or lambda. Routines without a body
// (abstract or interface methods) yield a graph with entry -> exit only.
func Build(u *tree.Unit, routine tree.NodeID, opts Options) *Graph {
	b := NewBuilder(u, routine, opts)
	n := u.Node(routine)
	switch {
	case !n.Body.IsValid():
	case u.Kind(n.Body) == tree.KindBlock || u.Kind(n.Body).IsStmt():
		b.AddStmt(n.Body)
	default:
		// lambda with an expression body
		b.expr(n.Body)
	}
	return b.Finish()
}

// Finish closes the open block into the exit and returns the graph.
func (b *Builder) Finish() *Graph {
	b.connect(b.cur, b.g.Exit, EdgeSeq)
	return b.g
}

func (b *Builder) newBlock(kind BlockKind) BlockID {
	id := BlockID(len(b.g.Blocks)) //nolint:gosec // bounded by tree size
	b.g.Blocks = append(b.g.Blocks, &Block{ID: id, Kind: kind})
	return id
}

func (b *Builder) connect(from, to BlockID, kind EdgeKind) {
	idx := len(b.g.Edges)
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Kind: kind})
	b.g.Blocks[from].Succs = append(b.g.Blocks[from].Succs, idx)
	b.g.Blocks[to].Preds = append(b.g.Blocks[to].Preds, idx)
}

func (b *Builder) add(id tree.NodeID) {
	blk := b.g.Blocks[b.cur]
	blk.Stmts = append(blk.Stmts, id)
}

// jump ends the current block with a transfer and opens a fresh one for
// whatever (unreachable) code follows.
func (b *Builder) jump(to BlockID, kind EdgeKind) {
	b.connect(b.cur, to, kind)
	b.cur = b.newBlock(BlockPlain)
}

// AddStmt lowers one statement into the graph.
func (b *Builder) AddStmt(id tree.NodeID) {
	n := b.u.Node(id)
	switch n.Kind {
	case tree.KindBlock:
		b.add(id)
		for _, c := range n.Children {
			b.AddStmt(c)
		}

	case tree.KindIf:
		b.add(id)
		then := b.newBlock(BlockPlain)
		join := b.newBlock(BlockPlain)
		els := join
		if n.Else.IsValid() {
			els = b.newBlock(BlockPlain)
		}
		b.branch(n.Cond, then, els)
		b.cur = then
		b.AddStmt(n.Body)
		b.connect(b.cur, join, EdgeSeq)
		if n.Else.IsValid() {
			b.cur = els
			b.AddStmt(n.Else)
			b.connect(b.cur, join, EdgeSeq)
		}
		b.cur = join

	case tree.KindWhile:
		head := b.newBlock(BlockPlain)
		b.connect(b.cur, head, EdgeSeq)
		b.cur = head
		b.add(id)
		body := b.newBlock(BlockPlain)
		exit := b.newBlock(BlockPlain)
		b.branch(n.Cond, body, exit)
		b.loop(b.target(exit, head), body, n.Body, head)
		b.cur = exit

	case tree.KindDoWhile:
		body := b.newBlock(BlockPlain)
		b.add(id)
		b.connect(b.cur, body, EdgeSeq)
		cond := b.newBlock(BlockPlain)
		exit := b.newBlock(BlockPlain)
		b.loop(b.target(exit, cond), body, n.Body, cond)
		b.cur = cond
		b.branch(n.Cond, body, exit)
		b.cur = exit

	case tree.KindFor:
		b.add(id)
		var updates []tree.NodeID
		for _, c := range n.Children {
			switch {
			case c == n.Cond || c == n.Body:
			case b.u.Kind(c).IsExpr():
				updates = append(updates, c)
			default:
				b.AddStmt(c)
			}
		}
		head := b.newBlock(BlockPlain)
		b.connect(b.cur, head, EdgeSeq)
		b.cur = head
		body := b.newBlock(BlockPlain)
		exit := b.newBlock(BlockPlain)
		if n.Cond.IsValid() {
			b.branch(n.Cond, body, exit)
		} else {
			b.connect(head, body, EdgeSeq)
		}
		update := b.newBlock(BlockPlain)
		b.loop(b.target(exit, update), body, n.Body, update)
		b.cur = update
		for _, u := range updates {
			b.expr(u)
		}
		b.connect(b.cur, head, EdgeSeq)
		b.cur = exit

	case tree.KindForEach:
		b.add(id)
		if n.X.IsValid() {
			b.expr(n.X)
		}
		head := b.newBlock(BlockPlain)
		b.connect(b.cur, head, EdgeSeq)
		b.cur = head
		for _, c := range b.u.ChildrenOfKind(id, tree.KindLocalVar) {
			b.add(c)
		}
		body := b.newBlock(BlockPlain)
		exit := b.newBlock(BlockPlain)
		b.connect(head, body, EdgeTrue)
		b.connect(head, exit, EdgeFalse)
		b.loop(b.target(exit, head), body, n.Body, head)
		b.cur = exit

	case tree.KindSwitch:
		b.switchStmt(id, n)

	case tree.KindTry:
		b.tryStmt(id, n)

	case tree.KindReturn:
		b.add(id)
		if n.X.IsValid() {
			b.expr(n.X)
			b.raise(id, n.X)
		}
		b.leaveFinallies(0)
		b.jump(b.g.Exit, EdgeSeq)

	case tree.KindThrow:
		b.add(id)
		if n.X.IsValid() {
			b.expr(n.X)
		}
		if b.exceptions {
			b.g.Blocks[b.cur].Throws = id
		}
		b.jump(b.handler(), EdgeExceptional)

	case tree.KindBreak:
		b.add(id)
		if t, ok := b.innermost(false); ok {
			b.leaveFinallies(t.fins)
			b.jump(t.brk, EdgeSeq)
		}

	case tree.KindContinue:
		b.add(id)
		if t, ok := b.innermost(true); ok {
			b.leaveFinallies(t.fins)
			b.jump(t.cont, EdgeSeq)
		}

	case tree.KindClass:
		// local class: analyzed on its own
		b.add(id)

	default:
		// expression statements, local declarations and anything opaque
		b.add(id)
		var exprs []tree.NodeID
		for _, c := range n.Children {
			k := b.u.Kind(c)
			switch {
			case k.IsStmt() || k == tree.KindLocalVar:
				b.AddStmt(c)
			case k.IsExpr():
				b.expr(c)
				exprs = append(exprs, c)
			}
		}
		b.raise(id, exprs...)
	}
}

func (b *Builder) target(brk, cont BlockID) jumpTarget {
	return jumpTarget{brk: brk, cont: cont, fins: len(b.finallies)}
}

// handler is where an exception raised at the current point goes.
func (b *Builder) handler() BlockID {
	if n := len(b.handlers); n > 0 {
		return b.handlers[n-1]
	}
	return b.g.Exit
}

// raise ends the current block with an exceptional edge for stmt when one
// of exprs calls or allocates, then continues in a fresh block.
func (b *Builder) raise(stmt tree.NodeID, exprs ...tree.NodeID) {
	if !b.exceptions {
		return
	}
	for _, x := range exprs {
		if b.canThrow(x) {
			b.g.Blocks[b.cur].Throws = stmt
			b.connect(b.cur, b.handler(), EdgeExceptional)
			next := b.newBlock(BlockPlain)
			b.connect(b.cur, next, EdgeSeq)
			b.cur = next
			return
		}
	}
}

func (b *Builder) canThrow(x tree.NodeID) bool {
	found := false
	b.u.Walk(x, func(id tree.NodeID) bool {
		switch b.u.Kind(id) {
		case tree.KindLambda, tree.KindClass, tree.KindSwitch:
			return false
		case tree.KindCall, tree.KindNew:
			found = true
		}
		return !found
	})
	return found
}

// leaveFinallies lowers a copy of every finally body between the current
// point and frame depth, innermost first.
func (b *Builder) leaveFinallies(depth int) {
	for i := len(b.finallies) - 1; i >= depth; i-- {
		fr := b.finallies[i]
		fins, hs := b.finallies, b.handlers
		b.finallies, b.handlers = fins[:i:i], hs[:fr.handlers:fr.handlers]
		b.lowerFinally(fr.fin)
		b.finallies, b.handlers = fins, hs
	}
}

func (b *Builder) lowerFinally(fin tree.NodeID) {
	b.add(fin)
	if body := b.u.Node(fin).Body; body.IsValid() {
		b.AddStmt(body)
	}
}

// catchesAll reports whether one of the catch clauses takes any exception.
func catchesAll(u *tree.Unit, catches []tree.NodeID) bool {
	for _, c := range catches {
		for _, t := range strings.Split(u.Node(c).Text, "|") {
			switch strings.TrimSpace(t) {
			case "Throwable", "Exception", "java.lang.Throwable", "java.lang.Exception":
				return true
			}
		}
	}
	return false
}

// loop lowers a loop body with break/continue targets and wires its end to next.
func (b *Builder) loop(t jumpTarget, entry BlockID, body tree.NodeID, next BlockID) {
	b.targets = append(b.targets, t)
	b.cur = entry
	if body.IsValid() {
		b.AddStmt(body)
	}
	b.connect(b.cur, next, EdgeSeq)
	b.targets = b.targets[:len(b.targets)-1]
}

func (b *Builder) innermost(needContinue bool) (jumpTarget, bool) {
	for i := len(b.targets) - 1; i >= 0; i-- {
		if !needContinue || b.targets[i].cont >= 0 {
			return b.targets[i], true
		}
	}
	return jumpTarget{}, false
}

func (b *Builder) switchStmt(id tree.NodeID, n *tree.Node) {
	b.add(id)
	if n.Cond.IsValid() {
		b.expr(n.Cond)
	}
	dispatch := b.cur
	b.g.Blocks[dispatch].Kind = BlockSwitch
	exit := b.newBlock(BlockPlain)
	b.targets = append(b.targets, b.target(exit, -1))

	hasDefault := false
	prevEnd := BlockID(-1)
	for _, c := range b.u.ChildrenOfKind(id, tree.KindSwitchCase) {
		cn := b.u.Node(c)
		caseB := b.newBlock(BlockPlain)
		if cn.Flags.Has(tree.FlagDefault) {
			hasDefault = true
			b.connect(dispatch, caseB, EdgeFalse)
		} else {
			b.connect(dispatch, caseB, EdgeTrue)
		}
		if prevEnd >= 0 {
			b.connect(prevEnd, caseB, EdgeSeq)
		}
		b.cur = caseB
		b.add(c)
		for _, s := range b.u.CaseBody(c) {
			if b.u.Kind(s).IsExpr() {
				// arrow case with an expression body
				b.expr(s)
				continue
			}
			b.AddStmt(s)
		}
		if cn.Flags.Has(tree.FlagArrow) {
			b.connect(b.cur, exit, EdgeSeq)
			prevEnd = -1
		} else {
			prevEnd = b.cur
		}
	}
	if prevEnd >= 0 {
		b.connect(prevEnd, exit, EdgeSeq)
	}
	if !hasDefault {
		b.connect(dispatch, exit, EdgeFalse)
	}
	b.targets = b.targets[:len(b.targets)-1]
	b.cur = exit
}

func (b *Builder) tryStmt(id tree.NodeID, n *tree.Node) {
	b.add(id)
	for _, c := range n.Children {
		switch k := b.u.Kind(c); {
		case k == tree.KindLocalVar:
			b.AddStmt(c)
		case k.IsExpr():
			// try (existing) { ... }
			b.expr(c)
		}
	}
	entry := b.newBlock(BlockPlain)
	b.connect(b.cur, entry, EdgeSeq)

	join := b.newBlock(BlockPlain)
	after := join
	fin := b.u.FirstChildOfKind(id, tree.KindFinally)
	var finB BlockID
	if fin.IsValid() {
		finB = b.newBlock(BlockPlain)
		after = finB
	}

	catches := b.u.ChildrenOfKind(id, tree.KindCatch)
	catchBlocks := make([]BlockID, len(catches))
	for i := range catches {
		catchBlocks[i] = b.newBlock(BlockPlain)
		if !b.exceptions {
			b.connect(entry, catchBlocks[i], EdgeExceptional)
		}
	}

	// rethrow: куда уходит исключение, не пойманное внутри try
	var rethrow BlockID
	if b.exceptions {
		rethrow = b.handler()
		if fin.IsValid() {
			rethrow = b.newBlock(BlockPlain)
		}
		dispatch := b.newBlock(BlockPlain)
		for _, cb := range catchBlocks {
			b.connect(dispatch, cb, EdgeExceptional)
		}
		if !catchesAll(b.u, catches) {
			b.connect(dispatch, rethrow, EdgeExceptional)
		}
		if fin.IsValid() {
			b.finallies = append(b.finallies, finFrame{fin: fin, handlers: len(b.handlers)})
		}
		b.handlers = append(b.handlers, dispatch)
	}

	b.cur = entry
	if n.Body.IsValid() {
		b.AddStmt(n.Body)
	}
	b.connect(b.cur, after, EdgeSeq)

	if b.exceptions {
		b.handlers[len(b.handlers)-1] = rethrow
	}
	for i, c := range catches {
		b.cur = catchBlocks[i]
		b.add(c)
		if body := b.u.Node(c).Body; body.IsValid() {
			b.AddStmt(body)
		}
		b.connect(b.cur, after, EdgeSeq)
	}

	if b.exceptions {
		b.handlers = b.handlers[:len(b.handlers)-1]
		if fin.IsValid() {
			b.finallies = b.finallies[:len(b.finallies)-1]
			b.cur = rethrow
			b.lowerFinally(fin)
			b.connect(b.cur, b.handler(), EdgeExceptional)
		}
	}

	if fin.IsValid() {
		b.cur = finB
		b.lowerFinally(fin)
		b.connect(b.cur, join, EdgeSeq)
	}
	b.cur = join
}

// branch lowers a condition so that control reaches t when it holds and f
// otherwise. Every && and || becomes its own two-way block.
func (b *Builder) branch(cond tree.NodeID, t, f BlockID) {
	n := b.u.Node(cond)
	if n == nil {
		b.connect(b.cur, t, EdgeSeq)
		return
	}
	switch {
	case n.Kind == tree.KindBinary && n.Op == tree.OpAndAnd:
		mid := b.newBlock(BlockPlain)
		b.branch(n.X, mid, f)
		b.cur = mid
		b.branch(n.Y, t, f)
	case n.Kind == tree.KindBinary && n.Op == tree.OpOrOr:
		mid := b.newBlock(BlockPlain)
		b.branch(n.X, t, mid)
		b.cur = mid
		b.branch(n.Y, t, f)
	case n.Kind == tree.KindUnary && n.Op == tree.OpNot:
		b.branch(n.X, f, t)
	default:
		b.expr(cond)
		b.g.Blocks[b.cur].Cond = cond
		if b.exceptions && b.canThrow(cond) {
			b.g.Blocks[b.cur].Throws = cond
			b.connect(b.cur, b.handler(), EdgeExceptional)
		}
		b.connect(b.cur, t, EdgeTrue)
		b.connect(b.cur, f, EdgeFalse)
	}
}

// expr lowers the control flow hidden in an expression: short-circuit
// operators and ternaries. Lambdas and anonymous classes are opaque.
func (b *Builder) expr(id tree.NodeID) {
	n := b.u.Node(id)
	switch {
	case n.Kind == tree.KindLambda || n.Kind == tree.KindClass:
		return
	case n.Kind == tree.KindBinary && n.Op.IsLogical():
		rhs := b.newBlock(BlockPlain)
		join := b.newBlock(BlockPlain)
		b.expr(n.X)
		if n.Op == tree.OpAndAnd {
			b.connect(b.cur, rhs, EdgeTrue)
			b.connect(b.cur, join, EdgeFalse)
		} else {
			b.connect(b.cur, join, EdgeTrue)
			b.connect(b.cur, rhs, EdgeFalse)
		}
		b.cur = rhs
		b.expr(n.Y)
		b.connect(b.cur, join, EdgeSeq)
		b.cur = join
	case n.Kind == tree.KindTernary:
		a := b.newBlock(BlockPlain)
		c := b.newBlock(BlockPlain)
		join := b.newBlock(BlockPlain)
		b.branch(n.Cond, a, c)
		b.cur = a
		b.expr(n.Body)
		b.connect(b.cur, join, EdgeSeq)
		b.cur = c
		b.expr(n.Else)
		b.connect(b.cur, join, EdgeSeq)
		b.cur = join
	case n.Kind == tree.KindSwitch:
		// switch expression
		b.AddStmt(id)
	default:
		for _, c := range n.Children {
			if b.u.Kind(c).IsExpr() || b.u.Kind(c) == tree.KindSwitch {
				b.expr(c)
			}
		}
	}
}
