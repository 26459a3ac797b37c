// Package treetest builds small syntax trees for tests without a parser.
//
// Nodes are described with constructors (Class, Method, If, And, ...). Build
// lays them out as a synthetic source text in which every node owns a
// parenthesised region, so spans are real, nested and resolvable to lines:
// each statement and declaration starts on its own line.
package treetest

import (
	"bytes"
	"testing"

	"lintel/internal/source"
	"lintel/internal/tree"
)

// N describes one node before it is materialised.
type N struct {
	node tree.Node
	kids []*N

	cond, body, els, x, y *N

	mods tree.Modifier
	anns []*N

	comment string // set for line comments, which are not nodes
}

func mk(kind tree.Kind, kids ...*N) *N {
	n := &N{node: tree.Node{Kind: kind}}
	for _, k := range kids {
		if k != nil {
			n.kids = append(n.kids, k)
		}
	}
	return n
}

// With adds modifiers to a declaration.
func (n *N) With(mods tree.Modifier) *N {
	n.mods |= mods
	return n
}

// Annotated attaches an annotation with the given arguments.
func (n *N) Annotated(name string, args ...*N) *N {
	a := mk(tree.KindAnnotation, args...)
	a.node.Text = name
	n.anns = append(n.anns, a)
	return n
}

// Flag sets node flags.
func (n *N) Flag(f tree.Flags) *N {
	n.node.Flags |= f
	return n
}

// Extends sets the direct supertypes of a class.
func (n *N) Extends(types ...string) *N {
	n.node.Supers = append(n.node.Supers, types...)
	return n
}

// Permits sets the permits clause of a class.
func (n *N) Permits(types ...string) *N {
	n.node.Permits = append(n.node.Permits, types...)
	return n
}

// Returns sets the declared type of a method.
func (n *N) Returns(typ string) *N {
	n.node.Type = typ
	return n
}

// Finally appends a finally clause to a Try.
func (n *N) Finally(block *N) *N {
	f := mk(tree.KindFinally, block)
	f.body = block
	n.kids = append(n.kids, f)
	return n
}

// Comment is a line comment placed between its siblings. It becomes a
// Unit comment, not a node.
func Comment(text string) *N {
	return &N{comment: "// " + text}
}

// Declarations.

func Class(name string, members ...*N) *N {
	n := mk(tree.KindClass, members...)
	n.node.Text = name
	return n
}

func Interface(name string, members ...*N) *N {
	return Class(name, members...).Flag(tree.FlagInterface)
}

func Method(name string, body *N, params ...*N) *N {
	n := mk(tree.KindMethod, params...)
	n.node.Text = name
	n.node.Type = "void"
	if body != nil {
		n.kids = append(n.kids, body)
		n.body = body
	}
	return n
}

func Param(typ, name string) *N {
	n := mk(tree.KindParam)
	n.node.Type, n.node.Text = typ, name
	return n
}

func Field(typ, name string, init *N) *N {
	n := mk(tree.KindField, init)
	n.node.Type, n.node.Text = typ, name
	n.x = init
	return n
}

func Local(typ, name string, init *N) *N {
	n := mk(tree.KindLocalVar, init)
	n.node.Type, n.node.Text = typ, name
	n.x = init
	return n
}

// Resource is a try-with-resources declaration.
func Resource(typ, name string, init *N) *N {
	return Local(typ, name, init).Flag(tree.FlagResource)
}

// Statements.

func Block(stmts ...*N) *N { return mk(tree.KindBlock, stmts...) }

func If(cond, then, els *N) *N {
	n := mk(tree.KindIf, cond, then, els)
	n.cond, n.body, n.els = cond, then, els
	return n
}

func While(cond, body *N) *N {
	n := mk(tree.KindWhile, cond, body)
	n.cond, n.body = cond, body
	return n
}

func DoWhile(body, cond *N) *N {
	n := mk(tree.KindDoWhile, body, cond)
	n.cond, n.body = cond, body
	return n
}

// For builds a classic for loop; init and update may be nil.
func For(init, cond, update, body *N) *N {
	n := mk(tree.KindFor, init, cond, update, body)
	n.cond, n.body = cond, body
	return n
}

func ForEach(typ, name string, iter, body *N) *N {
	v := Local(typ, name, nil)
	n := mk(tree.KindForEach, v, iter, body)
	n.x, n.body = iter, body
	return n
}

func Switch(sel *N, cases ...*N) *N {
	n := mk(tree.KindSwitch, append([]*N{sel}, cases...)...)
	n.cond = sel
	return n
}

func Case(label *N, stmts ...*N) *N {
	n := mk(tree.KindSwitchCase, append([]*N{label}, stmts...)...)
	n.x = label
	return n
}

func Default(stmts ...*N) *N {
	return mk(tree.KindSwitchCase, stmts...).Flag(tree.FlagDefault)
}

// Try builds a try statement. Resources, the body and catches are given in order.
func Try(resources []*N, body *N, catches ...*N) *N {
	kids := append(append([]*N{}, resources...), body)
	n := mk(tree.KindTry, append(kids, catches...)...)
	n.body = body
	return n
}

func Catch(typ, name string, body *N) *N {
	n := mk(tree.KindCatch, Param(typ, name), body)
	n.node.Text = typ
	n.body = body
	return n
}

func Return(x *N) *N {
	n := mk(tree.KindReturn, x)
	n.x = x
	return n
}

func Throw(x *N) *N {
	n := mk(tree.KindThrow, x)
	n.x = x
	return n
}

func Break() *N    { return mk(tree.KindBreak) }
func Continue() *N { return mk(tree.KindContinue) }

func Expr(x *N) *N {
	n := mk(tree.KindExprStmt, x)
	n.x = x
	return n
}

// Expressions.

func Bin(op string, x, y *N) *N {
	n := mk(tree.KindBinary, x, y)
	n.node.Op = tree.ParseOp(op)
	n.x, n.y = x, y
	return n
}

func fold(op string, xs []*N) *N {
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = Bin(op, acc, x)
	}
	return acc
}

// And folds operands left-associatively with &&.
func And(xs ...*N) *N { return fold("&&", xs) }

// Or folds operands left-associatively with ||.
func Or(xs ...*N) *N { return fold("||", xs) }

func Not(x *N) *N {
	n := mk(tree.KindUnary, x)
	n.node.Op = tree.OpNot
	n.x = x
	return n
}

func Ident(name string) *N {
	n := mk(tree.KindIdent)
	n.node.Text = name
	return n
}

func This() *N { return Ident("this") }

func lit(kind tree.LitKind, text string) *N {
	n := mk(tree.KindLiteral)
	n.node.Lit, n.node.Text = kind, text
	return n
}

func Int(text string) *N { return lit(tree.LitNumber, text) }
func Str(text string) *N { return lit(tree.LitString, `"`+text+`"`) }
func Null() *N           { return lit(tree.LitNull, "null") }

func Bool(v bool) *N {
	if v {
		return lit(tree.LitBool, "true")
	}
	return lit(tree.LitBool, "false")
}

func Call(recv *N, name string, args ...*N) *N {
	n := mk(tree.KindCall, append([]*N{recv}, args...)...)
	n.node.Text = name
	n.x = recv
	return n
}

func New(typ string, args ...*N) *N {
	n := mk(tree.KindNew, args...)
	n.node.Type = typ
	return n
}

func InstanceOf(x *N, typ string) *N {
	n := mk(tree.KindInstanceOf, x)
	n.node.Type = typ
	n.x = x
	return n
}

func Ternary(cond, a, b *N) *N {
	n := mk(tree.KindTernary, cond, a, b)
	n.cond, n.body, n.els = cond, a, b
	return n
}

func Assign(x, y *N) *N {
	n := mk(tree.KindAssign, x, y)
	n.node.Op = tree.OpAssign
	n.x, n.y = x, y
	return n
}

func Sel(x *N, name string) *N {
	n := mk(tree.KindFieldAccess, x)
	n.node.Text = name
	n.x = x
	return n
}

func Cast(typ string, x *N) *N {
	n := mk(tree.KindCast, x)
	n.node.Type = typ
	n.x = x
	return n
}

func Lambda(body *N, params ...*N) *N {
	n := mk(tree.KindLambda, append(params, body)...)
	n.body = body
	return n
}

// Build materialises decls under a Unit root. It panics on invariant violations.
func Build(path string, decls ...*N) *tree.Unit {
	u, _, err := build(path, decls)
	if err != nil {
		panic(err)
	}
	return u
}

// MustBuild is Build for tests; it also returns the file set holding the synthetic source.
func MustBuild(tb testing.TB, path string, decls ...*N) (*tree.Unit, *source.FileSet) {
	tb.Helper()
	u, fs, err := build(path, decls)
	if err != nil {
		tb.Fatalf("treetest: %v", err)
	}
	return u, fs
}

// Find returns the first node of kind k (pre-order) whose Text equals text.
// An empty text matches any node of that kind.
func Find(u *tree.Unit, k tree.Kind, text string) tree.NodeID {
	found := tree.NoNodeID
	u.Walk(u.Root(), func(id tree.NodeID) bool {
		if found.IsValid() {
			return false
		}
		n := u.Node(id)
		if n.Kind == k && (text == "" || n.Text == text) {
			found = id
			return false
		}
		return true
	})
	return found
}

func (n *N) isLeaf() bool {
	for _, k := range n.kids {
		if k.comment == "" {
			return false
		}
	}
	return true
}

type layout struct {
	buf   bytes.Buffer
	spans map[*N][2]uint32
}

func (l *layout) emit(n *N) {
	if n.comment != "" {
		l.buf.WriteByte('\n')
		start := uint32(l.buf.Len()) //nolint:gosec // test sizes
		l.buf.WriteString(n.comment)
		l.spans[n] = [2]uint32{start, uint32(l.buf.Len())} //nolint:gosec // test sizes
		return
	}
	if n.mods != 0 || len(n.anns) > 0 {
		m := mk(tree.KindModifiers, n.anns...)
		m.node.Mods = n.mods
		n.kids = append([]*N{m}, n.kids...)
		n.mods, n.anns = 0, nil
	}
	if n.node.Kind.IsStmt() || n.node.Kind.IsDecl() {
		l.buf.WriteByte('\n')
	}
	start := uint32(l.buf.Len()) //nolint:gosec // test sizes
	l.buf.WriteByte('(')
	if n.isLeaf() {
		l.buf.WriteString(n.node.Text)
	}
	for _, k := range n.kids {
		l.emit(k)
	}
	l.buf.WriteByte(')')
	l.spans[n] = [2]uint32{start, uint32(l.buf.Len())} //nolint:gosec // test sizes
}

func build(path string, decls []*N) (*tree.Unit, *source.FileSet, error) {
	root := mk(tree.KindUnit, decls...)
	l := &layout{spans: make(map[*N][2]uint32)}
	l.emit(root)

	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(path, l.buf.Bytes()))
	b := tree.NewBuilder(file)
	ids := make(map[*N]tree.NodeID)

	var push func(n *N) tree.NodeID
	push = func(n *N) tree.NodeID {
		node := n.node
		node.Children = make([]tree.NodeID, 0, len(n.kids))
		for _, k := range n.kids {
			if k.comment != "" {
				sp := l.spans[k]
				b.AddComment(b.Span(sp[0], sp[1]), k.comment)
				continue
			}
			node.Children = append(node.Children, push(k))
		}
		ref := func(r *N) tree.NodeID {
			if r == nil {
				return tree.NoNodeID
			}
			return ids[r]
		}
		node.Cond, node.Body, node.Else, node.X, node.Y = ref(n.cond), ref(n.body), ref(n.els), ref(n.x), ref(n.y)
		sp := l.spans[n]
		node.Span = b.Span(sp[0], sp[1])
		id := b.Push(node)
		ids[n] = id
		return id
	}
	u, err := b.Finish(push(root))
	return u, fs, err
}
