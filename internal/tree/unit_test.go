package tree_test

import (
	"errors"
	"testing"

	"lintel/internal/source"
	"lintel/internal/tree"
	tt "lintel/internal/tree/treetest"
)

func sample(t *testing.T) *tree.Unit {
	t.Helper()
	u, _ := tt.MustBuild(t, "Sample.java",
		tt.Class("Sample",
			tt.Method("run", tt.Block(
				tt.If(tt.And(tt.Ident("a"), tt.Ident("b")), tt.Block(tt.Return(nil)), nil),
			), tt.Param("int", "a")).With(tree.ModPublic),
		).With(tree.ModFinal),
	)
	return u
}

func TestUnitNavigation(t *testing.T) {
	u := sample(t)

	cls := tt.Find(u, tree.KindClass, "Sample")
	m := tt.Find(u, tree.KindMethod, "run")
	ifs := tt.Find(u, tree.KindIf, "")
	ret := tt.Find(u, tree.KindReturn, "")
	if !cls.IsValid() || !m.IsValid() || !ifs.IsValid() || !ret.IsValid() {
		t.Fatalf("lookup failed: class=%d method=%d if=%d return=%d", cls, m, ifs, ret)
	}

	if !u.IsAncestor(m, ret) || !u.IsAncestor(u.Root(), ret) {
		t.Error("return not under its method")
	}
	if !u.IsAncestor(cls, ret) || u.IsAncestor(ret, cls) {
		t.Error("IsAncestor mismatch")
	}
	if u.Depth(u.Root()) != 0 || u.Depth(cls) != 1 {
		t.Errorf("depths: root=%d class=%d", u.Depth(u.Root()), u.Depth(cls))
	}

	if !u.Modifiers(cls).Has(tree.ModFinal) || !u.Modifiers(m).Has(tree.ModPublic) {
		t.Error("modifiers not attached")
	}
	if ps := u.Params(m); len(ps) != 1 || u.Node(ps[0]).Text != "a" {
		t.Errorf("Params = %v", ps)
	}
	n := u.Node(ifs)
	if u.Kind(n.Cond) != tree.KindBinary || u.Node(n.Cond).Op != tree.OpAndAnd {
		t.Errorf("if condition = %s", u.Kind(n.Cond))
	}
	if n.Else.IsValid() {
		t.Error("unexpected else branch")
	}
}

func TestCovering(t *testing.T) {
	u := sample(t)
	ret := tt.Find(u, tree.KindReturn, "")
	sp := u.Node(ret).Span

	if got := u.Covering(sp); got != ret {
		t.Errorf("Covering = %d, want %d", got, ret)
	}
	wide := source.Span{File: sp.File, Start: sp.Start - 1, End: sp.End}
	if got := u.Covering(wide); u.Kind(got) != tree.KindBlock {
		t.Errorf("Covering(wider) = %s, want Block", u.Kind(got))
	}
}

func TestLocationIsOneBased(t *testing.T) {
	u := sample(t)
	loc := u.Location(u.Node(tt.Find(u, tree.KindClass, "Sample")).Span)
	if loc.Path != "Sample.java" {
		t.Errorf("path = %q", loc.Path)
	}
	if loc.Start.Line != 2 || loc.Start.Col != 1 {
		t.Errorf("class starts at %+v, want 2:1", loc.Start)
	}
	if loc.End.Line <= loc.Start.Line {
		t.Errorf("class ends at %+v", loc.End)
	}
}

func TestEqual(t *testing.T) {
	u, _ := tt.MustBuild(t, "Eq.java", tt.Class("Eq",
		tt.Method("m", tt.Block(
			tt.Expr(tt.And(tt.Bin(">", tt.Ident("a"), tt.Ident("b")), tt.Bin(">", tt.Ident("a"), tt.Ident("b")))),
			tt.Expr(tt.Bin(">", tt.Ident("a"), tt.Ident("c"))),
		)),
	))
	var cmps []tree.NodeID
	u.Walk(u.Root(), func(id tree.NodeID) bool {
		if n := u.Node(id); n.Kind == tree.KindBinary && n.Op == tree.OpGt {
			cmps = append(cmps, id)
		}
		return true
	})
	if len(cmps) != 3 {
		t.Fatalf("found %d comparisons", len(cmps))
	}
	if !u.Equal(cmps[0], cmps[1]) {
		t.Error("a > b should equal a > b")
	}
	if u.Equal(cmps[0], cmps[2]) {
		t.Error("a > b should differ from a > c")
	}
}

func TestFinishRejectsBadSpans(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("Bad.java", []byte("class Bad {}")))
	b := tree.NewBuilder(file)
	child := b.Push(tree.Node{Kind: tree.KindIdent, Span: b.Span(0, 12), Text: "x"})
	root := b.Push(tree.Node{Kind: tree.KindUnit, Span: b.Span(2, 12), Children: []tree.NodeID{child}})

	_, err := b.Finish(root)
	if !errors.Is(err, tree.ErrInvalidTree) {
		t.Fatalf("want ErrInvalidTree, got %v", err)
	}
}

func TestFinishRejectsSharedChild(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("Bad.java", []byte("x")))
	b := tree.NewBuilder(file)
	leaf := b.Push(tree.Node{Kind: tree.KindIdent, Span: b.Span(0, 1)})
	mid := b.Push(tree.Node{Kind: tree.KindExprStmt, Span: b.Span(0, 1), Children: []tree.NodeID{leaf}})
	root := b.Push(tree.Node{Kind: tree.KindUnit, Span: b.Span(0, 1), Children: []tree.NodeID{mid, leaf}})

	if _, err := b.Finish(root); !errors.Is(err, tree.ErrInvalidTree) {
		t.Fatalf("want ErrInvalidTree for shared child, got %v", err)
	}
}

func TestFinishRejectsUnreachable(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("Bad.java", []byte("xy")))
	b := tree.NewBuilder(file)
	b.Push(tree.Node{Kind: tree.KindIdent, Span: b.Span(0, 1)})
	root := b.Push(tree.Node{Kind: tree.KindUnit, Span: b.Span(0, 2)})

	if _, err := b.Finish(root); !errors.Is(err, tree.ErrInvalidTree) {
		t.Fatalf("want ErrInvalidTree for orphan, got %v", err)
	}
}

func TestKindNames(t *testing.T) {
	for k := tree.KindInvalid; k < tree.KindCount; k++ {
		if k.String() == "" {
			t.Errorf("kind %d has no name", k)
		}
	}
	if !tree.KindIf.IsStmt() || tree.KindIf.IsExpr() || !tree.KindCall.IsExpr() || !tree.KindMethod.IsDecl() {
		t.Error("kind categories are wrong")
	}
	set := tree.Kinds(tree.KindIf, tree.KindWhile)
	if !set.Has(tree.KindIf) || set.Has(tree.KindFor) || set.Empty() {
		t.Error("KindSet membership broken")
	}
}

func TestOpRoundTrip(t *testing.T) {
	for _, sym := range []string{"&&", "||", "==", "!=", ">>>=", "!", "instanceof"} {
		op := tree.ParseOp(sym)
		if sym == "instanceof" {
			if op != tree.OpNone {
				t.Errorf("ParseOp(%q) = %v", sym, op)
			}
			continue
		}
		if op.String() != sym {
			t.Errorf("ParseOp(%q).String() = %q", sym, op.String())
		}
	}
	if !tree.OpAndAnd.IsLogical() || tree.OpAnd.IsLogical() || !tree.OpXor.IsBitwiseLogical() {
		t.Error("operator classes are wrong")
	}
	if tree.ParseModifier("non-sealed") != tree.ModNonSealed || (tree.ModFinal|tree.ModSealed).String() != "final sealed" {
		t.Error("modifier table broken")
	}
}
