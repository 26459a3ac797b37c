package cfg_test

import (
	"testing"

	"lintel/internal/cfg"
	"lintel/internal/tree"
	tt "lintel/internal/tree/treetest"
)

func printLine(x *tt.N) *tt.N {
	return tt.Expr(tt.Call(tt.Sel(tt.Ident("System"), "out"), "println", x))
}

func build(t *testing.T, method *tt.N, opts cfg.Options) (*tree.Unit, *cfg.Graph) {
	t.Helper()
	u, _ := tt.MustBuild(t, "Main.java", tt.Class("Main", method))
	id := tt.Find(u, tree.KindMethod, "")
	return u, cfg.Build(u, id, opts)
}

func scanner() *tt.N {
	return tt.Local("Scanner", "scanner", tt.New("Scanner", tt.Sel(tt.Ident("System"), "in")))
}

func printArmy() *tt.N {
	chain := tt.Block(printLine(tt.Str("legion")))
	limits := []string{"1000", "500", "250", "100", "50", "20", "10", "5", "1"}
	for _, l := range limits {
		chain = tt.If(tt.Bin("<", tt.Ident("p"), tt.Int(l)), tt.Block(printLine(tt.Str(l))), chain)
	}
	return tt.Method("printArmy", tt.Block(
		scanner(),
		tt.Local("int", "p", tt.Call(tt.Ident("scanner"), "nextInt")),
		chain,
	))
}

func checkTriangle() *tt.N {
	side := func(a, b, c string) *tt.N {
		return tt.Bin(">", tt.Bin("+", tt.Ident(a), tt.Ident(b)), tt.Ident(c))
	}
	return tt.Method("checkTriangle", tt.Block(
		scanner(),
		tt.Local("int", "a", tt.Call(tt.Ident("scanner"), "nextInt")),
		tt.If(tt.And(side("a", "b", "c"), side("b", "c", "a"), side("c", "a", "b")),
			tt.Block(printLine(tt.Ident("YES"))),
			tt.Block(printLine(tt.Ident("NO")))),
	))
}

func checkQueens() *tt.N {
	eq := func(a, b string) *tt.N { return tt.Bin("==", tt.Ident(a), tt.Ident(b)) }
	return tt.Method("checkQueens", tt.Block(
		tt.If(eq("num1", "num3"), tt.Block(printLine(tt.Ident("YES"))),
			tt.If(eq("num2", "num4"), tt.Block(printLine(tt.Ident("YES"))),
				tt.If(tt.Bin("==", tt.Call(tt.Ident("Math"), "abs", tt.Ident("d1")), tt.Call(tt.Ident("Math"), "abs", tt.Ident("d2"))),
					tt.Block(printLine(tt.Ident("NO"))),
					tt.Block(printLine(tt.Ident("NO")))))),
	))
}

func calculator() *tt.N {
	return tt.Method("calculator", tt.Block(
		scanner(),
		tt.Local("char", "op", tt.Call(tt.Ident("line"), "charAt", tt.Int("0"))),
		tt.Switch(tt.Ident("op"),
			tt.Case(tt.Str("+"), printLine(tt.Bin("+", tt.Ident("a"), tt.Ident("b"))), tt.Break()),
			tt.Case(tt.Str("-"), printLine(tt.Bin("-", tt.Ident("a"), tt.Ident("b"))), tt.Break()),
			tt.Case(tt.Str("*"), printLine(tt.Bin("*", tt.Ident("a"), tt.Ident("b"))), tt.Break()),
			tt.Case(tt.Str("/"),
				tt.If(tt.Bin("==", tt.Ident("b"), tt.Int("0")),
					tt.Block(printLine(tt.Str("Division by 0!"))),
					tt.Block(printLine(tt.Bin("/", tt.Ident("a"), tt.Ident("b"))))),
				tt.Break()),
			tt.Default(printLine(tt.Str("Unknown operator"))),
		),
	))
}

func TestComplexityOracles(t *testing.T) {
	tests := []struct {
		name   string
		method *tt.N
		opts   cfg.Options
		want   int
	}{
		{"printArmy", printArmy(), cfg.Options{}, 10},
		{"checkTriangle", checkTriangle(), cfg.Options{}, 4},
		{"checkQueens", checkQueens(), cfg.Options{}, 4},
		{"calculator/single", calculator(), cfg.Options{SwitchAsSingleDecision: true}, 3},
		{"calculator/labels", calculator(), cfg.Options{}, 6},
		{"single if", tt.Method("m", tt.Block(tt.If(tt.Ident("a"), tt.Block(), nil))), cfg.Options{}, 2},
		{"empty", tt.Method("m", tt.Block()), cfg.Options{}, 1},
		{"abstract", tt.Method("m", nil), cfg.Options{}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, g := build(t, tc.method, tc.opts)
			if got := g.Complexity(); got != tc.want {
				t.Fatalf("complexity = %d, want %d\n%s", got, tc.want, g)
			}
		})
	}
}

func TestBooleanOperatorsAddDecisions(t *testing.T) {
	// if (a && b && c > d || c < a && enabled)
	cond := tt.Or(
		tt.And(tt.Ident("a"), tt.Ident("b"), tt.Bin(">", tt.Ident("c"), tt.Ident("d"))),
		tt.And(tt.Bin("<", tt.Ident("c"), tt.Ident("a")), tt.Ident("enabled")),
	)
	_, g := build(t, tt.Method("m", tt.Block(tt.If(cond, tt.Block(), nil))), cfg.Options{})
	if got := g.Complexity(); got != 6 {
		t.Fatalf("complexity = %d, want 6\n%s", got, g)
	}
}

func TestShortCircuitOutsideConditions(t *testing.T) {
	m := tt.Method("m", tt.Block(
		tt.Local("boolean", "ok", tt.And(tt.Ident("a"), tt.Ident("b"))),
		tt.Return(tt.Ternary(tt.Ident("ok"), tt.Int("1"), tt.Int("2"))),
	))
	_, g := build(t, m, cfg.Options{})
	if got := g.DecisionPoints(); got != 2 {
		t.Fatalf("decision points = %d, want 2\n%s", got, g)
	}
}

func TestLoopsAndJumps(t *testing.T) {
	m := tt.Method("m", tt.Block(
		tt.While(tt.Ident("a"), tt.Block(
			tt.If(tt.Ident("b"), tt.Break(), nil),
			tt.If(tt.Ident("c"), tt.Continue(), nil),
		)),
		tt.DoWhile(tt.Block(tt.Expr(tt.Ident("x"))), tt.Ident("d")),
		tt.For(tt.Local("int", "i", tt.Int("0")), tt.Bin("<", tt.Ident("i"), tt.Int("3")), tt.Ident("i"), tt.Block()),
		tt.ForEach("String", "s", tt.Ident("xs"), tt.Block()),
	))
	_, g := build(t, m, cfg.Options{})
	// while, 2 ifs, do, for, foreach
	if got := g.Complexity(); got != 7 {
		t.Fatalf("complexity = %d, want 7\n%s", got, g)
	}
}

func TestTryCatchEdges(t *testing.T) {
	m := tt.Method("m", tt.Block(
		tt.Try(nil, tt.Block(tt.Expr(tt.Call(nil, "run"))),
			tt.Catch("IOException", "e", tt.Block(tt.Return(nil))),
			tt.Catch("RuntimeException", "e", tt.Block(tt.Throw(tt.Ident("e"))))).
			Finally(tt.Block(tt.Expr(tt.Call(nil, "done")))),
	))
	_, g := build(t, m, cfg.Options{})
	if got := g.DecisionPoints(); got != 2 {
		t.Fatalf("decision points = %d, want 2\n%s", got, g)
	}
	exc := 0
	for _, e := range g.Edges {
		if e.Kind == cfg.EdgeExceptional {
			exc++
		}
	}
	// two catches plus the throw
	if exc != 3 {
		t.Fatalf("exceptional edges = %d, want 3", exc)
	}
}

func TestLambdaIsOpaque(t *testing.T) {
	inner := tt.Lambda(tt.Block(tt.If(tt.Ident("x"), tt.Block(), nil)), tt.Param("int", "x"))
	m := tt.Method("m", tt.Block(tt.Expr(tt.Call(tt.Ident("list"), "forEach", inner))))
	u, g := build(t, m, cfg.Options{})
	if got := g.Complexity(); got != 1 {
		t.Fatalf("outer complexity = %d, want 1", got)
	}
	lam := tt.Find(u, tree.KindLambda, "")
	if got := cfg.Build(u, lam, cfg.Options{}).Complexity(); got != 2 {
		t.Fatalf("lambda complexity = %d, want 2", got)
	}
}

func TestEveryStatementInExactlyOneBlock(t *testing.T) {
	for _, m := range []*tt.N{printArmy(), checkTriangle(), calculator(), tt.Method("t", tt.Block(
		tt.Try([]*tt.N{tt.Resource("InputStream", "in", tt.New("FileInputStream", tt.Str("f")))},
			tt.Block(tt.Expr(tt.Call(tt.Ident("in"), "read"))),
			tt.Catch("IOException", "e", tt.Block())).Finally(tt.Block()),
	))} {
		u, g := build(t, m, cfg.Options{})
		seen := make(map[tree.NodeID]int)
		for _, b := range g.Blocks {
			for _, s := range b.Stmts {
				seen[s]++
			}
		}
		method := tt.Find(u, tree.KindMethod, "")
		u.Walk(u.Node(method).Body, func(id tree.NodeID) bool {
			k := u.Kind(id)
			if k == tree.KindLambda || k == tree.KindClass {
				return false
			}
			if k.IsStmt() || k == tree.KindLocalVar {
				if seen[id] != 1 {
					t.Errorf("%s: %s node %d in %d blocks", u.Node(method).Text, k, id, seen[id])
				}
			}
			return true
		})
	}
}

func TestIncrementalBuild(t *testing.T) {
	u, _ := tt.MustBuild(t, "A.java", tt.Class("A", tt.Method("m", tt.Block(
		tt.If(tt.Ident("a"), tt.Block(), nil),
		tt.While(tt.Ident("b"), tt.Block()),
	))))
	method := tt.Find(u, tree.KindMethod, "m")
	b := cfg.NewBuilder(u, method, cfg.Options{})
	for _, s := range u.Children(u.Node(method).Body) {
		b.AddStmt(s)
	}
	g := b.Finish()
	if got := g.Complexity(); got != 3 {
		t.Fatalf("complexity = %d, want 3", got)
	}
	if len(g.BlocksOf(tt.Find(u, tree.KindIf, ""))) != 1 {
		t.Fatal("if statement not placed")
	}
}

func countEdges(g *cfg.Graph, kind cfg.EdgeKind) int {
	n := 0
	for _, e := range g.Edges {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestExceptionsLeaveComplexityAlone(t *testing.T) {
	for _, m := range []*tt.N{printArmy(), checkTriangle(), calculator()} {
		_, plain := build(t, m, cfg.Options{})
		_, exc := build(t, m, cfg.Options{Exceptions: true})
		if countEdges(plain, cfg.EdgeExceptional) != 0 {
			t.Fatalf("plain graph has exceptional edges\n%s", plain)
		}
		if countEdges(exc, cfg.EdgeExceptional) == 0 {
			t.Fatalf("calls raise nothing\n%s", exc)
		}
	}
}

func TestExceptionsCopyFinally(t *testing.T) {
	done := tt.Expr(tt.Call(nil, "done"))
	m := tt.Method("m", tt.Block(
		tt.Try(nil, tt.Block(
			tt.If(tt.Ident("a"), tt.Return(nil), nil),
			tt.Expr(tt.Call(nil, "run")),
		)).Finally(tt.Block(done)),
	))
	u, g := build(t, m, cfg.Options{Exceptions: true})
	fin := tt.Find(u, tree.KindFinally, "")
	// normal, exceptional and the return
	if got := len(g.BlocksOf(fin)); got != 3 {
		t.Fatalf("finally copies = %d, want 3\n%s", got, g)
	}
	// run() and each done() raise
	if got := countEdges(g, cfg.EdgeExceptional); got < 2 {
		t.Fatalf("exceptional edges = %d\n%s", got, g)
	}
}

func TestExceptionsCatchDispatch(t *testing.T) {
	run := tt.Expr(tt.Call(nil, "run"))
	cases := []struct {
		name    string
		catch   string
		escapes bool
	}{
		{"narrow catch rethrows", "IOException", true},
		{"catch all", "Exception", false},
		{"multi catch with throwable", "IOException | Throwable", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := tt.Method("m", tt.Block(
				tt.Try(nil, tt.Block(run), tt.Catch(tc.catch, "e", tt.Block())),
			))
			u, g := build(t, m, cfg.Options{Exceptions: true})
			call := g.BlocksOf(tt.Find(u, tree.KindExprStmt, ""))
			if len(call) != 1 {
				t.Fatalf("call in %d blocks", len(call))
			}
			// run() -> dispatch -> (catch | exit)
			var dispatch cfg.BlockID = -1
			for _, e := range g.Succs(call[0]) {
				if e.Kind == cfg.EdgeExceptional {
					dispatch = e.To
				}
			}
			if dispatch < 0 {
				t.Fatalf("run() has no handler\n%s", g)
			}
			escapes := false
			for _, e := range g.Succs(dispatch) {
				if e.To == g.Exit {
					escapes = true
				}
			}
			if escapes != tc.escapes {
				t.Fatalf("escapes = %v, want %v\n%s", escapes, tc.escapes, g)
			}
		})
	}
}

func TestExceptionsBranchCondition(t *testing.T) {
	m := tt.Method("m", tt.Block(
		tt.If(tt.Bin("!=", tt.Ident("in"), tt.Null()), tt.Block(), nil),
	))
	u, g := build(t, m, cfg.Options{Exceptions: true})
	cond := u.Node(tt.Find(u, tree.KindIf, "")).Cond
	found := false
	for _, b := range g.Blocks {
		if b.Cond == cond {
			found = true
			if b.Throws.IsValid() {
				t.Fatal("comparison with null marked as throwing")
			}
		}
	}
	if !found {
		t.Fatalf("condition not recorded\n%s", g)
	}
}
