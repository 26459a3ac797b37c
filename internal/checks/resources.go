package checks

import (
	"slices"
	"strings"

	"lintel/internal/cfg"
	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

const optStdStreamsOwned = "std_streams_owned"

func registerResources(reg *rule.Registry) {
	reg.Register(rule.Descriptor{
		ID:               ResourceLeak,
		Inspector:        "resource-closing",
		Summary:          "closeable resource is not closed on every path",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevWarning,
		Kinds:            tree.Kinds(tree.KindLocalVar, tree.KindAssign),
		EnabledByDefault: true,
		Options:          map[string]bool{optStdStreamsOwned: false},
		New:              newResourceLeak,
	})
}

var closeableTypes = map[string]bool{
	"Scanner":          true,
	"Formatter":        true,
	"RandomAccessFile": true,
	"ZipFile":          true,
	"JarFile":          true,
	"Socket":           true,
	"ServerSocket":     true,
	"DatagramSocket":   true,
	"Selector":         true,
	"PrintStream":      true,
	"PrintWriter":      true,
}

// in-memory streams own no OS resources
var memoryTypes = map[string]bool{
	"ByteArrayInputStream":  true,
	"ByteArrayOutputStream": true,
	"StringReader":          true,
	"StringWriter":          true,
	"CharArrayReader":       true,
	"CharArrayWriter":       true,
}

var closeableSuffixes = []string{"Stream", "Reader", "Writer", "Channel", "Socket"}

func isCloseableType(typ string) bool {
	name := simpleName(typ)
	if memoryTypes[name] {
		return false
	}
	if closeableTypes[name] {
		return true
	}
	for _, suf := range closeableSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// wrapsStdStream reports whether a constructor chain ends at System.in,
// System.out or System.err.
func wrapsStdStream(u *tree.Unit, id tree.NodeID) bool {
	n := u.Node(id)
	switch n.Kind {
	case tree.KindFieldAccess:
		if isIdent(u, n.X, "System") {
			switch n.Text {
			case "in", "out", "err":
				return true
			}
		}
	case tree.KindNew:
		for _, a := range n.Children {
			if wrapsStdStream(u, a) {
				return true
			}
		}
	}
	return false
}

func newResourceLeak(s *rule.Setup) walk.Visitor {
	u := s.Unit
	stdOwned := s.Option(optStdStreamsOwned)
	graphs := make(map[tree.NodeID]*cfg.Graph)
	return walk.Funcs{OnEnter: func(c *walk.Context) {
		n := c.Node()
		var name string
		var init tree.NodeID
		switch n.Kind {
		case tree.KindLocalVar:
			if n.Flags.Has(tree.FlagResource) {
				return
			}
			name, init = n.Text, n.X
		case tree.KindAssign:
			if n.Op != tree.OpAssign || u.Kind(n.X) != tree.KindIdent {
				return
			}
			name, init = u.Node(n.X).Text, n.Y
		}
		if !init.IsValid() || u.Kind(init) != tree.KindNew || !isCloseableType(u.Node(init).Type) {
			return
		}
		if !stdOwned && wrapsStdStream(u, init) {
			return
		}
		routine := c.EnclosingRoutine()
		if !routine.IsValid() {
			return
		}
		g := graphs[routine]
		if g == nil {
			g = cfg.Build(u, routine, cfg.Options{Exceptions: true})
			graphs[routine] = g
		}
		lk := leakCheck{u: u, g: g, name: name}
		if lk.stmt = lk.statement(c.ID(), routine); !lk.stmt.IsValid() {
			return
		}
		switch {
		case lk.reachesExit(false):
			s.ReportNode(c.ID(), "resource '%s' is not closed on every path; use try-with-resources or close it in finally", name).
				WithData("variable", name).
				WithData("path", "normal").
				Emit()
		case lk.reachesExit(true):
			s.ReportNode(c.ID(), "resource '%s' may leak on exceptional exit; use try-with-resources or close it in finally", name).
				WithData("variable", name).
				WithData("path", "exceptional").
				Emit()
		}
	}}
}

// leakCheck follows the routine's graph from the statement that acquires
// a resource. A path is done once it releases the resource: close() or
// closeQuietly(), a try-with-resources taking it, a return of it, or a
// hand-off to a field or wrapping constructor.
type leakCheck struct {
	u    *tree.Unit
	g    *cfg.Graph
	name string
	stmt tree.NodeID
}

// statement returns the nearest graph statement holding site.
func (lk *leakCheck) statement(site, routine tree.NodeID) tree.NodeID {
	for id := site; id.IsValid() && id != routine; id = lk.u.Parent(id) {
		if len(lk.g.BlocksOf(id)) > 0 {
			return id
		}
	}
	return tree.NoNodeID
}

// reachesExit reports whether some path from the acquisition gets to the
// exit with the resource still open. Exceptional edges are followed only
// when withExceptions is set; the acquiring statement's own failure never
// counts.
func (lk *leakCheck) reachesExit(withExceptions bool) bool {
	g := lk.g
	seen := make([]bool, len(g.Blocks))
	var work []cfg.BlockID
	follow := func(from cfg.BlockID) {
		blk := g.Blocks[from]
		for _, e := range g.Succs(from) {
			if e.Kind == cfg.EdgeExceptional && (!withExceptions || lk.ownFailure(blk.Throws)) {
				continue
			}
			if lk.isNullOn(blk.Cond, e.Kind) || seen[e.To] {
				continue
			}
			seen[e.To] = true
			work = append(work, e.To)
		}
	}

	for _, start := range g.BlocksOf(lk.stmt) {
		stmts := g.Blocks[start].Stmts
		at := slices.Index(stmts, lk.stmt)
		released, reacquired := lk.scan(stmts[at+1:])
		if reacquired {
			return true
		}
		if !released {
			follow(start)
		}
	}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if id == g.Exit {
			return true
		}
		released, reacquired := lk.scan(g.Blocks[id].Stmts)
		if reacquired {
			return true
		}
		if !released {
			follow(id)
		}
	}
	return false
}

func (lk *leakCheck) ownFailure(throws tree.NodeID) bool {
	return throws.IsValid() && (throws == lk.stmt || lk.u.IsAncestor(lk.stmt, throws))
}

// scan walks stmts in order. Meeting the acquisition again before a
// release means the previous resource is overwritten.
func (lk *leakCheck) scan(stmts []tree.NodeID) (released, reacquired bool) {
	for _, s := range stmts {
		if s == lk.stmt {
			return false, true
		}
		if lk.releases(s) {
			return true, false
		}
	}
	return false, false
}

func (lk *leakCheck) isVar(id tree.NodeID) bool { return isIdent(lk.u, id, lk.name) }

// isNullOn reports whether taking an edge of kind out of a block testing
// cond means the variable is null.
func (lk *leakCheck) isNullOn(cond tree.NodeID, kind cfg.EdgeKind) bool {
	n := lk.u.Node(cond)
	if n == nil || n.Kind != tree.KindBinary {
		return false
	}
	if !(lk.isVar(n.X) && isNull(lk.u, n.Y) || isNull(lk.u, n.X) && lk.isVar(n.Y)) {
		return false
	}
	return n.Op == tree.OpNe && kind == cfg.EdgeFalse || n.Op == tree.OpEq && kind == cfg.EdgeTrue
}

// releases checks one graph statement. Compound statements appear in the
// graph as markers ahead of their parts, so only their own header counts.
func (lk *leakCheck) releases(stmt tree.NodeID) bool {
	u := lk.u
	n := u.Node(stmt)
	switch n.Kind {
	case tree.KindTry:
		// try (existing) { ... }
		for _, c := range n.Children {
			if lk.isVar(c) {
				return true
			}
		}
		return false
	case tree.KindExprStmt, tree.KindLocalVar, tree.KindReturn, tree.KindThrow:
	default:
		return false
	}
	found := false
	u.Walk(stmt, func(id tree.NodeID) bool {
		x := u.Node(id)
		switch x.Kind {
		case tree.KindLambda, tree.KindClass:
			return false
		case tree.KindCall:
			switch x.Text {
			case "close":
				found = lk.isVar(x.X)
			case "closeQuietly":
				for _, a := range x.Children {
					if a != x.X && lk.isVar(a) {
						found = true
					}
				}
			}
		case tree.KindReturn:
			found = lk.isVar(x.X)
		case tree.KindAssign:
			found = u.Kind(x.X) == tree.KindFieldAccess && lk.isVar(x.Y)
		case tree.KindLocalVar:
			found = x.Flags.Has(tree.FlagResource) && lk.isVar(x.X)
		case tree.KindNew:
			if isCloseableType(x.Type) {
				for _, a := range x.Children {
					if lk.isVar(a) {
						found = true
					}
				}
			}
		}
		return !found
	})
	return found
}
