// Package cfg builds per-routine control-flow graphs from the syntax tree and
// derives cyclomatic complexity from them.
package cfg

import (
	"fmt"
	"strings"

	"lintel/internal/tree"
)

// BlockID indexes Graph.Blocks.
type BlockID int32

// EdgeKind tags a control transfer.
type EdgeKind uint8

const (
	EdgeSeq EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeExceptional
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSeq:
		return "seq"
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	case EdgeExceptional:
		return "exc"
	}
	return "?"
}

// BlockKind marks blocks with special roles.
type BlockKind uint8

const (
	BlockPlain BlockKind = iota
	BlockEntry
	BlockExit
	// BlockSwitch fans out to every case label of one switch.
	BlockSwitch
)

// Block is a basic block: a run of statements with a single entry.
type Block struct {
	ID    BlockID
	Kind  BlockKind
	Stmts []tree.NodeID
	Succs []int // indexes into Graph.Edges
	Preds []int
	// Cond is the condition tested by the true/false edges, if any.
	Cond tree.NodeID
	// Throws is the statement (or condition) whose failure the exceptional
	// out-edge models. Set only with Options.Exceptions.
	Throws tree.NodeID
}

type Edge struct {
	From BlockID
	To   BlockID
	Kind EdgeKind
}

// Graph is the CFG of one routine. Exit is the virtual sink that every
// return, throw and fall-off-the-end reaches.
type Graph struct {
	Routine tree.NodeID
	Blocks  []*Block
	Edges   []Edge
	Entry   BlockID
	Exit    BlockID

	switchAsSingle bool
}

// DecisionPoints sums the extra out-edges of every branching block.
// With SwitchAsSingleDecision a switch dispatch counts once.
func (g *Graph) DecisionPoints() int {
	n := 0
	for _, b := range g.Blocks {
		extra := len(b.Succs) - 1
		if extra <= 0 {
			continue
		}
		if b.Kind == BlockSwitch && g.switchAsSingle {
			extra = 1
		}
		n += extra
	}
	return n
}

// Complexity is DecisionPoints + 1.
func (g *Graph) Complexity() int {
	return g.DecisionPoints() + 1
}

// BlocksOf returns every block holding stmt. Without Options.Exceptions
// there is at most one; finally bodies are copied per exit path otherwise.
func (g *Graph) BlocksOf(stmt tree.NodeID) []BlockID {
	var out []BlockID
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if s == stmt {
				out = append(out, b.ID)
				break
			}
		}
	}
	return out
}

// Succs returns the successor blocks of id with their edge kinds.
func (g *Graph) Succs(id BlockID) []Edge {
	b := g.Blocks[id]
	out := make([]Edge, 0, len(b.Succs))
	for _, e := range b.Succs {
		out = append(out, g.Edges[e])
	}
	return out
}

// String dumps the graph, one block per line. Used in tests and traces.
func (g *Graph) String() string {
	var sb strings.Builder
	for _, b := range g.Blocks {
		fmt.Fprintf(&sb, "b%d", b.ID)
		switch b.Kind {
		case BlockEntry:
			sb.WriteString("(entry)")
		case BlockExit:
			sb.WriteString("(exit)")
		case BlockSwitch:
			sb.WriteString("(switch)")
		}
		fmt.Fprintf(&sb, " stmts=%d ->", len(b.Stmts))
		for _, e := range b.Succs {
			fmt.Fprintf(&sb, " b%d:%s", g.Edges[e].To, g.Edges[e].Kind)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
