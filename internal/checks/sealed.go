package checks

import (
	"math/bits"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

func registerSealed(reg *rule.Registry) {
	reg.Register(rule.Descriptor{
		ID:               SealedSubtypeModifier,
		Inspector:        "sealed-hierarchy",
		Summary:          "direct subtype of a sealed type lacks final, sealed or non-sealed",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevError,
		Kinds:            tree.Kinds(tree.KindUnit),
		EnabledByDefault: true,
		New: func(s *rule.Setup) walk.Visitor {
			// the whole unit is needed, so check once on the way out
			return walk.Funcs{OnExit: func(c *walk.Context) { checkSealed(s, c.ID()) }}
		},
	})
}

const subtypeMods = tree.ModFinal | tree.ModSealed | tree.ModNonSealed

func checkSealed(s *rule.Setup, root tree.NodeID) {
	u := s.Unit
	var classes []tree.NodeID
	sealed := make(map[string]tree.NodeID)
	u.Walk(root, func(id tree.NodeID) bool {
		if u.Kind(id) == tree.KindClass {
			classes = append(classes, id)
			if u.Modifiers(id).Has(tree.ModSealed) {
				sealed[u.Node(id).Text] = id
			}
		}
		return true
	})
	if len(sealed) == 0 {
		return
	}
	for _, cls := range classes {
		n := u.Node(cls)
		for _, super := range n.Supers {
			parent, ok := sealed[simpleName(super)]
			if !ok || parent == cls {
				continue
			}
			checkSubtype(s, cls, parent)
		}
	}
}

func checkSubtype(s *rule.Setup, cls, parent tree.NodeID) {
	u := s.Unit
	n, pn := u.Node(cls), u.Node(parent)
	mods := u.Modifiers(cls) & subtypeMods
	if n.Flags.Has(tree.FlagRecord) || n.Flags.Has(tree.FlagEnum) {
		// implicitly final
		mods |= tree.ModFinal
	}
	switch count := bits.OnesCount32(uint32(mods)); {
	case count == 0:
		s.ReportNode(cls, "%s extends sealed %s and must be declared final, sealed or non-sealed", n.Text, pn.Text).
			WithNote(pn.Span, "sealed type declared here").
			WithData("sealed", pn.Text).
			Emit()
	case count > 1:
		s.ReportNode(cls, "%s combines modifiers %s; only one is allowed", n.Text, mods).
			WithData("sealed", pn.Text).
			Emit()
	}
	if len(pn.Permits) > 0 && !permitted(pn.Permits, n.Text) {
		s.ReportNode(cls, "%s is not permitted by sealed %s", n.Text, pn.Text).
			WithNote(pn.Span, "permits clause").
			WithData("sealed", pn.Text).
			Emit()
	}
}

func permitted(permits []string, name string) bool {
	for _, p := range permits {
		if simpleName(p) == name {
			return true
		}
	}
	return false
}
