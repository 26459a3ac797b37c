package checks_test

import (
	"testing"

	"lintel/internal/checks"
	"lintel/internal/tree"
	tt "lintel/internal/tree/treetest"
)

func TestSealedSubtypeModifier(t *testing.T) {
	decls := []*tt.N{
		tt.Class("Figure").With(tree.ModPublic | tree.ModSealed),
		tt.Class("Circle", tt.Field("float", "radius", nil)).With(tree.ModFinal).Extends("Figure"),
		tt.Class("Square").With(tree.ModNonSealed).Extends("Figure"),
		tt.Class("Rectangle").With(tree.ModSealed).Extends("Figure"),
		tt.Class("FilledRectangle").With(tree.ModFinal).Extends("Rectangle"),
		tt.Class("Triangle").Extends("Figure"),
		tt.Class("Point").Flag(tree.FlagRecord).Extends("Figure"),
		tt.Class("Plain").Extends("Object"),
	}
	diags := run(t, checks.SealedSubtypeModifier, nil, decls...)
	expectCount(t, diags, 1)
	if diags[0].Data["sealed"] != "Figure" || diags[0].Message != "Triangle extends sealed Figure and must be declared final, sealed or non-sealed" {
		t.Fatalf("unexpected %q %v", diags[0].Message, diags[0].Data)
	}
}

func TestSealedPermits(t *testing.T) {
	decls := []*tt.N{
		tt.Interface("Shape").With(tree.ModSealed).Permits("Circle"),
		tt.Class("Circle").With(tree.ModFinal).Extends("Shape"),
		tt.Class("Square").With(tree.ModFinal).Extends("Shape"),
		tt.Class("Both").With(tree.ModFinal | tree.ModNonSealed).Extends("shapes.Shape"),
	}
	diags := run(t, checks.SealedSubtypeModifier, nil, decls...)
	// Square is not permitted; Both is not permitted and has two modifiers
	expectCount(t, diags, 3)
}
