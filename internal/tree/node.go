package tree

import (
	"strings"

	"lintel/internal/source"
)

// NodeID addresses a node inside its Unit. Zero means "no node".
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Node is one tagged-variant tree node. Which attribute fields are meaningful
// depends on Kind; reference fields (Cond, Body, Else, X, Y) always point at
// nodes that are also listed in Children.
type Node struct {
	Kind     Kind
	Span     source.Span
	Parent   NodeID
	Children []NodeID

	Text    string   // name, identifier, literal text, called method
	Type    string   // declared or referenced type
	Op      Op       // Binary, Unary, Assign
	Lit     LitKind  // Literal
	Mods    Modifier // Modifiers
	Flags   Flags
	Supers  []string // Class: direct supertypes (extends, then implements)
	Permits []string // Class: permits clause

	Cond NodeID
	Body NodeID
	Else NodeID
	X    NodeID
	Y    NodeID
}

// Flags carries boolean attributes of a node.
type Flags uint16

const (
	FlagInterface   Flags = 1 << iota // Class
	FlagRecord                        // Class
	FlagEnum                          // Class
	FlagConstructor                   // Method
	FlagResource                      // LocalVar/Ident declared in a try-with-resources header
	FlagDefault                       // SwitchCase: default label
	FlagArrow                         // SwitchCase / Switch: arrow form, no fallthrough
	FlagVarArgs                       // Param
	FlagPostfix                       // Unary
	FlagSwitchExpr                    // Switch used as an expression
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// LitKind classifies literals.
type LitKind uint8

const (
	LitOther LitKind = iota
	LitBool
	LitNull
	LitString
	LitChar
	LitNumber
)

// Modifier is a bitset of declaration modifiers.
type Modifier uint32

const (
	ModPublic Modifier = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModFinal
	ModAbstract
	ModSealed
	ModNonSealed
	ModDefault
	ModSynchronized
	ModNative
	ModTransient
	ModVolatile
	ModStrictfp
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModAbstract, "abstract"},
	{ModSealed, "sealed"},
	{ModNonSealed, "non-sealed"},
	{ModDefault, "default"},
	{ModSynchronized, "synchronized"},
	{ModNative, "native"},
	{ModTransient, "transient"},
	{ModVolatile, "volatile"},
	{ModStrictfp, "strictfp"},
}

// ParseModifier maps a keyword to its bit. Unknown words yield 0.
func ParseModifier(word string) Modifier {
	for _, m := range modifierNames {
		if m.name == word {
			return m.mod
		}
	}
	return 0
}

func (m Modifier) Has(mod Modifier) bool { return m&mod != 0 }

func (m Modifier) String() string {
	var parts []string
	for _, n := range modifierNames {
		if m&n.mod != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}
