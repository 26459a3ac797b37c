package tree

import "fmt"

// Kind tags the variant of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota

	// объявления
	KindUnit
	KindClass
	KindMethod
	KindField
	KindParam
	KindLocalVar
	KindModifiers
	KindAnnotation

	// операторы
	KindBlock
	KindIf
	KindFor
	KindForEach
	KindWhile
	KindDoWhile
	KindSwitch
	KindSwitchCase
	KindTry
	KindCatch
	KindFinally
	KindReturn
	KindBreak
	KindContinue
	KindThrow
	KindExprStmt
	KindOtherStmt

	// выражения
	KindBinary
	KindUnary
	KindLiteral
	KindIdent
	KindCall
	KindNew
	KindInstanceOf
	KindTernary
	KindLambda
	KindAssign
	KindFieldAccess
	KindCast
	KindOtherExpr

	KindCount
)

var kindNames = [...]string{
	KindInvalid:     "Invalid",
	KindUnit:        "Unit",
	KindClass:       "Class",
	KindMethod:      "Method",
	KindField:       "Field",
	KindParam:       "Param",
	KindLocalVar:    "LocalVar",
	KindModifiers:   "Modifiers",
	KindAnnotation:  "Annotation",
	KindBlock:       "Block",
	KindIf:          "If",
	KindFor:         "For",
	KindForEach:     "ForEach",
	KindWhile:       "While",
	KindDoWhile:     "DoWhile",
	KindSwitch:      "Switch",
	KindSwitchCase:  "SwitchCase",
	KindTry:         "Try",
	KindCatch:       "Catch",
	KindFinally:     "Finally",
	KindReturn:      "Return",
	KindBreak:       "Break",
	KindContinue:    "Continue",
	KindThrow:       "Throw",
	KindExprStmt:    "ExprStmt",
	KindOtherStmt:   "OtherStmt",
	KindBinary:      "Binary",
	KindUnary:       "Unary",
	KindLiteral:     "Literal",
	KindIdent:       "Ident",
	KindCall:        "Call",
	KindNew:         "New",
	KindInstanceOf:  "InstanceOf",
	KindTernary:     "Ternary",
	KindLambda:      "Lambda",
	KindAssign:      "Assign",
	KindFieldAccess: "FieldAccess",
	KindCast:        "Cast",
	KindOtherExpr:   "OtherExpr",
}

// Adding a Kind without a name (or the reverse) breaks the build here.
const (
	_ uint = uint(len(kindNames)) - uint(KindCount)
	_ uint = uint(KindCount) - uint(len(kindNames))
)

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsDecl reports whether k declares a named entity.
func (k Kind) IsDecl() bool {
	switch k {
	case KindClass, KindMethod, KindField, KindParam, KindLocalVar:
		return true
	}
	return false
}

// IsStmt reports whether k is a statement kind.
func (k Kind) IsStmt() bool {
	return k >= KindBlock && k <= KindOtherStmt
}

// IsExpr reports whether k is an expression kind.
func (k Kind) IsExpr() bool {
	return k >= KindBinary && k <= KindOtherExpr
}

// IsRoutine reports whether k owns an independently analyzed body.
func (k Kind) IsRoutine() bool {
	return k == KindMethod || k == KindLambda
}

// KindSet is a fixed-size membership table over all kinds.
type KindSet [KindCount]bool

// Kinds builds a set from the listed kinds.
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// AllKinds returns a set that contains every valid kind.
func AllKinds() KindSet {
	var s KindSet
	for k := KindInvalid + 1; k < KindCount; k++ {
		s[k] = true
	}
	return s
}

func (s *KindSet) Has(k Kind) bool {
	return k < KindCount && s[k]
}

// Empty reports whether no kind is set.
func (s *KindSet) Empty() bool {
	for _, v := range s {
		if v {
			return false
		}
	}
	return true
}
