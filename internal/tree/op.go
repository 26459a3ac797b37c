package tree

// Op is an operator symbol carried by Binary, Unary and Assign nodes.
type Op uint8

const (
	OpNone Op = iota
	OpAndAnd
	OpOrOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUShr
	OpNot
	OpBitNot
	OpInc
	OpDec
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign
	OpUShrAssign
)

var opSymbols = [...]string{
	OpNone:       "",
	OpAndAnd:     "&&",
	OpOrOr:       "||",
	OpEq:         "==",
	OpNe:         "!=",
	OpLt:         "<",
	OpLe:         "<=",
	OpGt:         ">",
	OpGe:         ">=",
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "/",
	OpRem:        "%",
	OpAnd:        "&",
	OpOr:         "|",
	OpXor:        "^",
	OpShl:        "<<",
	OpShr:        ">>",
	OpUShr:       ">>>",
	OpNot:        "!",
	OpBitNot:     "~",
	OpInc:        "++",
	OpDec:        "--",
	OpAssign:     "=",
	OpAddAssign:  "+=",
	OpSubAssign:  "-=",
	OpMulAssign:  "*=",
	OpDivAssign:  "/=",
	OpRemAssign:  "%=",
	OpAndAssign:  "&=",
	OpOrAssign:   "|=",
	OpXorAssign:  "^=",
	OpShlAssign:  "<<=",
	OpShrAssign:  ">>=",
	OpUShrAssign: ">>>=",
}

func (op Op) String() string {
	if int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return "?"
}

// ParseOp returns the operator for a symbol, or OpNone.
// Unary minus and plus share their binary symbols.
func ParseOp(sym string) Op {
	for i, s := range opSymbols {
		if i != 0 && s == sym {
			return Op(i) //nolint:gosec // table is small
		}
	}
	return OpNone
}

// IsLogical reports whether op is a short-circuit boolean operator.
func (op Op) IsLogical() bool {
	return op == OpAndAnd || op == OpOrOr
}

// IsBitwiseLogical reports the non-short-circuit operators that also combine booleans.
func (op Op) IsBitwiseLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}
