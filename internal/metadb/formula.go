package metadb

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFormula renders e as the infix textual formula the metrics section
// stores alongside each partial/statistic. Expression trees handed to the
// writer must already be flattened (see Expression); a node of any kind
// other than the ExpressionKind constants handled below (such as a
// subexpression or bare-variable leaf) indicates a model bug, not a
// recoverable formatting case, so it panics.
func FormatFormula(e *Expression) string {
	var b strings.Builder
	writeFormula(&b, e)
	return b.String()
}

// writeFormula applies the §4.F table: every operator emits its declared
// open token, its operands joined by its declared infix, and a closing
// `)` — unconditionally, regardless of where the node sits in the tree.
// There is no separate "does this need parens" step; each node's own
// wrapping is always emitted, so nesting composes for free.
func writeFormula(b *strings.Builder, e *Expression) {
	switch e.Kind {
	case ExprConstant:
		b.WriteString(strconv.FormatFloat(e.Constant, 'g', -1, 64))
	case ExprUserValue:
		b.WriteString("$$")
	case ExprSum:
		writeWrapped(b, "(", "+", e.Operands)
	case ExprSub:
		requireArity("sub", e.Operands, 2)
		writeWrapped(b, "(", "-", e.Operands)
	case ExprNeg:
		requireArity("neg", e.Operands, 1)
		b.WriteString("-(")
		writeFormula(b, e.Operands[0])
		b.WriteByte(')')
	case ExprProd:
		writeWrapped(b, "(", "*", e.Operands)
	case ExprDiv:
		requireArity("div", e.Operands, 2)
		writeWrapped(b, "(", "/", e.Operands)
	case ExprPow:
		requireArity("pow", e.Operands, 2)
		writeWrapped(b, "(", "^", e.Operands)
	case ExprSqrt:
		writeCall(b, "sqrt", e.Operands)
	case ExprLog:
		writeCall(b, "log", e.Operands)
	case ExprLn:
		writeCall(b, "ln", e.Operands)
	case ExprMin:
		writeCall(b, "min", e.Operands)
	case ExprMax:
		writeCall(b, "max", e.Operands)
	case ExprFloor:
		writeCall(b, "floor", e.Operands)
	case ExprCeil:
		writeCall(b, "ceil", e.Operands)
	default:
		panic(fmt.Sprintf("metadb: formula leaf of unhandled kind %d reached serializer", e.Kind))
	}
}

// writeWrapped emits open, then ops joined by infix, then a closing ')'.
func writeWrapped(b *strings.Builder, open, infix string, ops []*Expression) {
	b.WriteString(open)
	for i, o := range ops {
		if i > 0 {
			b.WriteString(infix)
		}
		writeFormula(b, o)
	}
	b.WriteByte(')')
}

// writeCall emits a named function call: name(op0,op1,...).
func writeCall(b *strings.Builder, name string, ops []*Expression) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, o := range ops {
		if i > 0 {
			b.WriteByte(',')
		}
		writeFormula(b, o)
	}
	b.WriteByte(')')
}

func requireArity(op string, ops []*Expression, n int) {
	if len(ops) != n {
		panic(fmt.Sprintf("metadb: %q formula node requires exactly %d operand(s), got %d", op, n, len(ops)))
	}
}
