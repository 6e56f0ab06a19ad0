package metadb

import "testing"

func TestFormatFormula(t *testing.T) {
	userValue := &Expression{Kind: ExprUserValue}
	two := &Expression{Kind: ExprConstant, Constant: 2}

	cases := []struct {
		name string
		expr *Expression
		want string
	}{
		{"user value", userValue, "$$"},
		{"constant", two, "2"},
		{
			"sum",
			&Expression{Kind: ExprSum, Operands: []*Expression{userValue, two}},
			"($$+2)",
		},
		{
			"sub always parenthesized",
			&Expression{Kind: ExprSub, Operands: []*Expression{userValue, two}},
			"($$-2)",
		},
		{
			"neg always parenthesized",
			&Expression{Kind: ExprNeg, Operands: []*Expression{userValue}},
			"-($$)",
		},
		{
			"nested sum keeps its own parens under prod",
			&Expression{Kind: ExprProd, Operands: []*Expression{
				&Expression{Kind: ExprSum, Operands: []*Expression{userValue, two}},
				two,
			}},
			"(($$+2)*2)",
		},
		{
			"sqrt call",
			&Expression{Kind: ExprSqrt, Operands: []*Expression{userValue}},
			"sqrt($$)",
		},
		{
			"min call with two args",
			&Expression{Kind: ExprMin, Operands: []*Expression{userValue, two}},
			"min($$,2)",
		},
		{
			"pow always parenthesized",
			&Expression{Kind: ExprPow, Operands: []*Expression{userValue, two}},
			"($$^2)",
		},
		{
			"max of sum and neg-ln, per the §4.F scenario",
			&Expression{Kind: ExprMax, Operands: []*Expression{
				&Expression{Kind: ExprSum, Operands: []*Expression{userValue, &Expression{Kind: ExprConstant, Constant: 3}}},
				&Expression{Kind: ExprNeg, Operands: []*Expression{
					&Expression{Kind: ExprLn, Operands: []*Expression{two}},
				}},
			}},
			"max(($$+3),-(ln(2)))",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatFormula(c.expr); got != c.want {
				t.Errorf("FormatFormula(%s) = %q, want %q", c.name, got, c.want)
			}
		})
	}
}

func TestFormatFormulaPanicsOnUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unhandled expression kind")
		}
	}()
	FormatFormula(&Expression{Kind: ExpressionKind(200)})
}
