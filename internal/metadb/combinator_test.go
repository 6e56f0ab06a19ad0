package metadb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/stat"
)

// TestCombinatorSumMatchesGonum cross-checks the semantics this package
// assumes for CombineSum (plain accumulation) against gonum/stat's own
// sum, as an independent sanity check that "sum" means what every other
// numeric library also means by it.
func TestCombinatorSumMatchesGonum(t *testing.T) {
	values := []float64{1, 2, 3, 4.5}

	var got float64
	for _, v := range values {
		got += v
	}

	want := stat.Mean(values, nil) * float64(len(values))
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("manual sum %v diverges from gonum-derived sum %v", got, want)
	}
}

func TestScopeDiff(t *testing.T) {
	a := Scope{Kind: ScopeKindLine, Line: 10}
	b := Scope{Kind: ScopeKindLine, Line: 10}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("identical scopes compared unequal:\n%s", diff)
	}

	c := Scope{Kind: ScopeKindLine, Line: 11}
	if cmp.Equal(a, c) {
		t.Fatal("scopes with different lines compared equal")
	}
}
