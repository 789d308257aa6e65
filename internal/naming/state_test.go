package naming

import "testing"

func TestInternalStateAvoidsCollisionsWithParent(t *testing.T) {
	root := newInternalState(nil, nil)
	root.reserveName("a")
	child := root.createChild()

	name := child.getNameFor("original", true)
	if name == "a" {
		t.Fatalf("expected child allocation to skip a name reserved by parent")
	}
}

func TestGetNameForIsIdempotent(t *testing.T) {
	s := newInternalState(nil, nil)
	first := s.getNameFor("x", true)
	second := s.getNameFor("x", true)
	if first != second {
		t.Fatalf("expected repeated getNameFor for the same original to return the same name, got %q and %q", first, second)
	}
}

func TestNumberToIdentifierSequence(t *testing.T) {
	cases := map[int]string{1: "a", 2: "b", 26: "z", 27: "aa", 28: "ab"}
	for n, want := range cases {
		if got := numberToIdentifier(n); got != want {
			t.Errorf("numberToIdentifier(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestNamingStateChainLookup(t *testing.T) {
	type proto = string
	root := NewRootNamingState[proto](nil)
	root.ReserveName("taken", "p()V")
	child := root.CreateChild()

	if !child.IsReserved("taken", "p()V") {
		t.Fatalf("expected child to see a name reserved in its parent")
	}
	if child.IsReserved("taken", "q()V") {
		t.Fatalf("reservation must be scoped per-proto")
	}
}
