package dex

import (
	"testing"

	"github.com/mabhi256/r8shrink/internal/graph"
)

func noRefs(*graph.Class) ([]*graph.MethodRef, []*graph.FieldRef, []*graph.Type) {
	return nil, nil, nil
}

func TestFilePerClassOneDexPerClass(t *testing.T) {
	f := graph.NewFactory()
	a := &graph.Class{Type: f.CreateType("LA;")}
	b := &graph.Class{Type: f.CreateType("LB;")}
	d := NewDistributor(ModeFilePerClass, noRefs, nil, false, nil)
	files, err := d.Distribute([]*graph.Class{a, b})
	if err != nil {
		t.Fatalf("distribute failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 virtual files, got %d", len(files))
	}
}

func TestMonoDexCapacityError(t *testing.T) {
	f := graph.NewFactory()
	holder := f.CreateType("LBig;")
	proto := f.CreateProto(f.CreateString([]byte("V")), nil)

	var methods []*graph.MethodRef
	for i := 0; i < MaxMethodRefs+1; i++ {
		name := f.CreateString([]byte(identifierFor(i)))
		methods = append(methods, f.CreateMethod(holder, name, proto))
	}
	big := &graph.Class{Type: holder}

	refsOf := func(c *graph.Class) ([]*graph.MethodRef, []*graph.FieldRef, []*graph.Type) {
		if c == big {
			return methods, nil, nil
		}
		return nil, nil, nil
	}
	d := NewDistributor(ModeMonoDex, refsOf, nil, false, nil)
	_, err := d.Distribute([]*graph.Class{big})
	if err == nil {
		t.Fatalf("expected capacity error naming the exceeding DEX")
	}
}

func identifierFor(i int) string {
	b := []byte{byte('a' + i%26), byte('a' + (i/26)%26), byte('a' + (i/676)%26), byte('a' + (i/17576)%26)}
	return string(b)
}

func TestDistributeIDsAreContiguous(t *testing.T) {
	f := graph.NewFactory()
	classes := []*graph.Class{
		{Type: f.CreateType("LA;")},
		{Type: f.CreateType("LB;")},
		{Type: f.CreateType("LC;")},
	}
	d := NewDistributor(ModeFilePerClass, noRefs, nil, false, nil)
	files, err := d.Distribute(classes)
	if err != nil {
		t.Fatalf("distribute failed: %v", err)
	}
	for i, vf := range files {
		if vf.ID != i {
			t.Fatalf("expected contiguous dex ids 0..n-1, got id %d at position %d", vf.ID, i)
		}
	}
}
