package graph

import "testing"

func TestCreateTypeIsIdempotent(t *testing.T) {
	f := NewFactory()
	a := f.CreateType("Lfoo/Bar;")
	b := f.CreateType("Lfoo/Bar;")
	if a != b {
		t.Fatalf("expected same handle for equal descriptors, got distinct pointers")
	}
	if !a.IsClass() {
		t.Fatalf("expected Lfoo/Bar; to classify as a class type")
	}
}

func TestCreateMethodDistinguishesOverloads(t *testing.T) {
	f := NewFactory()
	holder := f.CreateType("Lfoo/Bar;")
	name := f.CreateString([]byte("m"))
	retV := f.CreateString([]byte("V"))
	intType := f.CreateType("I")
	p1 := f.CreateProto(retV, nil)
	p2 := f.CreateProto(retV, []*Type{intType})

	m1 := f.CreateMethod(holder, name, p1)
	m2 := f.CreateMethod(holder, name, p2)
	if m1 == m2 {
		t.Fatalf("expected distinct MethodRef for distinct protos")
	}
	m1again := f.CreateMethod(holder, name, p1)
	if m1 != m1again {
		t.Fatalf("expected CreateMethod to be idempotent")
	}
}

func TestDefinitionForMissingClassIsNilNotError(t *testing.T) {
	f := NewFactory()
	missing := f.CreateType("Lnot/Defined;")
	if got := f.DefinitionFor(missing); got != nil {
		t.Fatalf("expected nil definition for undefined type, got %v", got)
	}
}

func TestSubtypeIndexDirectEdges(t *testing.T) {
	f := NewFactory()
	object := f.CreateType("Ljava/lang/Object;")
	base := f.CreateType("Lfoo/Base;")
	derived := f.CreateType("Lfoo/Derived;")
	iface := f.CreateType("Lfoo/Iface;")

	baseClass := &Class{Type: base, SuperType: object}
	derivedClass := &Class{Type: derived, SuperType: base, Interfaces: []*Type{iface}}
	f.DefineClass(baseClass)
	f.DefineClass(derivedClass)

	idx := BuildSubtypeIndex(f, []*Class{baseClass, derivedClass})
	subs := idx.DirectExtendsSubtypes(base)
	if len(subs) != 1 || subs[0] != derived {
		t.Fatalf("expected derived as sole direct extends-subtype of base, got %v", subs)
	}
	impls := idx.DirectImplementsSubtypes(iface)
	if len(impls) != 1 || impls[0] != derived {
		t.Fatalf("expected derived as sole direct implements-subtype of iface, got %v", impls)
	}
}
