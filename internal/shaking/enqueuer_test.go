package shaking

import (
	"testing"

	"github.com/go-logr/logr"

	"github.com/mabhi256/r8shrink/internal/graph"
	"github.com/mabhi256/r8shrink/internal/keepconfig"
)

// buildFooBar constructs class Foo { void a(){} void b(){} }, class Bar
// extends Foo { void a(){} }, with -keep class Bar { *; }.
func buildFooBar(f *graph.Factory) (foo, bar *graph.Class) {
	object := f.CreateType("Ljava/lang/Object;")
	fooT := f.CreateType("LFoo;")
	barT := f.CreateType("LBar;")
	voidRet := f.CreateString([]byte("V"))
	proto := f.CreateProto(voidRet, nil)

	aName := f.CreateString([]byte("a"))
	bName := f.CreateString([]byte("b"))

	fooA := &graph.EncodedMethod{Ref: f.CreateMethod(fooT, aName, proto)}
	fooB := &graph.EncodedMethod{Ref: f.CreateMethod(fooT, bName, proto)}
	foo = &graph.Class{Type: fooT, SuperType: object, VirtualMethods: []*graph.EncodedMethod{fooA, fooB}}

	barA := &graph.EncodedMethod{Ref: f.CreateMethod(barT, aName, proto)}
	bar = &graph.Class{Type: barT, SuperType: fooT, VirtualMethods: []*graph.EncodedMethod{barA}}

	f.DefineClass(&graph.Class{Type: object, Origin: graph.OriginLibrary})
	f.DefineClass(foo)
	f.DefineClass(bar)
	return foo, bar
}

func TestEnqueuerScenarioA(t *testing.T) {
	f := graph.NewFactory()
	foo, bar := buildFooBar(f)
	idx := graph.BuildSubtypeIndex(f, []*graph.Class{foo, bar})

	rs := newRootSet()
	rs.NoShrinking[OfClass(bar)] = true

	e := NewEnqueuer(f, idx, rs, false, nil, logr.Discard())
	info, err := e.Run([]*graph.Class{foo, bar})
	if err != nil {
		t.Fatalf("enqueuer run failed: %v", err)
	}

	fooLive := false
	for _, tp := range info.LiveTypes {
		if tp == foo.Type {
			fooLive = true
		}
	}
	if !fooLive {
		t.Fatalf("expected Foo to survive as Bar's supertype")
	}
}

func TestEnqueuerVirtualDispatchReachesOverride(t *testing.T) {
	f := graph.NewFactory()
	foo, bar := buildFooBar(f)
	idx := graph.BuildSubtypeIndex(f, []*graph.Class{foo, bar})

	voidRet := f.CreateString([]byte("V"))
	proto := f.CreateProto(voidRet, nil)
	aName := f.CreateString([]byte("a"))
	fooARef := f.CreateMethod(foo.Type, aName, proto)

	caller := &graph.EncodedMethod{
		Ref: f.CreateMethod(bar.Type, f.CreateString([]byte("run")), proto),
		Code: &graph.Code{Instructions: []graph.Instruction{
			{Opcode: graph.OpNewInstance, Operands: []graph.Operand{{Type: bar.Type}}},
			{Opcode: graph.OpInvokeVirtual, Operands: []graph.Operand{{Method: fooARef}}},
		}},
	}
	bar.DirectMethods = append(bar.DirectMethods, caller)

	rs := newRootSet()
	rs.NoShrinking[OfMethod(caller)] = true

	e := NewEnqueuer(f, idx, rs, false, nil, logr.Discard())
	info, err := e.Run([]*graph.Class{foo, bar})
	if err != nil {
		t.Fatalf("enqueuer run failed: %v", err)
	}

	barAName := bar.VirtualMethods[0].Ref.Name.String()
	found := false
	for _, m := range info.LiveMethods {
		if m.Ref.Holder == bar.Type && m.Ref.Name.String() == barAName {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Bar.a to become live once Bar is instantiated and Foo.a is invoked virtually")
	}
}

func TestRootSetBuilderKeepClassMembersDoesNotKeepClass(t *testing.T) {
	f := graph.NewFactory()
	foo, _ := buildFooBar(f)
	cfg := &keepconfig.Configuration{}
	p := keepconfig.NewParser("test.pro", "-keepclassmembers class Foo {\n  *;\n}\n", nil)
	if err := p.Parse(cfg); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	b := NewRootSetBuilder(f, []*graph.Class{foo}, cfg, logr.Discard())
	rs, err := b.Run()
	if err != nil {
		t.Fatalf("root-set build failed: %v", err)
	}
	if rs.NoShrinking[OfClass(foo)] {
		t.Fatalf("-keepclassmembers must not keep the class itself")
	}
	if !rs.NoShrinking[OfMethod(foo.VirtualMethods[0])] {
		t.Fatalf("-keepclassmembers must keep matching members")
	}
}
