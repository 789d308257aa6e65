package readio

import (
	"context"
	"testing"

	"github.com/mabhi256/r8shrink/internal/graph"
)

func TestClassifyPathBySuffix(t *testing.T) {
	cases := map[string]Kind{
		"Foo.class": KindClass,
		"a/b.dex":   KindDex,
		"libs.jar":  KindJar,
		"app.zip":   KindZip,
		"app.apk":   KindApk,
		"README":    KindUnknown,
	}
	for path, want := range cases {
		if got := ClassifyPath(path); got != want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", path, got, want)
		}
	}
}

type stubReader struct {
	name string
}

func (s *stubReader) Read(_ context.Context, path string, factory *graph.Factory) ([]*graph.Class, error) {
	typ := factory.CreateType("L" + s.name + ";")
	return []*graph.Class{{Type: typ}}, nil
}

func TestReadAllTagsOriginAndMerges(t *testing.T) {
	factory := graph.NewFactory()
	readers := map[Kind]ClassReader{
		KindClass: &stubReader{name: "Foo"},
		KindJar:   &stubReader{name: "Bar"},
	}
	r := NewReader(factory, readers)

	classes, err := r.ReadAll(context.Background(), []string{"Foo.class", "libs.jar"}, graph.OriginLibrary)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(classes))
	}
	for _, c := range classes {
		if c.Origin != graph.OriginLibrary {
			t.Errorf("expected OriginLibrary tagged onto every read class, got %v", c.Origin)
		}
	}
}

func TestReadAllErrorsOnUnregisteredKind(t *testing.T) {
	factory := graph.NewFactory()
	r := NewReader(factory, map[Kind]ClassReader{})
	if _, err := r.ReadAll(context.Background(), []string{"Foo.class"}, graph.OriginProgram); err == nil {
		t.Fatalf("expected error for unregistered reader kind")
	}
}
