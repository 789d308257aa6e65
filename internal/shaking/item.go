// Package shaking implements the root-set builder and the liveness-fixpoint
// enqueuer that together decide which classes, methods, and fields survive
// tree shaking.
package shaking

import "github.com/mabhi256/r8shrink/internal/graph"

// ItemKind tags Item's variant. Per the tagged-sum design note, every
// dispatch on Item switches exhaustively over Kind rather than relying on
// an inheritance hierarchy.
type ItemKind int

const (
	ItemClass ItemKind = iota
	ItemMethod
	ItemField
)

// Item is a tagged sum over the three kinds of program item a keep rule or
// enqueuer event can reference. Exactly one of Class/Method/Field is set,
// matching Kind.
type Item struct {
	Kind   ItemKind
	Class  *graph.Class
	Method *graph.EncodedMethod
	Field  *graph.EncodedField
}

func OfClass(c *graph.Class) Item   { return Item{Kind: ItemClass, Class: c} }
func OfMethod(m *graph.EncodedMethod) Item { return Item{Kind: ItemMethod, Method: m} }
func OfField(f *graph.EncodedField) Item   { return Item{Kind: ItemField, Field: f} }

func (it Item) String() string {
	switch it.Kind {
	case ItemClass:
		return it.Class.Type.String()
	case ItemMethod:
		return it.Method.Ref.String()
	case ItemField:
		return it.Field.Ref.String()
	default:
		return "<invalid item>"
	}
}
