package graph

import "sort"

// SubtypeIndex answers "direct extends/implements subtypes of T" in O(1)
// amortized, built once after all classes are read.
type SubtypeIndex struct {
	factory           *Factory
	directExtenders   map[*Type][]*Type
	directImplementers map[*Type][]*Type
}

// BuildSubtypeIndex walks every class definition in classes and records,
// for each type, its direct extends- and implements-subtypes.
func BuildSubtypeIndex(factory *Factory, classes []*Class) *SubtypeIndex {
	idx := &SubtypeIndex{
		factory:            factory,
		directExtenders:    make(map[*Type][]*Type),
		directImplementers: make(map[*Type][]*Type),
	}
	for _, c := range classes {
		if c.SuperType != nil {
			idx.directExtenders[c.SuperType] = append(idx.directExtenders[c.SuperType], c.Type)
		}
		for _, iface := range c.Interfaces {
			idx.directImplementers[iface] = append(idx.directImplementers[iface], c.Type)
		}
	}
	for _, lst := range idx.directExtenders {
		sortTypes(lst)
	}
	for _, lst := range idx.directImplementers {
		sortTypes(lst)
	}
	return idx
}

func sortTypes(ts []*Type) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Descriptor.compare(ts[j].Descriptor) < 0 })
}

func (idx *SubtypeIndex) DirectExtendsSubtypes(t *Type) []*Type { return idx.directExtenders[t] }

func (idx *SubtypeIndex) DirectImplementsSubtypes(t *Type) []*Type {
	return idx.directImplementers[t]
}

// ForAllExtendsSubtypes visits every transitive extends-subtype of t
// (depth-first, deterministic order), stopping its walk down a branch
// when visit returns false for the branch root.
func (idx *SubtypeIndex) ForAllExtendsSubtypes(t *Type, visit func(*Type) bool) {
	for _, sub := range idx.directExtenders[t] {
		if visit(sub) {
			idx.ForAllExtendsSubtypes(sub, visit)
		}
	}
}

// ForAllImplementsSubtypes visits every transitive implements-subtype of
// interface t: types that directly implement t, and types that extend or
// implement any of those, recursively (both extends- and implements-edges
// are followed once inside the interface's subtype cone).
func (idx *SubtypeIndex) ForAllImplementsSubtypes(t *Type, visit func(*Type) bool) {
	for _, sub := range idx.directImplementers[t] {
		if visit(sub) {
			idx.ForAllExtendsSubtypes(sub, visit)
			idx.ForAllImplementsSubtypes(sub, visit)
		}
	}
}

// AnySuperTypeMatches walks the super-chain of c (per the definition map)
// testing match; returns true on the first match. Used by keep-rule
// inheritance clauses (`extends`).
func AnySuperTypeMatches(factory *Factory, c *Class, match func(*Class) bool) bool {
	cur := c.SuperType
	for cur != nil {
		def := factory.DefinitionFor(cur)
		if def == nil {
			return false
		}
		if match(def) {
			return true
		}
		cur = def.SuperType
	}
	return false
}

// AnyImplementedInterfaceMatches walks c's transitive interface set.
func AnyImplementedInterfaceMatches(factory *Factory, c *Class, match func(*Class) bool) bool {
	seen := make(map[*Type]bool)
	var walk func(*Class) bool
	walk = func(cur *Class) bool {
		for _, iface := range cur.Interfaces {
			if seen[iface] {
				continue
			}
			seen[iface] = true
			def := factory.DefinitionFor(iface)
			if def == nil {
				continue
			}
			if match(def) || walk(def) {
				return true
			}
		}
		if cur.SuperType != nil {
			if sup := factory.DefinitionFor(cur.SuperType); sup != nil {
				return walk(sup)
			}
		}
		return false
	}
	return walk(c)
}
