package naming

import (
	"sort"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// MethodNameMinifier tracks, for every program class with a library
// ancestor, the naming state bound at the nearest library ancestor: its
// "frontier" class, where its overridable methods' names must match
// whatever the library already expects.
type MethodNameMinifier struct {
	factory *graph.Factory
	subtype *graph.SubtypeIndex

	states   map[*graph.Type]*NamingState[*graph.Proto] // per-class naming state
	frontier map[*graph.Type]*graph.Type                 // program class -> its frontier class

	lens *graph.Lens
}

func NewMethodNameMinifier(factory *graph.Factory, subtype *graph.SubtypeIndex) *MethodNameMinifier {
	return &MethodNameMinifier{
		factory:  factory,
		subtype:  subtype,
		states:   make(map[*graph.Type]*NamingState[*graph.Proto]),
		frontier: make(map[*graph.Type]*graph.Type),
		lens:     graph.NewLens(),
	}
}

// ComputeRenaming drives the four-phase method-renaming algorithm below:
// reserve names along class hierarchies, reserve names along interface
// hierarchies, assign interface method names across every implementor,
// then assign class method names top-down. isInterfaceType reports
// whether t is an interface.
func (mm *MethodNameMinifier) ComputeRenaming(allClasses []*graph.Class, objectType *graph.Type, isInterfaceType func(*graph.Type) bool) *graph.Lens {
	root := NewRootNamingState[*graph.Proto](nil)
	mm.states[objectType] = root

	classesByType := make(map[*graph.Type]*graph.Class)
	for _, c := range allClasses {
		classesByType[c.Type] = c
	}

	mm.reserveNamesInClasses(allClasses, classesByType, objectType)
	mm.reserveNamesInInterfaces(allClasses, isInterfaceType)
	mm.assignNamesToInterfaceMethods(allClasses, isInterfaceType)
	mm.assignNamesToClasses(allClasses, classesByType, objectType)
	return mm.lens
}

// reserveNamesInClasses is phase 1: depth-first from Object. Every program
// class with a library ancestor establishes a frontier at the nearest
// library ancestor's position; all program methods reserve their original
// names there. Library classes' methods are always reserved.
func (mm *MethodNameMinifier) reserveNamesInClasses(allClasses []*graph.Class, byType map[*graph.Type]*graph.Class, objectType *graph.Type) {
	var roots []*graph.Class
	for _, c := range allClasses {
		if c.Access.Has(graph.AccInterface) {
			continue
		}
		if c.SuperType == nil || c.SuperType == objectType {
			roots = append(roots, c)
		}
	}
	sortClassesByType(roots)
	for _, c := range roots {
		mm.reserveClassSubtree(c, byType, mm.states[objectType], objectType)
	}
}

func (mm *MethodNameMinifier) reserveClassSubtree(c *graph.Class, byType map[*graph.Type]*graph.Class, frontierState *NamingState[*graph.Proto], frontierType *graph.Type) {
	state := frontierState
	ft := frontierType
	if c.Origin == graph.OriginLibrary {
		// library classes are their own frontier; create a child state for
		// their own methods and let program subtypes use it.
		state = frontierState.CreateChild()
		ft = c.Type
		for _, m := range c.AllMethods() {
			if m.IsConstructor() {
				continue
			}
			state.ReserveName(m.Ref.Name.String(), m.Ref.Proto)
		}
	} else {
		for _, m := range c.AllMethods() {
			if m.IsConstructor() {
				continue
			}
			state.ReserveName(m.Ref.Name.String(), m.Ref.Proto)
		}
	}
	mm.states[c.Type] = state
	mm.frontier[c.Type] = ft

	for _, sub := range mm.subtype.DirectExtendsSubtypes(c.Type) {
		subClass, ok := byType[sub]
		if !ok {
			continue
		}
		mm.reserveClassSubtree(subClass, byType, state, ft)
	}
}

// reserveNamesInInterfaces is phase 2: interfaces are their own frontier.
func (mm *MethodNameMinifier) reserveNamesInInterfaces(allClasses []*graph.Class, isInterfaceType func(*graph.Type) bool) {
	for _, c := range allClasses {
		if !c.Access.Has(graph.AccInterface) {
			continue
		}
		state := NewRootNamingState[*graph.Proto](nil)
		for _, m := range c.AllMethods() {
			state.ReserveName(m.Ref.Name.String(), m.Ref.Proto)
		}
		mm.states[c.Type] = state
		mm.frontier[c.Type] = c.Type
	}
}

type interfaceSignature struct {
	name  string
	proto *graph.Proto
}

// assignNamesToInterfaceMethods is phase 3.
func (mm *MethodNameMinifier) assignNamesToInterfaceMethods(allClasses []*graph.Class, isInterfaceType func(*graph.Type) bool) {
	type sigInfo struct {
		states       map[*NamingState[*graph.Proto]]bool
		sourceMethods []*graph.EncodedMethod
		origin       *NamingState[*graph.Proto]
	}
	bySig := make(map[interfaceSignature]*sigInfo)

	for _, c := range allClasses {
		if !c.Access.Has(graph.AccInterface) {
			continue
		}
		reachable := mm.reachableStatesForInterface(c, allClasses, isInterfaceType)
		for _, m := range c.AllMethods() {
			sig := interfaceSignature{name: m.Ref.Name.String(), proto: m.Ref.Proto}
			info, ok := bySig[sig]
			if !ok {
				info = &sigInfo{states: make(map[*NamingState[*graph.Proto]]bool), origin: mm.states[c.Type]}
				bySig[sig] = info
			}
			for st := range reachable {
				info.states[st] = true
			}
			info.sourceMethods = append(info.sourceMethods, m)
		}
	}

	sigs := make([]interfaceSignature, 0, len(bySig))
	for sig := range bySig {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool {
		si, sj := bySig[sigs[i]], bySig[sigs[j]]
		if len(si.states) != len(sj.states) {
			return len(si.states) > len(sj.states) // most-constrained first
		}
		return sigs[i].name < sigs[j].name
	})

	for _, sig := range sigs {
		info := bySig[sig]
		reserved := false
		for st := range info.states {
			if st.IsReserved(sig.name, sig.proto) {
				reserved = true
				break
			}
		}
		if reserved {
			for st := range info.states {
				st.ReserveName(sig.name, sig.proto)
			}
			continue
		}
		name := mm.pickAvailableInAll(info.origin, sig, info.states)
		for st := range info.states {
			st.AddRenaming(sig.name, sig.proto, name)
		}
		for _, m := range info.sourceMethods {
			mm.lens.RenameMethod(m.Ref, mm.factory.CreateString([]byte(name)))
		}
	}
}

func (mm *MethodNameMinifier) pickAvailableInAll(origin *NamingState[*graph.Proto], sig interfaceSignature, states map[*NamingState[*graph.Proto]]bool) string {
	for {
		candidate := origin.AssignNewNameFor(sig.name, sig.proto, false)
		allAvailable := true
		for st := range states {
			if !st.IsAvailable(sig.proto, candidate) {
				allAvailable = false
				break
			}
		}
		if allAvailable {
			return candidate
		}
		origin.AddRenaming(candidate, sig.proto, candidate+"$taken")
	}
}

// reachableStatesForInterface computes: the interface itself, every
// super-interface, every sub-interface (via implements-subtypes from any
// of those), plus the frontier states of every class implementing any
// interface in the set.
func (mm *MethodNameMinifier) reachableStatesForInterface(iface *graph.Class, allClasses []*graph.Class, isInterfaceType func(*graph.Type) bool) map[*NamingState[*graph.Proto]]bool {
	ifaceSet := map[*graph.Type]bool{iface.Type: true}
	mm.collectSuperInterfaces(iface, ifaceSet)
	mm.collectSubInterfaces(iface.Type, ifaceSet, isInterfaceType)

	result := make(map[*NamingState[*graph.Proto]]bool)
	for t := range ifaceSet {
		if st, ok := mm.states[t]; ok {
			result[st] = true
		}
	}
	for _, c := range allClasses {
		if c.Access.Has(graph.AccInterface) {
			continue
		}
		for _, impl := range c.Interfaces {
			if ifaceSet[impl] {
				if st, ok := mm.states[c.Type]; ok {
					result[st] = true
				}
				break
			}
		}
	}
	return result
}

func (mm *MethodNameMinifier) collectSuperInterfaces(c *graph.Class, set map[*graph.Type]bool) {
	for _, sup := range c.Interfaces {
		if set[sup] {
			continue
		}
		set[sup] = true
		if def := mm.factory.DefinitionFor(sup); def != nil {
			mm.collectSuperInterfaces(def, set)
		}
	}
}

func (mm *MethodNameMinifier) collectSubInterfaces(t *graph.Type, set map[*graph.Type]bool, isInterfaceType func(*graph.Type) bool) {
	mm.subtype.ForAllImplementsSubtypes(t, func(sub *graph.Type) bool {
		if !isInterfaceType(sub) {
			return false
		}
		if set[sub] {
			return false
		}
		set[sub] = true
		return true
	})
	mm.subtype.ForAllExtendsSubtypes(t, func(sub *graph.Type) bool {
		if !isInterfaceType(sub) {
			return false
		}
		if set[sub] {
			return false
		}
		set[sub] = true
		return true
	})
}

// assignNamesToClasses is phase 4: top-down from Object, two sweeps
// (non-private methods, then private methods).
func (mm *MethodNameMinifier) assignNamesToClasses(allClasses []*graph.Class, byType map[*graph.Type]*graph.Class, objectType *graph.Type) {
	var roots []*graph.Class
	for _, c := range allClasses {
		if c.Access.Has(graph.AccInterface) {
			continue
		}
		if c.SuperType == nil || c.SuperType == objectType {
			roots = append(roots, c)
		}
	}
	sortClassesByType(roots)
	for _, c := range roots {
		mm.assignClassSubtree(c, byType, false)
	}
	for _, c := range roots {
		mm.assignClassSubtree(c, byType, true)
	}
}

func (mm *MethodNameMinifier) assignClassSubtree(c *graph.Class, byType map[*graph.Type]*graph.Class, privateSweep bool) {
	state := mm.states[c.Type]
	for _, m := range c.AllMethods() {
		if m.IsConstructor() {
			continue
		}
		if m.IsPrivate() != privateSweep {
			continue
		}
		if mm.lens.HasMethodRenaming(m.Ref) {
			continue
		}
		name := state.AssignNewNameFor(m.Ref.Name.String(), m.Ref.Proto, true)
		mm.lens.RenameMethod(m.Ref, mm.factory.CreateString([]byte(name)))
	}
	for _, sub := range mm.subtype.DirectExtendsSubtypes(c.Type) {
		if subClass, ok := byType[sub]; ok {
			mm.assignClassSubtree(subClass, byType, privateSweep)
		}
	}
}

func sortClassesByType(cs []*graph.Class) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Type.String() < cs[j].Type.String() })
}
