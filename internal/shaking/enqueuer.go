package shaking

import (
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/mabhi256/r8shrink/internal/compileerr"
	"github.com/mabhi256/r8shrink/internal/graph"
)

// KeepReason is attached to every work-list event for diagnostics: why
// this class/method/field became live.
type KeepReason struct {
	Text string
	From Item
}

func reasonf(format string, args ...any) KeepReason { return KeepReason{Text: fmt.Sprintf(format, args...)} }

type eventKind int

const (
	evMarkInstantiated eventKind = iota
	evMarkReachableVirtual
	evMarkReachableInterface
	evMarkReachableSuper
	evMarkReachableField
	evMarkMethodLive
	evMarkMethodKept
	evMarkFieldKept
)

type event struct {
	kind   eventKind
	class  *graph.Class
	method *graph.EncodedMethod
	field  *graph.EncodedField
	from   *graph.EncodedMethod
	reason KeepReason
}

// sortKey gives every event a deterministic slow-compare key so that
// sibling work enqueued at one fork point is always processed in the same
// order across runs, which output determinism depends on even though the
// fixpoint's correctness does not.
func (e event) sortKey() string {
	switch e.kind {
	case evMarkInstantiated:
		return "0:" + e.class.Type.String()
	case evMarkReachableVirtual, evMarkReachableInterface, evMarkMethodLive, evMarkMethodKept:
		return fmt.Sprintf("%d:%s", e.kind, e.method.Ref.String())
	case evMarkReachableSuper:
		return "3:" + e.method.Ref.String() + "<-" + e.from.Ref.String()
	case evMarkReachableField, evMarkFieldKept:
		return fmt.Sprintf("%d:%s", e.kind, e.field.Ref.String())
	default:
		return ""
	}
}

// AppInfoWithLiveness is the immutable, sorted output of one enqueuer run.
type AppInfoWithLiveness struct {
	LiveTypes         []*graph.Type
	InstantiatedTypes []*graph.Type
	LiveMethods       []*graph.EncodedMethod
	LiveFields        []*graph.EncodedField
	TargetedMethods   []*graph.EncodedMethod

	VirtualInvokes      []*graph.MethodRef
	SuperInvokes        []*graph.MethodRef
	DirectInvokes       []*graph.MethodRef
	StaticInvokes       []*graph.MethodRef
	InstanceFieldsRead  []*graph.FieldRef
	InstanceFieldsWritten []*graph.FieldRef
	StaticFieldsRead    []*graph.FieldRef
	StaticFieldsWritten []*graph.FieldRef

	MissingReferences []string // surfaced warnings, deduplicated
}

// Enqueuer computes the transitive liveness closure from a root set. It
// is single-threaded and deterministic by construction: the work-list
// fixpoint never runs two events concurrently.
type Enqueuer struct {
	factory *graph.Factory
	subtype *graph.SubtypeIndex
	rootSet *RootSet
	log     logr.Logger

	ignoreMissingClasses bool
	dontWarnPatterns      []string

	queue []event

	liveTypes         map[*graph.Type]bool
	instantiatedTypes map[*graph.Type]bool
	liveMethods       map[*graph.EncodedMethod]bool
	liveFields        map[*graph.EncodedField]bool
	targetedMethods   map[*graph.EncodedMethod]bool

	reachableVirtual map[*graph.Type]map[*graph.EncodedMethod]bool
	reachableFields  map[*graph.Type]map[*graph.EncodedField]bool

	superInvokeDeps map[*graph.EncodedMethod]map[*graph.EncodedMethod]bool
	deferredAnnotations map[*graph.Type][]graph.Annotation

	virtualInvokes      map[*graph.MethodRef]bool
	superInvokes        map[*graph.MethodRef]bool
	directInvokes       map[*graph.MethodRef]bool
	staticInvokes       map[*graph.MethodRef]bool
	instanceFieldsRead  map[*graph.FieldRef]bool
	instanceFieldsWritten map[*graph.FieldRef]bool
	staticFieldsRead    map[*graph.FieldRef]bool
	staticFieldsWritten map[*graph.FieldRef]bool

	missingReported map[string]bool
	missing         []string
}

func NewEnqueuer(factory *graph.Factory, subtype *graph.SubtypeIndex, rootSet *RootSet, ignoreMissingClasses bool, dontWarn []string, log logr.Logger) *Enqueuer {
	return &Enqueuer{
		factory:               factory,
		subtype:               subtype,
		rootSet:                rootSet,
		log:                    log,
		ignoreMissingClasses:   ignoreMissingClasses,
		dontWarnPatterns:       dontWarn,
		liveTypes:              make(map[*graph.Type]bool),
		instantiatedTypes:      make(map[*graph.Type]bool),
		liveMethods:            make(map[*graph.EncodedMethod]bool),
		liveFields:             make(map[*graph.EncodedField]bool),
		targetedMethods:        make(map[*graph.EncodedMethod]bool),
		reachableVirtual:       make(map[*graph.Type]map[*graph.EncodedMethod]bool),
		reachableFields:        make(map[*graph.Type]map[*graph.EncodedField]bool),
		superInvokeDeps:        make(map[*graph.EncodedMethod]map[*graph.EncodedMethod]bool),
		deferredAnnotations:    make(map[*graph.Type][]graph.Annotation),
		virtualInvokes:         make(map[*graph.MethodRef]bool),
		superInvokes:           make(map[*graph.MethodRef]bool),
		directInvokes:          make(map[*graph.MethodRef]bool),
		staticInvokes:          make(map[*graph.MethodRef]bool),
		instanceFieldsRead:     make(map[*graph.FieldRef]bool),
		instanceFieldsWritten:  make(map[*graph.FieldRef]bool),
		staticFieldsRead:       make(map[*graph.FieldRef]bool),
		staticFieldsWritten:    make(map[*graph.FieldRef]bool),
		missingReported:        make(map[string]bool),
	}
}

// Run seeds the work-list from the root set and library roots, then drains
// it to a fixpoint. Returns the resulting AppInfoWithLiveness, or a fatal
// *compileerr.Error if a missing reference cannot be recovered.
func (e *Enqueuer) Run(allClasses []*graph.Class) (*AppInfoWithLiveness, error) {
	for _, c := range allClasses {
		if c.Origin == graph.OriginLibrary {
			e.markAllVirtualMethodsReachable(c)
		}
	}
	for item := range e.rootSet.NoShrinking {
		e.seedFromRootItem(item)
	}

	for len(e.queue) > 0 {
		batch := e.queue
		e.queue = nil
		sort.Slice(batch, func(i, j int) bool { return batch[i].sortKey() < batch[j].sortKey() })
		for _, ev := range batch {
			if err := e.process(ev); err != nil {
				return nil, err
			}
		}
	}

	if len(e.missing) > 0 && !e.ignoreMissingClasses {
		return nil, compileerr.MissingReference(e.missing[0], fmt.Sprintf("%d missing reference(s), first listed", len(e.missing)))
	}
	return e.buildAppInfo(), nil
}

func (e *Enqueuer) seedFromRootItem(item Item) {
	switch item.Kind {
	case ItemClass:
		e.enqueue(event{kind: evMarkInstantiated, class: item.Class, reason: reasonf("kept by rule")})
	case ItemMethod:
		e.enqueue(event{kind: evMarkMethodKept, method: item.Method, reason: reasonf("kept by rule")})
	case ItemField:
		e.enqueue(event{kind: evMarkFieldKept, field: item.Field, reason: reasonf("kept by rule")})
	}
}

func (e *Enqueuer) enqueue(ev event) { e.queue = append(e.queue, ev) }

func (e *Enqueuer) process(ev event) error {
	switch ev.kind {
	case evMarkInstantiated:
		return e.markClassInstantiated(ev.class, ev.reason)
	case evMarkReachableVirtual:
		return e.markVirtualMethodReachable(ev.method, ev.reason)
	case evMarkReachableInterface:
		return e.markVirtualMethodReachable(ev.method, ev.reason)
	case evMarkReachableSuper:
		return e.markSuperMethodReachable(ev.method, ev.from)
	case evMarkReachableField:
		return e.markFieldReachable(ev.field, ev.reason)
	case evMarkMethodLive:
		return e.markMethodLive(ev.method, ev.reason)
	case evMarkMethodKept:
		return e.markMethodKept(ev.method, ev.reason)
	case evMarkFieldKept:
		return e.markFieldKept(ev.field, ev.reason)
	default:
		return fmt.Errorf("unhandled event kind %d", ev.kind)
	}
}

// markTypeAsLive marks t and its supertype/interfaces live, processes its
// class annotations (deferring any whose target type is not yet live),
// and marks a non-trivial class initializer live.
func (e *Enqueuer) markTypeAsLive(t *graph.Type, reason KeepReason) {
	if e.liveTypes[t] {
		return
	}
	e.liveTypes[t] = true

	def := e.factory.DefinitionFor(t)
	if def == nil {
		e.reportMissing(t.String())
		return
	}
	if def.SuperType != nil {
		e.markTypeAsLive(def.SuperType, reason)
	}
	for _, iface := range def.Interfaces {
		e.markTypeAsLive(iface, reason)
	}
	e.processAnnotations(def.Annotations, reason)
	if def.ClassInitializer != nil {
		e.enqueue(event{kind: evMarkMethodLive, method: def.ClassInitializer, reason: reason})
	}
	e.replayDeferredAnnotations(t, reason)
}

func (e *Enqueuer) processAnnotations(anns []graph.Annotation, reason KeepReason) {
	for _, a := range anns {
		if e.liveTypes[a.Type] {
			e.markAnnotationPayloadLive(a, reason)
			continue
		}
		e.deferredAnnotations[a.Type] = append(e.deferredAnnotations[a.Type], a)
	}
}

func (e *Enqueuer) replayDeferredAnnotations(becameLive *graph.Type, reason KeepReason) {
	pending := e.deferredAnnotations[becameLive]
	delete(e.deferredAnnotations, becameLive)
	for _, a := range pending {
		e.markAnnotationPayloadLive(a, reason)
	}
}

// markAnnotationPayloadLive walks an annotation's constant payload,
// keeping every type it references live — an annotation can pin a class
// even though nothing else in the program calls into it.
func (e *Enqueuer) markAnnotationPayloadLive(a graph.Annotation, reason KeepReason) {
	e.markTypeAsLive(a.Type, reason)
	for _, el := range a.Elements {
		switch v := el.Value.(type) {
		case *graph.Type:
			e.markTypeAsLive(v, reason)
		case []graph.AnnotationElement:
			for _, sub := range v {
				e.markAnnotationPayloadLive(graph.Annotation{Type: a.Type, Elements: []graph.AnnotationElement{sub}}, reason)
			}
		}
	}
}

// markClassInstantiated implements the "a class becomes instantiated"
// liveness transition.
func (e *Enqueuer) markClassInstantiated(c *graph.Class, reason KeepReason) error {
	if e.instantiatedTypes[c.Type] {
		return nil
	}
	e.instantiatedTypes[c.Type] = true
	e.markTypeAsLive(c.Type, reason)
	e.transitionMethodsForInstantiatedClass(c, reason)
	e.transitionFieldsForInstantiatedClass(c, reason)
	return nil
}

// transitionMethodsForInstantiatedClass walks up the super-chain; for each
// super-class, every method in reachableVirtual whose signature has not
// been shadowed by a more-derived class already visited is marked live.
func (e *Enqueuer) transitionMethodsForInstantiatedClass(c *graph.Class, reason KeepReason) {
	shadowed := make(map[string]bool)
	cur := c
	for cur != nil {
		for _, m := range cur.AllMethods() {
			shadowed[m.Ref.Name.String()+protoKey(m.Ref.Proto)] = true
		}
		for target := range e.reachableVirtual[cur.Type] {
			key := target.Ref.Name.String() + protoKey(target.Ref.Proto)
			if cur != c && shadowed[key] {
				continue
			}
			e.enqueue(event{kind: evMarkMethodLive, method: target, reason: reason})
		}
		if cur.SuperType == nil {
			break
		}
		next := e.factory.DefinitionFor(cur.SuperType)
		if next == nil {
			break
		}
		cur = next
	}
}

func (e *Enqueuer) transitionFieldsForInstantiatedClass(c *graph.Class, reason KeepReason) {
	cur := c
	for cur != nil {
		for target := range e.reachableFields[cur.Type] {
			e.enqueue(event{kind: evMarkReachableField, field: target, reason: reason})
		}
		if cur.SuperType == nil {
			break
		}
		next := e.factory.DefinitionFor(cur.SuperType)
		if next == nil {
			break
		}
		cur = next
	}
}

func protoKey(p *graph.Proto) string {
	s := "(" + p.Return.String()
	for _, t := range p.Params {
		s += "," + t.String()
	}
	return s + ")"
}

// markVirtualMethodReachable implements the invoke-virtual/invoke-interface
// liveness transition.
func (e *Enqueuer) markVirtualMethodReachable(m *graph.EncodedMethod, reason KeepReason) error {
	holderDef := e.factory.DefinitionFor(m.Ref.Holder)
	if holderDef == nil {
		e.reportMissing(m.Ref.String())
		return nil
	}
	top := e.resolveVirtualTarget(holderDef, m.Ref)
	if top == nil {
		e.reportMissing(m.Ref.String())
		return nil
	}
	e.targetedMethods[top] = true
	e.virtualInvokes[m.Ref] = true

	e.fillWorkList(holderDef.Type, top, reason)
	return nil
}

// fillWorkList performs an explicit subtype walk: for each concrete
// target T discovered, add T to reachableVirtual; if
// T.holder is already instantiated (and does not shadow), mark T live
// immediately; otherwise defer by recording T in reachableVirtual and
// waiting for the class to become instantiated. Interfaces follow both
// implements- and extends-subtype edges; classes only extends-edges.
func (e *Enqueuer) fillWorkList(declaredHolder *graph.Type, top *graph.EncodedMethod, reason KeepReason) {
	holderDef := e.factory.DefinitionFor(declaredHolder)
	isInterface := holderDef != nil && holderDef.Access.Has(graph.AccInterface)

	e.addReachableVirtualTarget(declaredHolder, top, reason)

	visited := map[*graph.Type]bool{declaredHolder: true}
	var walk func(t *graph.Type)
	walk = func(t *graph.Type) {
		def := e.factory.DefinitionFor(t)
		if def == nil {
			return
		}
		target := def.LookupVirtualMethod(top.Ref.Name, top.Ref.Proto)
		if target != nil {
			e.addReachableVirtualTarget(t, target, reason)
			return // shadowed: stop walking this branch
		}
		for _, sub := range e.subtype.DirectExtendsSubtypes(t) {
			if !visited[sub] {
				visited[sub] = true
				walk(sub)
			}
		}
		if isInterface {
			for _, sub := range e.subtype.DirectImplementsSubtypes(t) {
				if !visited[sub] {
					visited[sub] = true
					walk(sub)
				}
			}
		}
	}
	for _, sub := range e.subtype.DirectExtendsSubtypes(declaredHolder) {
		visited[sub] = true
		walk(sub)
	}
	if isInterface {
		for _, sub := range e.subtype.DirectImplementsSubtypes(declaredHolder) {
			visited[sub] = true
			walk(sub)
		}
	}
}

func (e *Enqueuer) addReachableVirtualTarget(holder *graph.Type, target *graph.EncodedMethod, reason KeepReason) {
	m := e.reachableVirtual[holder]
	if m == nil {
		m = make(map[*graph.EncodedMethod]bool)
		e.reachableVirtual[holder] = m
	}
	if m[target] {
		return
	}
	m[target] = true
	if e.instantiatedTypes[holder] {
		e.enqueue(event{kind: evMarkMethodLive, method: target, reason: reason})
	}
}

// resolveVirtualTarget does standard Java/Dalvik virtual-dispatch lookup:
// walk from holder up the super-chain for a matching virtual method.
func (e *Enqueuer) resolveVirtualTarget(holder *graph.Class, ref *graph.MethodRef) *graph.EncodedMethod {
	cur := holder
	for cur != nil {
		if m := cur.LookupVirtualMethod(ref.Name, ref.Proto); m != nil {
			return m
		}
		if cur.SuperType == nil {
			break
		}
		cur = e.factory.DefinitionFor(cur.SuperType)
	}
	return nil
}

func (e *Enqueuer) markSuperMethodReachable(resolved *graph.EncodedMethod, from *graph.EncodedMethod) error {
	deps := e.superInvokeDeps[from]
	if deps == nil {
		deps = make(map[*graph.EncodedMethod]bool)
		e.superInvokeDeps[from] = deps
	}
	deps[resolved] = true
	e.superInvokes[resolved.Ref] = true
	if e.liveMethods[from] {
		e.enqueue(event{kind: evMarkMethodLive, method: resolved, reason: reasonf("invoke-super from %s", from.Ref)})
	}
	return nil
}

func (e *Enqueuer) markFieldReachable(f *graph.EncodedField, reason KeepReason) error {
	holderDef := e.factory.DefinitionFor(f.Ref.Holder)
	if holderDef == nil {
		e.reportMissing(f.Ref.String())
		return nil
	}
	if f.IsStatic() {
		e.markTypeAsLive(f.Ref.Holder, reason)
		e.liveFields[f] = true
		return nil
	}
	m := e.reachableFields[f.Ref.Holder]
	if m == nil {
		m = make(map[*graph.EncodedField]bool)
		e.reachableFields[f.Ref.Holder] = m
	}
	m[f] = true
	if e.instantiatedTypes[f.Ref.Holder] {
		e.liveFields[f] = true
	}
	return nil
}

func (e *Enqueuer) markMethodLive(m *graph.EncodedMethod, reason KeepReason) error {
	if e.liveMethods[m] {
		return nil
	}
	e.liveMethods[m] = true
	e.markTypeAsLive(m.Ref.Holder, reason)
	e.processAnnotations(m.Annotations, reason)
	return e.processNewlyLiveMethod(m, reason)
}

func (e *Enqueuer) markMethodKept(m *graph.EncodedMethod, reason KeepReason) error {
	e.targetedMethods[m] = true
	return e.markMethodLive(m, reason)
}

func (e *Enqueuer) markFieldKept(f *graph.EncodedField, reason KeepReason) error {
	return e.markFieldReachable(f, reason)
}

// processNewlyLiveMethod walks m's code with a use-registry, emitting one
// event per invoke/field-access instruction, matching Enqueuer.java's
// UseRegistry-driven traversal.
func (e *Enqueuer) processNewlyLiveMethod(m *graph.EncodedMethod, reason KeepReason) error {
	if m.Code == nil {
		return nil
	}
	for _, instr := range m.Code.Instructions {
		if err := e.processInstruction(m, instr, reason); err != nil {
			return err
		}
	}
	return nil
}

func (e *Enqueuer) processInstruction(from *graph.EncodedMethod, instr graph.Instruction, reason KeepReason) error {
	switch instr.Opcode {
	case graph.OpNewInstance:
		for _, op := range instr.Operands {
			if op.Type == nil {
				continue
			}
			if def := e.factory.DefinitionFor(op.Type); def != nil {
				e.enqueue(event{kind: evMarkInstantiated, class: def, reason: reason})
			} else {
				e.reportMissing(op.Type.String())
			}
		}
	case graph.OpInvokeVirtual:
		return e.dispatchInvoke(instr, evMarkReachableVirtual, reason)
	case graph.OpInvokeInterface:
		holder := e.factory.DefinitionFor(instr.Operands[0].Method.Holder)
		if holder != nil && !holder.Access.Has(graph.AccInterface) {
			return compileerr.AmbiguousDispatch(instr.Operands[0].Method.String(), "invoke-interface targeting a non-interface method")
		}
		return e.dispatchInvoke(instr, evMarkReachableInterface, reason)
	case graph.OpInvokeSuper:
		method := instr.Operands[0].Method
		holderDef := e.factory.DefinitionFor(method.Holder)
		if holderDef == nil {
			e.reportMissing(method.String())
			return nil
		}
		resolved := e.resolveVirtualTarget(holderDef, method)
		if resolved == nil {
			e.reportMissing(method.String())
			return nil
		}
		return e.markSuperMethodReachable(resolved, from)
	case graph.OpInvokeDirect, graph.OpInvokeStatic:
		method := instr.Operands[0].Method
		holderDef := e.factory.DefinitionFor(method.Holder)
		if holderDef == nil {
			e.reportMissing(method.String())
			return nil
		}
		var target *graph.EncodedMethod
		if instr.Opcode == graph.OpInvokeStatic {
			target = holderDef.LookupDirectMethod(method.Name, method.Proto)
			e.staticInvokes[method] = true
		} else {
			target = holderDef.LookupDirectMethod(method.Name, method.Proto)
			e.directInvokes[method] = true
		}
		if target == nil {
			e.reportMissing(method.String())
			return nil
		}
		e.enqueue(event{kind: evMarkMethodLive, method: target, reason: reason})
	case graph.OpInstanceFieldGet, graph.OpInstanceFieldPut:
		field := instr.Operands[0].Field
		holderDef := e.factory.DefinitionFor(field.Holder)
		if holderDef == nil {
			e.reportMissing(field.String())
			return nil
		}
		target := holderDef.LookupInstanceField(field.Name, field.Type)
		if target == nil {
			e.reportMissing(field.String())
			return nil
		}
		if instr.Opcode == graph.OpInstanceFieldGet {
			e.instanceFieldsRead[field] = true
		} else {
			e.instanceFieldsWritten[field] = true
		}
		e.enqueue(event{kind: evMarkReachableField, field: target, reason: reason})
	case graph.OpStaticFieldGet, graph.OpStaticFieldPut:
		field := instr.Operands[0].Field
		holderDef := e.factory.DefinitionFor(field.Holder)
		if holderDef == nil {
			e.reportMissing(field.String())
			return nil
		}
		var target *graph.EncodedField
		for _, f := range holderDef.StaticFields {
			if f.Ref.Name == field.Name && f.Ref.Type == field.Type {
				target = f
				break
			}
		}
		if target == nil {
			e.reportMissing(field.String())
			return nil
		}
		if instr.Opcode == graph.OpStaticFieldGet {
			e.staticFieldsRead[field] = true
		} else {
			e.staticFieldsWritten[field] = true
		}
		e.enqueue(event{kind: evMarkReachableField, field: target, reason: reason})
	}
	return nil
}

func (e *Enqueuer) dispatchInvoke(instr graph.Instruction, kind eventKind, reason KeepReason) error {
	method := instr.Operands[0].Method
	holderDef := e.factory.DefinitionFor(method.Holder)
	if holderDef == nil {
		e.reportMissing(method.String())
		return nil
	}
	resolved := e.resolveVirtualTarget(holderDef, method)
	if resolved == nil {
		e.reportMissing(method.String())
		return nil
	}
	e.enqueue(event{kind: kind, method: resolved, reason: reason})
	return nil
}

// markAllVirtualMethodsReachable treats a library class as an opaque
// "may-be-anything" root: every virtual method it declares is reachable
// immediately, since library code can be dispatched into from outside the
// closed-world program under analysis.
func (e *Enqueuer) markAllVirtualMethodsReachable(c *graph.Class) {
	for _, m := range c.VirtualMethods {
		e.addReachableVirtualTarget(c.Type, m, reasonf("library class %s is an opaque root", c.Type))
	}
}

func (e *Enqueuer) reportMissing(descriptor string) {
	if e.isDontWarned(descriptor) {
		return
	}
	if e.missingReported[descriptor] {
		return
	}
	e.missingReported[descriptor] = true
	e.missing = append(e.missing, descriptor)
	if e.ignoreMissingClasses {
		e.log.Info("missing reference", "item", descriptor)
	}
}

func (e *Enqueuer) isDontWarned(descriptor string) bool {
	for _, p := range e.dontWarnPatterns {
		if simpleGlobMatch(p, descriptor) {
			return true
		}
	}
	return false
}

func simpleGlobMatch(pattern, s string) bool {
	if pattern == "**" || pattern == "*" {
		return true
	}
	return pattern == s
}

func (e *Enqueuer) buildAppInfo() *AppInfoWithLiveness {
	info := &AppInfoWithLiveness{}
	for t := range e.liveTypes {
		info.LiveTypes = append(info.LiveTypes, t)
	}
	for t := range e.instantiatedTypes {
		info.InstantiatedTypes = append(info.InstantiatedTypes, t)
	}
	for m := range e.liveMethods {
		info.LiveMethods = append(info.LiveMethods, m)
	}
	for f := range e.liveFields {
		info.LiveFields = append(info.LiveFields, f)
	}
	for m := range e.targetedMethods {
		info.TargetedMethods = append(info.TargetedMethods, m)
	}
	for r := range e.virtualInvokes {
		info.VirtualInvokes = append(info.VirtualInvokes, r)
	}
	for r := range e.superInvokes {
		info.SuperInvokes = append(info.SuperInvokes, r)
	}
	for r := range e.directInvokes {
		info.DirectInvokes = append(info.DirectInvokes, r)
	}
	for r := range e.staticInvokes {
		info.StaticInvokes = append(info.StaticInvokes, r)
	}
	for r := range e.instanceFieldsRead {
		info.InstanceFieldsRead = append(info.InstanceFieldsRead, r)
	}
	for r := range e.instanceFieldsWritten {
		info.InstanceFieldsWritten = append(info.InstanceFieldsWritten, r)
	}
	for r := range e.staticFieldsRead {
		info.StaticFieldsRead = append(info.StaticFieldsRead, r)
	}
	for r := range e.staticFieldsWritten {
		info.StaticFieldsWritten = append(info.StaticFieldsWritten, r)
	}
	info.MissingReferences = append(info.MissingReferences, e.missing...)

	sortTypesSlice(info.LiveTypes)
	sortTypesSlice(info.InstantiatedTypes)
	sortMethodsSlice(info.LiveMethods)
	sortMethodsSlice(info.TargetedMethods)
	sortFieldsSlice(info.LiveFields)
	sortMethodRefs(info.VirtualInvokes)
	sortMethodRefs(info.SuperInvokes)
	sortMethodRefs(info.DirectInvokes)
	sortMethodRefs(info.StaticInvokes)
	sortFieldRefs(info.InstanceFieldsRead)
	sortFieldRefs(info.InstanceFieldsWritten)
	sortFieldRefs(info.StaticFieldsRead)
	sortFieldRefs(info.StaticFieldsWritten)
	sort.Strings(info.MissingReferences)
	return info
}

func sortTypesSlice(ts []*graph.Type) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })
}
func sortMethodsSlice(ms []*graph.EncodedMethod) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Ref.String() < ms[j].Ref.String() })
}
func sortFieldsSlice(fs []*graph.EncodedField) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Ref.String() < fs[j].Ref.String() })
}
func sortMethodRefs(rs []*graph.MethodRef) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].String() < rs[j].String() })
}
func sortFieldRefs(rs []*graph.FieldRef) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].String() < rs[j].String() })
}
