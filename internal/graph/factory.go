// Package graph implements the program-graph data model: an interned pool
// of types, strings, protos, method and field references, plus the mutable
// class table and subtype index built on top of it.
package graph

import (
	"fmt"
	"sort"
	"sync"
)

// String is an interned UTF-8 string with a cached hash, ordered
// lexicographically by its bytes.
type String struct {
	bytes []byte
	hash  uint64
}

func (s *String) String() string { return string(s.bytes) }

func (s *String) compare(other *String) int {
	a, b := s.bytes, other.bytes
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func hashBytes(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

// Type flags classify a descriptor as a class, array, primitive, or
// interface type.
const (
	FlagIsClass     = 1 << 0
	FlagIsArray     = 1 << 1
	FlagIsPrimitive = 1 << 2
	FlagIsInterface = 1 << 3
)

// Type is an interned class descriptor, array type, or primitive type.
type Type struct {
	Descriptor *String
	Flags      int
	// owner is the class this type denotes, populated once the class is
	// read; nil for array/primitive types and for classes not yet (or
	// never) defined in this compilation (library/missing).
	owner *Class
}

func (t *Type) IsClass() bool     { return t.Flags&FlagIsClass != 0 }
func (t *Type) IsArray() bool     { return t.Flags&FlagIsArray != 0 }
func (t *Type) IsPrimitive() bool { return t.Flags&FlagIsPrimitive != 0 }
func (t *Type) IsInterface() bool { return t.Flags&FlagIsInterface != 0 }

func (t *Type) String() string { return t.Descriptor.String() }

// Proto is a method's (return, parameters) descriptor; identity defines
// method overloading.
type Proto struct {
	Return String
	Params []*Type
	key    string
}

// MethodRef is (holder, name, proto); identity is by these three fields.
type MethodRef struct {
	Holder *Type
	Name   *String
	Proto  *Proto
}

func (m *MethodRef) String() string {
	return fmt.Sprintf("%s->%s%s", m.Holder, m.Name, protoDescriptor(m.Proto))
}

// FieldRef is (holder, name, type).
type FieldRef struct {
	Holder *Type
	Name   *String
	Type   *Type
}

func (f *FieldRef) String() string {
	return fmt.Sprintf("%s->%s:%s", f.Holder, f.Name, f.Type)
}

func protoDescriptor(p *Proto) string {
	s := "("
	for _, t := range p.Params {
		s += t.String()
	}
	return s + ")" + p.Return.String()
}

// Factory is the single process-wide interning pool for one compilation.
// It is passed explicitly to every component that needs it rather than
// hidden behind package-global state, so tests can run several
// compilations in isolation.
//
// Reads are thread-safe; creations are serialized per factory.
type Factory struct {
	mu sync.Mutex

	strings map[string]*String
	types   map[string]*Type
	protos  map[string]*Proto
	methods map[methodKey]*MethodRef
	fields  map[fieldKey]*FieldRef

	defs map[*Type]*Class
}

type methodKey struct {
	holder *Type
	name   *String
	proto  *Proto
}

type fieldKey struct {
	holder *Type
	name   *String
	typ    *Type
}

func NewFactory() *Factory {
	return &Factory{
		strings: make(map[string]*String),
		types:   make(map[string]*Type),
		protos:  make(map[string]*Proto),
		methods: make(map[methodKey]*MethodRef),
		fields:  make(map[fieldKey]*FieldRef),
		defs:    make(map[*Type]*Class),
	}
}

// CreateString returns the interned String for b, creating it if absent.
func (f *Factory) CreateString(b []byte) *String {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := string(b)
	if s, ok := f.strings[k]; ok {
		return s
	}
	s := &String{bytes: append([]byte(nil), b...), hash: hashBytes(b)}
	f.strings[k] = s
	return s
}

// CreateType returns the interned Type for descriptor, creating it if
// absent. Flags are inferred from the descriptor's leading byte(s).
func (f *Factory) CreateType(descriptor string) *Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.types[descriptor]; ok {
		return t
	}
	t := &Type{Descriptor: f.internLocked(descriptor), Flags: classifyDescriptor(descriptor)}
	f.types[descriptor] = t
	return t
}

func (f *Factory) internLocked(s string) *String {
	if v, ok := f.strings[s]; ok {
		return v
	}
	b := []byte(s)
	v := &String{bytes: b, hash: hashBytes(b)}
	f.strings[s] = v
	return v
}

func classifyDescriptor(d string) int {
	if len(d) == 0 {
		return 0
	}
	switch d[0] {
	case 'L':
		return FlagIsClass
	case '[':
		return FlagIsArray
	default:
		return FlagIsPrimitive
	}
}

// CreateProto returns the interned Proto for (ret, params).
func (f *Factory) CreateProto(ret *String, params []*Type) *Proto {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ret.String()
	for _, p := range params {
		key += "|" + p.String()
	}
	if p, ok := f.protos[key]; ok {
		return p
	}
	p := &Proto{Return: *ret, Params: params, key: key}
	f.protos[key] = p
	return p
}

// CreateMethod returns the interned MethodRef for (holder, name, proto).
func (f *Factory) CreateMethod(holder *Type, name *String, proto *Proto) *MethodRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := methodKey{holder, name, proto}
	if m, ok := f.methods[k]; ok {
		return m
	}
	m := &MethodRef{Holder: holder, Name: name, Proto: proto}
	f.methods[k] = m
	return m
}

// CreateField returns the interned FieldRef for (holder, name, type).
func (f *Factory) CreateField(holder *Type, name *String, typ *Type) *FieldRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := fieldKey{holder, name, typ}
	if fr, ok := f.fields[k]; ok {
		return fr
	}
	fr := &FieldRef{Holder: holder, Name: name, Type: typ}
	f.fields[k] = fr
	return fr
}

// DefinitionFor is an O(1) lookup from type to its Class, or nil if the
// class is missing (library-only, or genuinely absent — a recoverable
// state, not a fatal error by itself).
func (f *Factory) DefinitionFor(t *Type) *Class {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defs[t]
}

// DefineClass registers c's definition under its own type. Called exactly
// once per class during reading.
func (f *Factory) DefineClass(c *Class) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs[c.Type] = c
}

// AllTypes returns every interned type, sorted by descriptor bytes. Used
// by sort-dependent phases that need a deterministic type enumeration.
func (f *Factory) AllTypes() []*Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Type, 0, len(f.types))
	for _, t := range f.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Descriptor.compare(out[j].Descriptor) < 0 })
	return out
}

// Sort does not use lens and leaves the factory's tables as they are. The
// tables are unordered maps, and a lens does not rewrite Type.Descriptor,
// so AllTypes keeps ordering types by their original descriptors.
func (f *Factory) Sort(lens *Lens) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = lens
}
