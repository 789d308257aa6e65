package graph

// Lens records a type/method/field renaming produced by the minifier and
// applies it on read, so that earlier phases' output (e.g. the call graph)
// stays valid after names change, rather than every pass rewriting the
// program graph in place.
type Lens struct {
	typeNames   map[*Type]*String
	methodNames map[*MethodRef]*String
	fieldNames  map[*FieldRef]*String
}

func NewLens() *Lens {
	return &Lens{
		typeNames:   make(map[*Type]*String),
		methodNames: make(map[*MethodRef]*String),
		fieldNames:  make(map[*FieldRef]*String),
	}
}

func (l *Lens) RenameType(t *Type, name *String)       { l.typeNames[t] = name }
func (l *Lens) RenameMethod(m *MethodRef, name *String) { l.methodNames[m] = name }
func (l *Lens) RenameField(f *FieldRef, name *String)   { l.fieldNames[f] = name }

func (l *Lens) LookupType(t *Type) *String {
	if n, ok := l.typeNames[t]; ok {
		return n
	}
	return t.Descriptor
}

// HasMethodRenaming reports whether m already has a renaming registered.
func (l *Lens) HasMethodRenaming(m *MethodRef) bool {
	_, ok := l.methodNames[m]
	return ok
}

func (l *Lens) LookupMethod(m *MethodRef) *String {
	if n, ok := l.methodNames[m]; ok {
		return n
	}
	return m.Name
}

func (l *Lens) LookupField(f *FieldRef) *String {
	if n, ok := l.fieldNames[f]; ok {
		return n
	}
	return f.Name
}

// Merge copies every renaming from other into l, for combining the class
// minifier's type lens with the method minifier's own lens into the single
// lens the writer needs.
func (l *Lens) Merge(other *Lens) {
	for t, n := range other.typeNames {
		l.typeNames[t] = n
	}
	for m, n := range other.methodNames {
		l.methodNames[m] = n
	}
	for f, n := range other.fieldNames {
		l.fieldNames[f] = n
	}
}

// Apply mutates every EncodedMethod/EncodedField's cached renamed name in
// classes so that downstream consumers (the writer) do not need the lens
// threaded through them.
func (l *Lens) Apply(classes []*Class) {
	for _, c := range classes {
		for _, m := range c.AllMethods() {
			if n, ok := l.methodNames[m.Ref]; ok {
				m.renamedName = n
			}
		}
		for _, f := range c.AllFields() {
			if n, ok := l.fieldNames[f.Ref]; ok {
				f.renamedName = n
			}
		}
	}
}

// RenamedName returns the method's final name: the lens-assigned name if
// renamed, else its original name.
func (m *EncodedMethod) RenamedName() *String {
	if m.renamedName != nil {
		return m.renamedName
	}
	return m.Ref.Name
}

func (f *EncodedField) RenamedName() *String {
	if f.renamedName != nil {
		return f.renamedName
	}
	return f.Ref.Name
}
