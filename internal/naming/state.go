// Package naming implements the class- and method-name minifiers, built
// on a generic chain-parented NamingState.
package naming

import (
	"github.com/mabhi256/r8shrink/internal/graph"
)

// NamingState is a chain-parented naming state keyed by an arbitrary proto
// type P; each proto gets its own internalState, found by walking up the
// parent chain on lookup and allocated on demand.
type NamingState[P comparable] struct {
	parent     *NamingState[P]
	perProto   map[P]*internalState
	dictionary []string
}

func NewRootNamingState[P comparable](dictionary []string) *NamingState[P] {
	return &NamingState[P]{perProto: make(map[P]*internalState), dictionary: dictionary}
}

func (s *NamingState[P]) CreateChild() *NamingState[P] {
	return &NamingState[P]{parent: s, perProto: make(map[P]*internalState), dictionary: s.dictionary}
}

func (s *NamingState[P]) findInternal(proto P) *internalState {
	if st, ok := s.perProto[proto]; ok {
		return st
	}
	if s.parent != nil {
		return s.parent.findInternal(proto)
	}
	return nil
}

func (s *NamingState[P]) getOrCreateInternal(proto P) *internalState {
	if st, ok := s.perProto[proto]; ok {
		return st
	}
	var st *internalState
	if s.parent != nil {
		parentState := s.parent.getOrCreateInternal(proto)
		st = parentState.createChild()
	} else {
		st = newInternalState(nil, s.dictionary)
	}
	s.perProto[proto] = st
	return st
}

func (s *NamingState[P]) GetAssignedNameFor(original string, proto P) (string, bool) {
	st := s.findInternal(proto)
	if st == nil {
		return "", false
	}
	return st.getAssignedNameFor(original)
}

// AssignNewNameFor returns the existing renaming if one exists; otherwise
// allocates and (if markAsUsed) registers a fresh name.
func (s *NamingState[P]) AssignNewNameFor(original string, proto P, markAsUsed bool) string {
	if name, ok := s.GetAssignedNameFor(original, proto); ok {
		return name
	}
	st := s.getOrCreateInternal(proto)
	return st.getNameFor(original, markAsUsed)
}

func (s *NamingState[P]) ReserveName(name string, proto P) {
	s.getOrCreateInternal(proto).reserveName(name)
}

func (s *NamingState[P]) IsReserved(name string, proto P) bool {
	st := s.findInternal(proto)
	if st == nil {
		return false
	}
	return st.isReserved(name)
}

func (s *NamingState[P]) IsAvailable(proto P, candidate string) bool {
	st := s.findInternal(proto)
	if st == nil {
		return true
	}
	return st.isAvailable(candidate)
}

func (s *NamingState[P]) AddRenaming(original string, proto P, newName string) {
	s.getOrCreateInternal(proto).addRenaming(original, newName)
}

// internalState is the per-proto reservation/renaming state, chain-parented
// the same way NamingState is.
type internalState struct {
	parent        *internalState
	reservedNames map[string]bool
	renamings     map[string]string
	usedValues    map[string]bool
	nameCount     int
	dictionary    []string
	dictIdx       int
}

const initialNameCount = 1

func newInternalState(parent *internalState, dictionary []string) *internalState {
	count := initialNameCount
	if parent != nil {
		count = parent.nameCount
	}
	return &internalState{parent: parent, nameCount: count, dictionary: dictionary}
}

func (s *internalState) createChild() *internalState {
	return newInternalState(s, s.dictionary)
}

func (s *internalState) isReserved(name string) bool {
	if s.reservedNames != nil && s.reservedNames[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.isReserved(name)
	}
	return false
}

func (s *internalState) isAvailable(name string) bool {
	if s.usedValues != nil && s.usedValues[name] {
		return false
	}
	if s.reservedNames != nil && s.reservedNames[name] {
		return false
	}
	if s.parent != nil {
		return s.parent.isAvailable(name)
	}
	return true
}

func (s *internalState) reserveName(name string) {
	if s.reservedNames == nil {
		s.reservedNames = make(map[string]bool)
	}
	s.reservedNames[name] = true
}

func (s *internalState) getAssignedNameFor(original string) (string, bool) {
	if s.renamings != nil {
		if n, ok := s.renamings[original]; ok {
			return n, true
		}
	}
	if s.parent != nil {
		return s.parent.getAssignedNameFor(original)
	}
	return "", false
}

func (s *internalState) getNameFor(original string, markAsUsed bool) string {
	if name, ok := s.getAssignedNameFor(original); ok {
		return name
	}
	var name string
	for {
		name = s.nextSuggestedName()
		if s.isAvailable(name) {
			break
		}
	}
	if markAsUsed {
		s.addRenaming(original, name)
	}
	return name
}

func (s *internalState) addRenaming(original, newName string) {
	if s.renamings == nil {
		s.renamings = make(map[string]string)
	}
	if s.usedValues == nil {
		s.usedValues = make(map[string]bool)
	}
	s.renamings[original] = newName
	s.usedValues[newName] = true
}

func (s *internalState) nextSuggestedName() string {
	if s.dictIdx < len(s.dictionary) {
		name := s.dictionary[s.dictIdx]
		s.dictIdx++
		return name
	}
	n := s.nameCount
	s.nameCount++
	return numberToIdentifier(n)
}

// numberToIdentifier renders n as a base-26 lowercase identifier: a, b,
// ..., z, aa, ab, ... matching the original's dictionary-exhausted
// fallback naming.
func numberToIdentifier(n int) string {
	if n <= 0 {
		return "a"
	}
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('a' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}

// protoKeyFor renders a graph.Proto as a comparable key for NamingState's
// generic parameter, since *graph.Proto is already comparable (interned)
// but method signatures also distinguish by declared holder in some
// phases; callers choose which proto type to instantiate NamingState with.
func protoKeyFor(p *graph.Proto) string {
	s := p.Return.String()
	for _, t := range p.Params {
		s += "," + t.String()
	}
	return s
}
