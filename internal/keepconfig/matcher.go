package keepconfig

import (
	"strings"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// MatchClass reports whether c matches r: every access-flag constraint
// must hold, no negated flag may hold, the class annotation must match,
// and — if an inheritance clause is present — either anySuperTypeMatches
// or anyImplementedInterfaceMatches must hold.
//
// mismatchWarning is set to true when the rule wrote `extends` but only
// `implements` matched (or vice versa): the class still matches, but the
// caller should emit exactly one warning per rule for the mismatch.
func MatchClass(factory *graph.Factory, c *graph.Class, r *Rule) (matched bool, mismatchWarning bool) {
	if r.AccessFlags != 0 && c.Access&r.AccessFlags != r.AccessFlags {
		return false, false
	}
	if r.NegatedFlags != 0 && c.Access&r.NegatedFlags != 0 {
		return false, false
	}
	if !classTypeMatches(c, r.ClassType) {
		return false, false
	}
	if r.Annotation != "" && !classHasAnnotation(c, r.Annotation) {
		return false, false
	}
	if !nameMatchesAny(c.Type.Descriptor.String(), r.ClassNames) {
		return false, false
	}
	if r.Inheritance == nil {
		return true, false
	}

	extendsMatches := graph.AnySuperTypeMatches(factory, c, func(s *graph.Class) bool {
		return inheritanceTargetMatches(s, r.Inheritance)
	})
	implementsMatches := graph.AnyImplementedInterfaceMatches(factory, c, func(s *graph.Class) bool {
		return inheritanceTargetMatches(s, r.Inheritance)
	})

	if r.Inheritance.IsImplements {
		if implementsMatches {
			return true, false
		}
		if extendsMatches {
			return true, true
		}
		return false, false
	}
	if extendsMatches {
		return true, false
	}
	if implementsMatches {
		return true, true
	}
	return false, false
}

func inheritanceTargetMatches(s *graph.Class, clause *InheritanceClause) bool {
	if clause.Annotation != "" && !classHasAnnotation(s, clause.Annotation) {
		return false
	}
	return nameMatches(s.Type.Descriptor.String(), clause.Name)
}

func classTypeMatches(c *graph.Class, ct ClassType) bool {
	switch ct {
	case ClassTypeAny:
		return true
	case ClassTypeInterface:
		return c.Access.Has(graph.AccInterface)
	case ClassTypeAnnotation:
		return c.Access.Has(graph.AccAnnotation)
	case ClassTypeEnum:
		return c.Access.Has(graph.AccEnum)
	case ClassTypeClass:
		return !c.Access.Has(graph.AccInterface) && !c.Access.Has(graph.AccAnnotation)
	default:
		return true
	}
}

func classHasAnnotation(c *graph.Class, pattern NamePattern) bool {
	for _, a := range c.Annotations {
		if nameMatches(a.Type.Descriptor.String(), pattern) {
			return true
		}
	}
	return false
}

func nameMatchesAny(descriptor string, patterns []NamePattern) bool {
	for _, p := range patterns {
		if nameMatches(descriptor, p) {
			return true
		}
	}
	return false
}

// nameMatches glob-matches a JVM descriptor (e.g. "Lfoo/Bar;") against a
// Proguard dotted-name pattern ("foo.Bar", "foo.*", "foo.**").
func nameMatches(descriptor string, pattern NamePattern) bool {
	name := descriptorToDottedName(descriptor)
	return globMatch(string(pattern), name)
}

func descriptorToDottedName(d string) string {
	d = strings.TrimPrefix(d, "L")
	d = strings.TrimSuffix(d, ";")
	return strings.ReplaceAll(d, "/", ".")
}

// globMatch implements Proguard glob semantics: '**' matches any sequence
// including '.', '*' matches any sequence not containing '.', '?' matches
// exactly one character.
func globMatch(pattern, name string) bool {
	return globMatchRunes([]rune(pattern), []rune(name))
}

func globMatchRunes(p, s []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '*':
		if len(p) > 1 && p[1] == '*' {
			for i := 0; i <= len(s); i++ {
				if globMatchRunes(p[2:], s[i:]) {
					return true
				}
			}
			return false
		}
		for i := 0; i <= len(s); i++ {
			if i > 0 && s[i-1] == '.' {
				break
			}
			if globMatchRunes(p[1:], s[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return globMatchRunes(p[1:], s[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return globMatchRunes(p[1:], s[1:])
	}
}

// MatchMethod reports whether the method m matches mr.
func MatchMethod(m *graph.EncodedMethod, mr *MemberRule) bool {
	if mr.Kind != MemberMethod && mr.Kind != MemberConstructor &&
		mr.Kind != MemberAllMethods && mr.Kind != MemberAll && mr.Kind != MemberInit {
		return false
	}
	if mr.AccessFlags != 0 && m.Access&mr.AccessFlags != mr.AccessFlags {
		return false
	}
	if mr.NegatedFlags != 0 && m.Access&mr.NegatedFlags != 0 {
		return false
	}
	switch mr.Kind {
	case MemberAllMethods, MemberAll:
		return true
	case MemberInit, MemberConstructor:
		return m.IsConstructor()
	case MemberMethod:
		if !nameMatches2(m.Ref.Name.String(), mr.Name) {
			return false
		}
		if mr.ReturnType != "" && !nameMatches(m.Ref.Proto.Return.String(), mr.ReturnType) {
			return false
		}
		if mr.ParamTypes != nil && len(mr.ParamTypes) != len(m.Ref.Proto.Params) {
			return false
		}
		for i, pt := range mr.ParamTypes {
			if !nameMatches(m.Ref.Proto.Params[i].Descriptor.String(), pt) {
				return false
			}
		}
		return true
	}
	return false
}

func MatchField(f *graph.EncodedField, mr *MemberRule) bool {
	if mr.Kind != MemberField && mr.Kind != MemberAllFields && mr.Kind != MemberAll {
		return false
	}
	if mr.AccessFlags != 0 && f.Access&mr.AccessFlags != mr.AccessFlags {
		return false
	}
	if mr.NegatedFlags != 0 && f.Access&mr.NegatedFlags != 0 {
		return false
	}
	switch mr.Kind {
	case MemberAllFields, MemberAll:
		return true
	case MemberField:
		if !nameMatches2(f.Ref.Name.String(), mr.Name) {
			return false
		}
		if mr.FieldType != "" && !nameMatches(f.Ref.Type.Descriptor.String(), mr.FieldType) {
			return false
		}
		return true
	}
	return false
}

// nameMatches2 glob-matches a plain identifier (method/field simple name,
// not a dotted type name) against a pattern.
func nameMatches2(name string, pattern NamePattern) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return globMatch(string(pattern), name)
}
