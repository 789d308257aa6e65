// Package keepconfig implements the Proguard-style keep-rule configuration
// model: the rule AST, a line/column-tracking parser, and the matcher that
// classifies program items against a parsed Configuration.
package keepconfig

import "github.com/mabhi256/r8shrink/internal/graph"

// RuleKind is one of the Proguard keep-rule kinds this parser accepts.
type RuleKind int

const (
	RuleKeep RuleKind = iota
	RuleKeepClassMembers
	RuleKeepClassesWithMembers
	RuleWhyAreYouKeeping
	RuleKeepPackageNames
	RuleCheckDiscard
	RuleAssumeNoSideEffect
	RuleAssumeValues
	RuleAlwaysInline
	RuleDontWarn
)

// ClassType restricts a class-name pattern to a class, interface,
// annotation type, or enum.
type ClassType int

const (
	ClassTypeAny ClassType = iota
	ClassTypeClass
	ClassTypeInterface
	ClassTypeAnnotation
	ClassTypeEnum
)

// NamePattern is a single Proguard class- or member-name glob over dotted
// names: '*' matches any sequence not containing '.', '**' matches any
// sequence including '.', '?' matches one character.
type NamePattern string

// InheritanceClause is the optional `extends` / `implements` clause on a
// class rule.
type InheritanceClause struct {
	IsImplements bool // false => extends
	Annotation   NamePattern
	Name         NamePattern
}

// MemberPatternKind distinguishes the member-rule shapes a class rule's
// member-rule set can name.
type MemberPatternKind int

const (
	MemberAllMethods MemberPatternKind = iota
	MemberAllFields
	MemberInit
	MemberConstructor
	MemberMethod
	MemberField
	MemberAll
)

// MemberRule is one member-rule inside a class rule's member-rule set.
type MemberRule struct {
	Kind            MemberPatternKind
	AccessFlags     graph.AccessFlags
	NegatedFlags    graph.AccessFlags
	Annotation      NamePattern
	ReturnType      NamePattern // empty => any
	Name            NamePattern
	ParamTypes      []NamePattern // nil => any arity/types, for MemberMethod
	FieldType       NamePattern   // for MemberField
	ReturnValueLow  *int64        // assume-values / assume-no-side-effect interval
	ReturnValueHigh *int64
}

// Rule is a single parsed keep-rule.
type Rule struct {
	Kind                  RuleKind
	Annotation            NamePattern
	ClassType             ClassType
	AccessFlags           graph.AccessFlags
	NegatedFlags          graph.AccessFlags
	ClassNames            []NamePattern // specific-only if every entry has no wildcard
	Inheritance           *InheritanceClause
	Members               []MemberRule
	IncludeDescriptorClasses bool

	// AllowShrinking/AllowOptimization/AllowObfuscation are the
	// ",allowshrinking"/",allowoptimization/",allowobfuscation" modifiers;
	// when true the corresponding no-* flag is NOT applied even though the
	// rule otherwise matches.
	AllowShrinking    bool
	AllowOptimization bool
	AllowObfuscation  bool

	// Source location for diagnostics: file, line, column of the rule.
	File   string
	Line   int
	Column int
}

// IsSpecificOnly reports whether every class-name pattern in r names an
// exact class (no wildcard characters), letting the root-set builder
// iterate just those classes instead of scanning the whole program.
func (r *Rule) IsSpecificOnly() bool {
	for _, p := range r.ClassNames {
		if hasWildcard(string(p)) {
			return false
		}
	}
	return len(r.ClassNames) > 0
}

func hasWildcard(s string) bool {
	for _, c := range s {
		if c == '*' || c == '?' {
			return true
		}
	}
	return false
}

// PackageObfuscationMode is one of {none, repackage, flatten}.
type PackageObfuscationMode int

const (
	PackageObfuscationNone PackageObfuscationMode = iota
	PackageObfuscationRepackage
	PackageObfuscationFlatten
)

// Configuration is the immutable parsed result of one or more Proguard
// rule sources.
type Configuration struct {
	Rules []Rule

	Shrink                bool
	Obfuscate             bool
	Optimize              bool
	PackageObfuscationMode PackageObfuscationMode
	PackagePrefix         string
	AttributeRemoval      []NamePattern
	Dictionaries          []string // class-name dictionary file paths
	PackageDictionaries   []string
	LibraryPaths          []string
	InjectPaths           []string
	IgnoreMissingClasses  bool
	DontWarnPatterns      []NamePattern // -dontwarn glob patterns
	KeepInnerClasses      bool
	PrintSeedsPath        string // -printseeds output path, empty if unset
}
