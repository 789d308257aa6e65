package naming

import (
	"sort"
	"strings"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// PackageObfuscationMode mirrors keepconfig.PackageObfuscationMode without
// importing that package (naming stays a leaf package).
type PackageObfuscationMode int

const (
	PackageObfuscationNone PackageObfuscationMode = iota
	PackageObfuscationRepackage
	PackageObfuscationFlatten
)

// classNamespace is the per-package-prefix naming state: a package-prefix
// string, a type counter, a package counter, and two dictionary iterators
// (class, package).
type classNamespace struct {
	prefix       string // e.g. "a/b" (no leading L, no trailing ;)
	typeCounter  int
	pkgCounter   int
	classDict    []string
	classDictIdx int
	pkgDict      []string
	pkgDictIdx   int

	usedTypeNames     map[string]bool
	usedPackagePrefixes map[string]bool

	children map[string]*classNamespace
}

func newClassNamespace(prefix string, classDict, pkgDict []string) *classNamespace {
	return &classNamespace{
		prefix: prefix, classDict: classDict, pkgDict: pkgDict,
		usedTypeNames: make(map[string]bool), usedPackagePrefixes: make(map[string]bool),
		children: make(map[string]*classNamespace),
	}
}

// nextTypeName yields packagePrefix + (dict-next | identifier(counter)),
// retried while a collision with usedTypeNames exists.
func (ns *classNamespace) nextTypeName() string {
	for {
		var candidate string
		if ns.classDictIdx < len(ns.classDict) {
			candidate = ns.classDict[ns.classDictIdx]
			ns.classDictIdx++
		} else {
			candidate = numberToIdentifier(ns.typeCounter)
			ns.typeCounter++
		}
		full := joinDescriptor(ns.prefix, candidate)
		if !ns.usedTypeNames[full] {
			ns.usedTypeNames[full] = true
			return full
		}
	}
}

// nextSubpackagePrefix yields an analogous fresh subpackage name, retried
// against usedPackagePrefixes.
func (ns *classNamespace) nextSubpackagePrefix() string {
	for {
		var candidate string
		if ns.pkgDictIdx < len(ns.pkgDict) {
			candidate = ns.pkgDict[ns.pkgDictIdx]
			ns.pkgDictIdx++
		} else {
			candidate = numberToIdentifier(ns.pkgCounter)
			ns.pkgCounter++
		}
		full := joinDescriptor(ns.prefix, candidate)
		if !ns.usedPackagePrefixes[full] {
			ns.usedPackagePrefixes[full] = true
			return full
		}
	}
}

func joinDescriptor(prefix, leaf string) string {
	if prefix == "" {
		return leaf
	}
	return prefix + "/" + leaf
}

// ClassNameMinifier produces a Type -> String renaming.
type ClassNameMinifier struct {
	factory *graph.Factory
	mode    PackageObfuscationMode

	root          *classNamespace
	byPackage     map[string]*classNamespace
	usedOriginal  map[string]bool // classes whose current name is kept as-is
	keepInner     bool

	lens *graph.Lens
}

func NewClassNameMinifier(factory *graph.Factory, mode PackageObfuscationMode, keepInnerClass bool, classDict, pkgDict []string) *ClassNameMinifier {
	return &ClassNameMinifier{
		factory:      factory,
		mode:         mode,
		root:         newClassNamespace("", classDict, pkgDict),
		byPackage:    make(map[string]*classNamespace),
		usedOriginal: make(map[string]bool),
		keepInner:    keepInnerClass,
		lens:         graph.NewLens(),
	}
}

// Run renames every class not pinned by a no-obfuscation keep rule, where
// noObfuscation reports whether a class's root-set flags include
// no-obfuscation, and enclosingClassOf resolves @EnclosingClass.
func (m *ClassNameMinifier) Run(classes []*graph.Class, noObfuscation func(*graph.Class) bool, enclosingClassOf func(*graph.Class) *graph.Class, keepPackageName func(*graph.Class) bool) *graph.Lens {
	sorted := append([]*graph.Class(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Type.String() < sorted[j].Type.String()
	})

	for _, c := range sorted {
		if noObfuscation(c) {
			m.registerUsedRecursively(c, enclosingClassOf)
		}
	}

	for _, c := range sorted {
		if m.usedOriginal[c.Type.String()] {
			continue
		}
		var newName string
		switch {
		case keepPackageName(c):
			newName = m.renameInExactPackage(c)
		case m.keepInner && enclosingClassOf(c) != nil:
			newName = m.renameAsInnerClass(c, enclosingClassOf, noObfuscation, keepPackageName)
		default:
			newName = m.renameUnderMode(c)
		}
		m.lens.RenameType(c.Type, m.factory.CreateString([]byte(newName)))
	}
	return m.lens
}

func (m *ClassNameMinifier) registerUsedRecursively(c *graph.Class, enclosingClassOf func(*graph.Class) *graph.Class) {
	m.usedOriginal[c.Type.String()] = true
	if m.keepInner {
		if outer := enclosingClassOf(c); outer != nil {
			m.registerUsedRecursively(outer, enclosingClassOf)
		}
	}
}

func (m *ClassNameMinifier) namespaceFor(pkg string) *classNamespace {
	if ns, ok := m.byPackage[pkg]; ok {
		return ns
	}
	ns := newClassNamespace(pkg, m.root.classDict, m.root.pkgDict)
	m.byPackage[pkg] = ns
	return ns
}

func (m *ClassNameMinifier) renameInExactPackage(c *graph.Class) string {
	pkg := packageOf(c.Type.String())
	ns := m.namespaceFor(pkg)
	return "L" + ns.nextTypeName() + ";"
}

func (m *ClassNameMinifier) renameUnderMode(c *graph.Class) string {
	switch m.mode {
	case PackageObfuscationRepackage:
		return "L" + m.root.nextTypeName() + ";"
	case PackageObfuscationFlatten:
		pkg := packageOf(c.Type.String())
		ns, ok := m.byPackage[pkg]
		if !ok {
			prefix := m.root.nextSubpackagePrefix()
			ns = m.namespaceFor(prefix)
			m.byPackage[pkg] = ns
		}
		return "L" + ns.nextTypeName() + ";"
	default: // PackageObfuscationNone: allocate a fresh prefix recursively up to the root
		pkg := packageOf(c.Type.String())
		ns := m.recursivePackageNamespace(pkg)
		return "L" + ns.nextTypeName() + ";"
	}
}

// recursivePackageNamespace implements "La/b/c derives its prefix from
// La/b's state" by building each package level's namespace from its
// parent's nextSubpackagePrefix, memoized in byPackage.
func (m *ClassNameMinifier) recursivePackageNamespace(pkg string) *classNamespace {
	if ns, ok := m.byPackage[pkg]; ok {
		return ns
	}
	if pkg == "" {
		return m.root
	}
	parentPkg, _ := splitLastSegment(pkg)
	parentNS := m.recursivePackageNamespace(parentPkg)
	prefix := parentNS.nextSubpackagePrefix()
	ns := newClassNamespace(prefix, m.root.classDict, m.root.pkgDict)
	m.byPackage[pkg] = ns
	return ns
}

func (m *ClassNameMinifier) renameAsInnerClass(c *graph.Class, enclosingClassOf func(*graph.Class) *graph.Class, noObfuscation func(*graph.Class) bool, keepPackageName func(*graph.Class) bool) string {
	outer := enclosingClassOf(c)
	outerNewDescriptor := m.lens.LookupType(outer.Type).String()
	outerName := strings.TrimSuffix(strings.TrimPrefix(outerNewDescriptor, "L"), ";")
	ns := m.namespaceFor(outerName + "$")
	suffix := ns.nextTypeName()
	return "L" + outerName + "$" + lastSegment(suffix) + ";"
}

func packageOf(descriptor string) string {
	d := strings.TrimPrefix(descriptor, "L")
	d = strings.TrimSuffix(d, ";")
	if i := strings.LastIndex(d, "/"); i >= 0 {
		return d[:i]
	}
	return ""
}

func splitLastSegment(pkg string) (parent, leaf string) {
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		return pkg[:i], pkg[i+1:]
	}
	return "", pkg
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// RewriteArrayDescriptor renames "[[...[Lbase;" to "[[...[Lnew;" using the
// lens.
func RewriteArrayDescriptor(lens *graph.Lens, elementType *graph.Type, dims int) string {
	newName := lens.LookupType(elementType).String()
	return strings.Repeat("[", dims) + newName
}
