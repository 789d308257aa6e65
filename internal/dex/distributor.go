// Package dex implements the virtual-file distributor and application
// writer driver.
package dex

import (
	"fmt"
	"sort"

	"github.com/mabhi256/r8shrink/internal/compileerr"
	"github.com/mabhi256/r8shrink/internal/graph"
)

func capacityError(vf *VirtualFile, offending *graph.Class) error {
	return compileerr.Capacity(vf.ID, fmt.Sprintf("adding %s would exceed the 65536 reference cap", offending.Type))
}

const (
	MaxMethodRefs = 65536
	MaxFieldRefs  = 65536
	MaxTypeRefs   = 65536
)

// Mode selects one of the four distribution strategies.
type Mode int

const (
	ModeFilePerClass Mode = iota
	ModeMonoDex
	ModeFillFiles
	ModePackageMap
)

// VirtualFile is one DEX file's class assignment, tracked with running
// reference-count deltas for capacity checking.
type VirtualFile struct {
	ID      int
	Classes []*graph.Class

	methodRefs map[*graph.MethodRef]bool
	fieldRefs  map[*graph.FieldRef]bool
	typeRefs   map[*graph.Type]bool
}

func newVirtualFile(id int) *VirtualFile {
	return &VirtualFile{
		ID:         id,
		methodRefs: make(map[*graph.MethodRef]bool),
		fieldRefs:  make(map[*graph.FieldRef]bool),
		typeRefs:   make(map[*graph.Type]bool),
	}
}

func (vf *VirtualFile) MethodRefCount() int { return len(vf.methodRefs) }
func (vf *VirtualFile) FieldRefCount() int  { return len(vf.fieldRefs) }
func (vf *VirtualFile) TypeRefCount() int   { return len(vf.typeRefs) }

// delta returns how many NEW method/field/type refs adding c would add.
func (vf *VirtualFile) delta(c *graph.Class, refsOf func(*graph.Class) (methods []*graph.MethodRef, fields []*graph.FieldRef, types []*graph.Type)) (newMethods, newFields, newTypes int) {
	methods, fields, types := refsOf(c)
	seenMethods := make(map[*graph.MethodRef]bool)
	for _, m := range methods {
		if !vf.methodRefs[m] && !seenMethods[m] {
			seenMethods[m] = true
			newMethods++
		}
	}
	seenFields := make(map[*graph.FieldRef]bool)
	for _, f := range fields {
		if !vf.fieldRefs[f] && !seenFields[f] {
			seenFields[f] = true
			newFields++
		}
	}
	seenTypes := make(map[*graph.Type]bool)
	for _, t := range types {
		if !vf.typeRefs[t] && !seenTypes[t] {
			seenTypes[t] = true
			newTypes++
		}
	}
	return
}

func (vf *VirtualFile) fits(c *graph.Class, refsOf func(*graph.Class) ([]*graph.MethodRef, []*graph.FieldRef, []*graph.Type)) bool {
	dm, df, dt := vf.delta(c, refsOf)
	return vf.MethodRefCount()+dm <= MaxMethodRefs &&
		vf.FieldRefCount()+df <= MaxFieldRefs &&
		vf.TypeRefCount()+dt <= MaxTypeRefs
}

func (vf *VirtualFile) add(c *graph.Class, refsOf func(*graph.Class) ([]*graph.MethodRef, []*graph.FieldRef, []*graph.Type)) {
	vf.Classes = append(vf.Classes, c)
	methods, fields, types := refsOf(c)
	for _, m := range methods {
		vf.methodRefs[m] = true
	}
	for _, f := range fields {
		vf.fieldRefs[f] = true
	}
	for _, t := range types {
		vf.typeRefs[t] = true
	}
}

// RefsOf is the reference-extraction callback a Distributor needs: every
// method ref, field ref, and type ref a class's code touches. Provided by
// the caller rather than computed here, since it depends on the DEX
// binary codec's exact code representation.
type RefsOf func(*graph.Class) (methods []*graph.MethodRef, fields []*graph.FieldRef, types []*graph.Type)

// Distributor partitions surviving classes into VirtualFiles.
type Distributor struct {
	mode          Mode
	refsOf        RefsOf
	mainDexList   map[*graph.Type]bool
	minimalMainDex bool
	packageMap    map[string]int // package -> dex id, for ModePackageMap
}

func NewDistributor(mode Mode, refsOf RefsOf, mainDexList map[*graph.Type]bool, minimalMainDex bool, packageMap map[string]int) *Distributor {
	return &Distributor{mode: mode, refsOf: refsOf, mainDexList: mainDexList, minimalMainDex: minimalMainDex, packageMap: packageMap}
}

// Distribute runs the configured mode over classes and returns a
// contiguous sequence of non-empty virtual files. In mono-dex, fill-files
// and package-map mode the primary DEX (id 0) contains every class in the
// main-dex list; in file-per-class mode each class gets its own file and
// the main-dex list is not consulted.
func (d *Distributor) Distribute(classes []*graph.Class) ([]*VirtualFile, error) {
	sorted := append([]*graph.Class(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type.String() < sorted[j].Type.String() })

	switch d.mode {
	case ModeFilePerClass:
		return d.distributeFilePerClass(sorted)
	case ModeMonoDex:
		return d.distributeMonoDex(sorted)
	case ModePackageMap:
		return d.distributePackageMap(sorted)
	default:
		return d.distributeFillFiles(sorted)
	}
}

func (d *Distributor) distributeFilePerClass(classes []*graph.Class) ([]*VirtualFile, error) {
	var out []*VirtualFile
	for i, c := range classes {
		vf := newVirtualFile(i)
		vf.add(c, d.refsOf)
		out = append(out, vf)
	}
	return out, nil
}

func (d *Distributor) distributeMonoDex(classes []*graph.Class) ([]*VirtualFile, error) {
	vf := newVirtualFile(0)
	for _, c := range classes {
		if !vf.fits(c, d.refsOf) {
			return nil, capacityError(vf, c)
		}
		vf.add(c, d.refsOf)
	}
	return []*VirtualFile{vf}, nil
}

// distributeFillFiles greedily bin-packs classes: for each class (in
// deterministic order), assign to the first DEX that fits; open a new DEX
// when none fits. The main-dex-list classes are placed in the primary DEX
// first (mainDexList is trusted as already-transitive). When
// minimalMainDex is set and the list is non-empty, no other class is
// placed in the primary DEX.
func (d *Distributor) distributeFillFiles(classes []*graph.Class) ([]*VirtualFile, error) {
	var primaryClasses, rest []*graph.Class
	if len(d.mainDexList) > 0 {
		for _, c := range classes {
			if d.mainDexList[c.Type] {
				primaryClasses = append(primaryClasses, c)
			} else {
				rest = append(rest, c)
			}
		}
	} else {
		rest = classes
	}

	files := []*VirtualFile{newVirtualFile(0)}
	for _, c := range primaryClasses {
		if !files[0].fits(c, d.refsOf) {
			return nil, capacityError(files[0], c)
		}
		files[0].add(c, d.refsOf)
	}
	reservePrimary := d.minimalMainDex && len(primaryClasses) > 0

	for _, c := range rest {
		placed := false
		for _, vf := range files {
			if reservePrimary && vf.ID == 0 {
				continue
			}
			if vf.fits(c, d.refsOf) {
				vf.add(c, d.refsOf)
				placed = true
				break
			}
		}
		if !placed {
			nf := newVirtualFile(len(files))
			nf.add(c, d.refsOf)
			files = append(files, nf)
		}
	}
	return files, nil
}

func (d *Distributor) distributePackageMap(classes []*graph.Class) ([]*VirtualFile, error) {
	byID := make(map[int]*VirtualFile)
	var maxID int
	for _, c := range classes {
		pkg := packageOf(c.Type.String())
		id, ok := d.packageMap[pkg]
		if !ok || d.mainDexList[c.Type] {
			id = 0
		}
		vf, ok := byID[id]
		if !ok {
			vf = newVirtualFile(id)
			byID[id] = vf
			if id > maxID {
				maxID = id
			}
		}
		vf.add(c, d.refsOf)
	}
	out := make([]*VirtualFile, 0, len(byID))
	for id := 0; id <= maxID; id++ {
		if vf, ok := byID[id]; ok {
			vf.ID = len(out)
			out = append(out, vf)
		}
	}
	return out, nil
}

func packageOf(descriptor string) string {
	d := descriptor
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		d = d[1 : len(d)-1]
	}
	last := -1
	for i := 0; i < len(d); i++ {
		if d[i] == '/' {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	return d[:last]
}
