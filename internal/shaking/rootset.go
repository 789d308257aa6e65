package shaking

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/r8shrink/internal/graph"
	"github.com/mabhi256/r8shrink/internal/keepconfig"
)

// KeepInterval records an assume-values/assume-no-side-effect return-value
// range, recorded verbatim: this compiler does not consume the interval
// itself, it only threads it through for an optimizer stage to read.
type KeepInterval struct {
	Low, High *int64
}

// RootSet is the immutable output of RootSetBuilder.Run: per-item modifier
// flags plus the conditional-survival map.
type RootSet struct {
	NoShrinking     map[Item]bool
	NoOptimization  map[Item]bool
	NoObfuscation   map[Item]bool
	ReasonAsked     map[Item]bool
	KeepPackageName map[Item]bool
	CheckDiscarded  map[Item]bool
	AlwaysInline    map[Item]bool
	NoSideEffects   map[Item]bool
	AssumedValues   map[Item]KeepInterval

	// DependentNoShrinking expresses "if X survives, then Y also
	// survives": DependentNoShrinking[X][Y] = the rule responsible.
	DependentNoShrinking map[Item]map[Item]*keepconfig.Rule
}

func newRootSet() *RootSet {
	return &RootSet{
		NoShrinking:          make(map[Item]bool),
		NoOptimization:       make(map[Item]bool),
		NoObfuscation:        make(map[Item]bool),
		ReasonAsked:          make(map[Item]bool),
		KeepPackageName:      make(map[Item]bool),
		CheckDiscarded:       make(map[Item]bool),
		AlwaysInline:         make(map[Item]bool),
		NoSideEffects:        make(map[Item]bool),
		AssumedValues:        make(map[Item]KeepInterval),
		DependentNoShrinking: make(map[Item]map[Item]*keepconfig.Rule),
	}
}

// GetDependentItems returns the items whose survival depends on item's,
// per the rule that introduced the dependency.
func (rs *RootSet) GetDependentItems(item Item) map[Item]*keepconfig.Rule {
	return rs.DependentNoShrinking[item]
}

// RootSetBuilder applies every rule in a Configuration to every program
// (and optionally library) item.
type RootSetBuilder struct {
	factory *graph.Factory
	classes []*graph.Class
	cfg     *keepconfig.Configuration
	log     logr.Logger

	mu   sync.Mutex
	set  *RootSet
	seen map[*keepconfig.Rule]bool // per-rule dedup for the extends/implements mismatch warning
}

func NewRootSetBuilder(factory *graph.Factory, classes []*graph.Class, cfg *keepconfig.Configuration, log logr.Logger) *RootSetBuilder {
	return &RootSetBuilder{
		factory: factory,
		classes: classes,
		cfg:     cfg,
		log:     log,
		set:     newRootSet(),
		seen:    make(map[*keepconfig.Rule]bool),
	}
}

// Run applies every configured rule and returns the resolved RootSet.
// Rules with a specific-only class-name list are applied by direct
// iteration; unrestricted rules scan the whole class set in parallel via
// errgroup, since one rule's match has no bearing on another's.
func (b *RootSetBuilder) Run() (*RootSet, error) {
	var unrestricted []*keepconfig.Rule
	for i := range b.cfg.Rules {
		r := &b.cfg.Rules[i]
		if r.IsSpecificOnly() {
			if err := b.applyRuleToClasses(r, b.classesNamed(r)); err != nil {
				return nil, err
			}
		} else {
			unrestricted = append(unrestricted, r)
		}
	}

	var eg errgroup.Group
	for _, r := range unrestricted {
		r := r
		eg.Go(func() error {
			return b.applyRuleToClasses(r, b.classes)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return b.set, nil
}

func (b *RootSetBuilder) classesNamed(r *keepconfig.Rule) []*graph.Class {
	wanted := make(map[string]bool, len(r.ClassNames))
	for _, n := range r.ClassNames {
		wanted[string(n)] = true
	}
	var out []*graph.Class
	for _, c := range b.classes {
		if wanted[dottedName(c)] {
			out = append(out, c)
		}
	}
	return out
}

func dottedName(c *graph.Class) string {
	d := c.Type.Descriptor.String()
	return keepconfigDescriptorToDotted(d)
}

// keepconfigDescriptorToDotted avoids exporting keepconfig's internal glob
// helpers; it duplicates the trivial L...; -> dotted conversion.
func keepconfigDescriptorToDotted(d string) string {
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		d = d[1 : len(d)-1]
	}
	out := make([]byte, len(d))
	for i := 0; i < len(d); i++ {
		if d[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = d[i]
		}
	}
	return string(out)
}

func (b *RootSetBuilder) applyRuleToClasses(r *keepconfig.Rule, classes []*graph.Class) error {
	for _, c := range classes {
		matched, mismatch := keepconfig.MatchClass(b.factory, c, r)
		if !matched {
			continue
		}
		if mismatch {
			b.warnMismatchOnce(r)
		}
		if err := b.processMatch(c, r); err != nil {
			return err
		}
	}
	return nil
}

func (b *RootSetBuilder) warnMismatchOnce(r *keepconfig.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen[r] {
		return
	}
	b.seen[r] = true
	b.log.Info("rule used extends/implements but only the other clause matched", "file", r.File, "line", r.Line)
}

// processMatch applies rule-kind dispatch for a class that matched r.
func (b *RootSetBuilder) processMatch(c *graph.Class, r *keepconfig.Rule) error {
	switch r.Kind {
	case keepconfig.RuleKeepClassMembers:
		return b.markMatchingMembers(c, r, false)
	case keepconfig.RuleKeep:
		b.addItemToSets(OfClass(c), r)
		return b.markMatchingMembers(c, r, true)
	case keepconfig.RuleKeepClassesWithMembers:
		if !b.allMemberRulesSatisfied(c, r) {
			return nil
		}
		b.addItemToSets(OfClass(c), r)
		return b.markMatchingMembers(c, r, true)
	case keepconfig.RuleWhyAreYouKeeping:
		b.mu.Lock()
		b.set.ReasonAsked[OfClass(c)] = true
		b.mu.Unlock()
		return nil
	case keepconfig.RuleCheckDiscard:
		b.mu.Lock()
		b.set.CheckDiscarded[OfClass(c)] = true
		b.mu.Unlock()
		return nil
	case keepconfig.RuleAlwaysInline:
		return b.markMatchingMethodsWithInterval(c, r, func(item Item, iv KeepInterval) {
			b.mu.Lock()
			b.set.AlwaysInline[item] = true
			b.mu.Unlock()
		})
	case keepconfig.RuleAssumeNoSideEffect:
		return b.markMatchingMethodsWithInterval(c, r, func(item Item, iv KeepInterval) {
			b.mu.Lock()
			b.set.NoSideEffects[item] = true
			if iv.Low != nil {
				b.set.AssumedValues[item] = iv
			}
			b.mu.Unlock()
		})
	case keepconfig.RuleAssumeValues:
		return b.markMatchingMethodsWithInterval(c, r, func(item Item, iv KeepInterval) {
			b.mu.Lock()
			b.set.AssumedValues[item] = iv
			b.mu.Unlock()
		})
	default:
		return fmt.Errorf("unhandled rule kind %d", r.Kind)
	}
}

// allMemberRulesSatisfied implements ruleSatisfied/allRulesSatisfied for
// KEEP_CLASSES_WITH_MEMBERS: the class only qualifies if every member rule
// in r finds at least one match on c.
func (b *RootSetBuilder) allMemberRulesSatisfied(c *graph.Class, r *keepconfig.Rule) bool {
	for _, mr := range r.Members {
		mr := mr
		satisfied := false
		for _, m := range c.AllMethods() {
			if keepconfig.MatchMethod(m, &mr) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			for _, f := range c.AllFields() {
				if keepconfig.MatchField(f, &mr) {
					satisfied = true
					break
				}
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// markMatchingMembers marks members matching r's member rules and, when
// r.IncludeDescriptorClasses is set, applies includeDescriptorClasses for
// each marked member; markClassDescriptors is not consulted.
func (b *RootSetBuilder) markMatchingMembers(c *graph.Class, r *keepconfig.Rule, markClassDescriptors bool) error {
	if len(r.Members) == 0 {
		return nil
	}
	for _, mr := range r.Members {
		mr := mr
		for _, m := range c.AllMethods() {
			if keepconfig.MatchMethod(m, &mr) {
				item := OfMethod(m)
				b.addItemToSets(item, r)
				if r.IncludeDescriptorClasses {
					b.includeDescriptorClasses(item, m, r)
				}
			}
		}
		for _, f := range c.AllFields() {
			if keepconfig.MatchField(f, &mr) {
				item := OfField(f)
				b.addItemToSets(item, r)
				if r.IncludeDescriptorClasses {
					b.includeFieldDescriptorClass(item, f, r)
				}
			}
		}
	}
	return nil
}

func (b *RootSetBuilder) markMatchingMethodsWithInterval(c *graph.Class, r *keepconfig.Rule, record func(Item, KeepInterval)) error {
	for _, mr := range r.Members {
		mr := mr
		for _, m := range c.AllMethods() {
			if keepconfig.MatchMethod(m, &mr) {
				record(OfMethod(m), KeepInterval{Low: mr.ReturnValueLow, High: mr.ReturnValueHigh})
			}
		}
	}
	return nil
}

// includeDescriptorClasses implements the "include descriptor classes"
// modifier: every method's parameter and return types are added to
// DependentNoShrinking[item] so they survive iff item does.
func (b *RootSetBuilder) includeDescriptorClasses(item Item, m *graph.EncodedMethod, r *keepconfig.Rule) {
	add := func(t *graph.Type) {
		def := b.factory.DefinitionFor(t)
		if def == nil {
			return
		}
		b.addDependency(item, OfClass(def), r)
	}
	if m.Ref.Proto.Return.String() != "V" {
		if rt := b.factory.CreateType(m.Ref.Proto.Return.String()); rt != nil {
			add(rt)
		}
	}
	for _, p := range m.Ref.Proto.Params {
		add(p)
	}
}

func (b *RootSetBuilder) includeFieldDescriptorClass(item Item, f *graph.EncodedField, r *keepconfig.Rule) {
	def := b.factory.DefinitionFor(f.Ref.Type)
	if def == nil {
		return
	}
	b.addDependency(item, OfClass(def), r)
}

func (b *RootSetBuilder) addDependency(dependsOn, dependent Item, r *keepconfig.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.set.DependentNoShrinking[dependsOn]
	if !ok {
		m = make(map[Item]*keepconfig.Rule)
		b.set.DependentNoShrinking[dependsOn] = m
	}
	m[dependent] = r
}

// addItemToSets is the core synchronized dispatcher: apply the flags
// implied by r's kind and allow* modifiers to item.
func (b *RootSetBuilder) addItemToSets(item Item, r *keepconfig.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !r.AllowShrinking {
		b.set.NoShrinking[item] = true
	}
	if !r.AllowOptimization {
		b.set.NoOptimization[item] = true
	}
	if !r.AllowObfuscation {
		b.set.NoObfuscation[item] = true
	}
}

// WriteSeeds renders the resolved root set in Proguard -printseeds format:
// one class/member descriptor per line, sorted for determinism.
func WriteSeeds(rs *RootSet) string {
	var lines []string
	for item := range rs.NoShrinking {
		lines = append(lines, item.String())
	}
	sort.Strings(lines)
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
