package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/mabhi256/r8shrink/internal/callgraph"
	"github.com/mabhi256/r8shrink/internal/compileerr"
	"github.com/mabhi256/r8shrink/internal/dex"
	"github.com/mabhi256/r8shrink/internal/graph"
	"github.com/mabhi256/r8shrink/internal/keepconfig"
	"github.com/mabhi256/r8shrink/internal/naming"
	"github.com/mabhi256/r8shrink/internal/progress"
	"github.com/mabhi256/r8shrink/internal/readio"
	"github.com/mabhi256/r8shrink/internal/shaking"
	"github.com/mabhi256/r8shrink/utils"
)

var (
	compileOutput         string
	compileLibs           []string
	compileMinAPI         int
	compilePgConfFiles    []string
	compilePgMapOut       string
	compileNoTreeShaking  bool
	compileNoMinification bool
	compileMainDexRules   []string
	compileMainDexList    string
	compileMainDexListOut string
	compilePrintSeedsOut  string
	compileRelease        bool
	compileDebug          bool
	compileWatch          bool
	compileVerbosity      int
)

var compileCmd = &cobra.Command{
	Use:   "compile [inputs...]",
	Short: "Shrink, rename, and repackage classfiles/DEX into DEX output",
	Long: `compile runs the whole-program pipeline: read classfiles/DEX, build the
root set from -pg-conf keep rules, compute the liveness fixpoint, minify
surviving class and method names, partition into DEX files, and write
the result plus an optional rename map and main-dex list.

Arguments beginning with @ are argument files: each whitespace-separated
token in the file is spliced into the argument list in place, recursively.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".jar", ".class", ".zip", ".apk", ".dex"}, false),
	RunE:              runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "out", "output directory for classesN.dex, map, and main-dex list")
	compileCmd.Flags().StringArrayVar(&compileLibs, "lib", nil, "library classpath entry (repeatable); library classes are opaque roots")
	compileCmd.Flags().IntVar(&compileMinAPI, "min-api", 21, "minimum Android API level, selects the fill-files (21 and up) vs mono-dex distribution")
	compileCmd.Flags().StringArrayVar(&compilePgConfFiles, "pg-conf", nil, "Proguard-style keep-rule configuration file (repeatable)")
	compileCmd.Flags().StringVar(&compilePgMapOut, "pg-map", "", "write the class rename map to this path")
	compileCmd.Flags().BoolVar(&compileNoTreeShaking, "no-tree-shaking", false, "keep every program class live, skipping the enqueuer's shrink decisions")
	compileCmd.Flags().BoolVar(&compileNoMinification, "no-minification", false, "skip the class/method name minifier entirely")
	compileCmd.Flags().StringArrayVar(&compileMainDexRules, "main-dex-rules", nil, "keep-rule file whose matches seed the main-dex list (repeatable)")
	compileCmd.Flags().StringVar(&compileMainDexList, "main-dex-list", "", "file of class names that must land in the primary DEX")
	compileCmd.Flags().StringVar(&compileMainDexListOut, "main-dex-list-output", "", "write the resolved primary-DEX class list to this path")
	compileCmd.Flags().StringVar(&compilePrintSeedsOut, "print-seeds", "", "write the resolved root set in -printseeds format to this path")
	compileCmd.Flags().BoolVar(&compileRelease, "release", true, "release build: shrink, optimize, and obfuscate unless overridden by -pg-conf")
	compileCmd.Flags().BoolVar(&compileDebug, "debug", false, "debug build: disables shrinking/optimizing/obfuscating regardless of -pg-conf")
	compileCmd.Flags().BoolVar(&compileWatch, "watch", false, "render a live bubbletea dashboard of pipeline phase progress")
	compileCmd.Flags().CountVarP(&compileVerbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	log := newCompileLogger(compileVerbosity)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var dash *progress.Dashboard
	if compileWatch {
		dash = progress.NewDashboard()
		dash.Start()
		defer dash.Stop()
	}
	report := func(phase progress.Phase, detail string) {
		log.V(1).Info(detail, "phase", phase)
		if dash != nil {
			dash.Advance(phase, detail)
		}
	}

	cfg := &keepconfig.Configuration{Shrink: compileRelease, Obfuscate: compileRelease, Optimize: compileRelease}
	for _, path := range compilePgConfFiles {
		if err := parseConfFileInto(cfg, path); err != nil {
			return err
		}
	}
	if compileNoTreeShaking {
		cfg.Shrink = false
	}
	if compileNoMinification {
		cfg.Obfuscate = false
	}
	if compileDebug {
		// Open question (DESIGN.md): debug builds never shrink, optimize, or
		// obfuscate, regardless of -pg-conf; no separate strict-mode flag.
		cfg.Shrink, cfg.Optimize, cfg.Obfuscate = false, false, false
	}
	if compilePrintSeedsOut != "" {
		cfg.PrintSeedsPath = compilePrintSeedsOut
	}

	report(progress.PhaseRead, fmt.Sprintf("reading %d input(s)", len(args)))
	factory := graph.NewFactory()
	reader := readio.NewReader(factory, readio.DefaultReaders())
	programClasses, err := reader.ReadAll(ctx, args, graph.OriginProgram)
	if err != nil {
		return compileerr.Input("program inputs", "reading program classes", err)
	}
	var libClasses []*graph.Class
	if len(compileLibs) > 0 {
		libClasses, err = reader.ReadAll(ctx, compileLibs, graph.OriginLibrary)
		if err != nil {
			return compileerr.Input("library inputs", "reading library classes", err)
		}
	}
	allClasses := append(append([]*graph.Class(nil), programClasses...), libClasses...)
	for _, c := range allClasses {
		factory.DefineClass(c)
	}
	subtype := graph.BuildSubtypeIndex(factory, allClasses)

	report(progress.PhaseRootSet, fmt.Sprintf("applying %d rule(s)", len(cfg.Rules)))
	rootBuilder := shaking.NewRootSetBuilder(factory, programClasses, cfg, log.WithName("rootset"))
	rootSet, err := rootBuilder.Run()
	if err != nil {
		return fmt.Errorf("building root set: %w", err)
	}
	if compilePrintSeedsOut != "" {
		if err := os.WriteFile(compilePrintSeedsOut, []byte(shaking.WriteSeeds(rootSet)), 0644); err != nil {
			return compileerr.Input(compilePrintSeedsOut, "writing -printseeds output", err)
		}
	}
	if !cfg.Shrink {
		// -dontshrink: every program item is its own root, not just what
		// keep rules name.
		for _, c := range programClasses {
			rootSet.NoShrinking[shaking.OfClass(c)] = true
			for _, m := range c.AllMethods() {
				rootSet.NoShrinking[shaking.OfMethod(m)] = true
			}
			for _, f := range c.AllFields() {
				rootSet.NoShrinking[shaking.OfField(f)] = true
			}
		}
	}

	report(progress.PhaseEnqueue, "computing liveness fixpoint")
	dontWarn := make([]string, len(cfg.DontWarnPatterns))
	for i, p := range cfg.DontWarnPatterns {
		dontWarn[i] = string(p)
	}
	enqueuer := shaking.NewEnqueuer(factory, subtype, rootSet, cfg.IgnoreMissingClasses, dontWarn, log.WithName("enqueuer"))
	appInfo, err := enqueuer.Run(allClasses)
	if err != nil {
		return fmt.Errorf("computing liveness: %w", err)
	}
	for _, w := range appInfo.MissingReferences {
		log.Info("missing reference", "warning", w)
	}

	survivingProgram := filterLive(programClasses, appInfo.LiveTypes)

	report(progress.PhaseCallGraph, fmt.Sprintf("%d live method(s)", len(appInfo.LiveMethods)))
	calleesOf := buildCalleesOf(appInfo)
	cg := callgraph.Build(appInfo.LiveMethods, calleesOf)
	cg.BreakCycles()

	var classLens *graph.Lens
	var methodLens *graph.Lens
	if cfg.Obfuscate {
		report(progress.PhaseMinify, "renaming classes and methods")
		isInterfaceType := func(t *graph.Type) bool {
			def := factory.DefinitionFor(t)
			return def != nil && def.Access.Has(graph.AccInterface)
		}
		noObfuscation := func(c *graph.Class) bool { return rootSet.NoObfuscation[shaking.OfClass(c)] }
		keepPackageName := func(c *graph.Class) bool { return rootSet.KeepPackageName[shaking.OfClass(c)] }
		enclosingClassOf := func(*graph.Class) *graph.Class { return nil }

		classMinifier := naming.NewClassNameMinifier(factory, naming.PackageObfuscationMode(cfg.PackageObfuscationMode), cfg.KeepInnerClasses, cfg.Dictionaries, cfg.PackageDictionaries)
		classLens = classMinifier.Run(survivingProgram, noObfuscation, enclosingClassOf, keepPackageName)

		methodMinifier := naming.NewMethodNameMinifier(factory, subtype)
		objectType := factory.CreateType("Ljava/lang/Object;")
		methodLens = methodMinifier.ComputeRenaming(allClasses, objectType, isInterfaceType)
	} else {
		classLens = graph.NewLens()
		methodLens = graph.NewLens()
	}
	finalLens := graph.NewLens()
	finalLens.Merge(classLens)
	finalLens.Merge(methodLens)
	finalLens.Apply(survivingProgram)

	mainDexList, err := resolveMainDexList(factory, survivingProgram, cfg)
	if err != nil {
		return err
	}

	report(progress.PhaseDistribute, fmt.Sprintf("partitioning %d class(es)", len(survivingProgram)))
	mode := distributionModeFor(compileMinAPI)
	distributor := dex.NewDistributor(mode, refsOfFor(appInfo), mainDexList, compileMinAPI >= 21, nil)
	files, err := distributor.Distribute(survivingProgram)
	if err != nil {
		return fmt.Errorf("distributing classes: %w", err)
	}

	codec := dex.DefaultCodec()
	if codec == nil {
		return compileerr.Input("dex codec", "no DEX binary codec registered; link in a codec package and call dex.RegisterCodec in its init (classfile/DEX codecs are out of scope)", nil)
	}

	report(progress.PhaseWrite, fmt.Sprintf("writing %d DEX file(s)", len(files)))
	writer := dex.NewApplicationWriter(codec, finalLens)
	results, renameMap, mainDexListText, err := writer.Write(files)
	if err != nil {
		return fmt.Errorf("writing application: %w", err)
	}

	if err := os.MkdirAll(compileOutput, 0755); err != nil {
		return compileerr.Input(compileOutput, "creating output directory", err)
	}
	for _, r := range results {
		name := "classes.dex"
		if r.ID > 0 {
			name = fmt.Sprintf("classes%d.dex", r.ID+1)
		}
		if err := os.WriteFile(compileOutput+"/"+name, r.Bytes, 0644); err != nil {
			return compileerr.Input(name, "writing dex file", err)
		}
	}
	if compilePgMapOut != "" {
		if err := os.WriteFile(compilePgMapOut, []byte(renameMap), 0644); err != nil {
			return compileerr.Input(compilePgMapOut, "writing rename map", err)
		}
	}
	if compileMainDexListOut != "" {
		if err := os.WriteFile(compileMainDexListOut, []byte(mainDexListText), 0644); err != nil {
			return compileerr.Input(compileMainDexListOut, "writing main-dex list", err)
		}
	}

	report(progress.PhaseDone, fmt.Sprintf("wrote %d dex file(s) to %s", len(results), compileOutput))
	return nil
}

func parseConfFileInto(cfg *keepconfig.Configuration, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return compileerr.Input(path, "reading -pg-conf file", err)
	}
	warnf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "warning: %s: "+format+"\n", append([]any{path}, args...)...)
	}
	p := keepconfig.NewParser(path, string(src), warnf)
	if err := p.Parse(cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func filterLive(classes []*graph.Class, liveTypes []*graph.Type) []*graph.Class {
	live := make(map[*graph.Type]bool, len(liveTypes))
	for _, t := range liveTypes {
		live[t] = true
	}
	var out []*graph.Class
	for _, c := range classes {
		if live[c.Type] {
			out = append(out, c)
		}
	}
	return out
}

// buildCalleesOf maps every invoked method ref in a live method's code to
// the live method whose ref is exactly that ref. Virtual dispatch is not
// resolved: overrides of the invoked method in subtypes are not added as
// callees.
func buildCalleesOf(appInfo *shaking.AppInfoWithLiveness) func(*graph.EncodedMethod) []*graph.EncodedMethod {
	byRef := make(map[*graph.MethodRef]*graph.EncodedMethod, len(appInfo.LiveMethods))
	for _, m := range appInfo.LiveMethods {
		byRef[m.Ref] = m
	}
	return func(caller *graph.EncodedMethod) []*graph.EncodedMethod {
		var callees []*graph.EncodedMethod
		if caller.Code == nil {
			return nil
		}
		for _, instr := range caller.Code.Instructions {
			for _, op := range instr.Operands {
				if op.Method == nil {
					continue
				}
				if callee, ok := byRef[op.Method]; ok {
					callees = append(callees, callee)
				}
			}
		}
		return callees
	}
}

func distributionModeFor(minAPI int) dex.Mode {
	if minAPI >= 21 {
		return dex.ModeFillFiles
	}
	return dex.ModeMonoDex
}

func refsOfFor(appInfo *shaking.AppInfoWithLiveness) dex.RefsOf {
	byHolder := make(map[*graph.Type][]*graph.MethodRef)
	for _, refs := range [][]*graph.MethodRef{appInfo.VirtualInvokes, appInfo.SuperInvokes, appInfo.DirectInvokes, appInfo.StaticInvokes} {
		for _, r := range refs {
			byHolder[r.Holder] = append(byHolder[r.Holder], r)
		}
	}
	fieldsByHolder := make(map[*graph.Type][]*graph.FieldRef)
	for _, refs := range [][]*graph.FieldRef{appInfo.InstanceFieldsRead, appInfo.InstanceFieldsWritten, appInfo.StaticFieldsRead, appInfo.StaticFieldsWritten} {
		for _, r := range refs {
			fieldsByHolder[r.Holder] = append(fieldsByHolder[r.Holder], r)
		}
	}
	return func(c *graph.Class) ([]*graph.MethodRef, []*graph.FieldRef, []*graph.Type) {
		var types []*graph.Type
		if c.SuperType != nil {
			types = append(types, c.SuperType)
		}
		types = append(types, c.Interfaces...)
		return byHolder[c.Type], fieldsByHolder[c.Type], types
	}
}

func resolveMainDexList(factory *graph.Factory, classes []*graph.Class, cfg *keepconfig.Configuration) (map[*graph.Type]bool, error) {
	out := make(map[*graph.Type]bool)
	if compileMainDexList != "" {
		src, err := os.ReadFile(compileMainDexList)
		if err != nil {
			return nil, compileerr.Input(compileMainDexList, "reading -main-dex-list file", err)
		}
		for _, line := range strings.Split(string(src), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, ".class")
			out[factory.CreateType("L" + line + ";")] = true
		}
	}
	for _, path := range compileMainDexRules {
		ruleCfg := &keepconfig.Configuration{}
		if err := parseConfFileInto(ruleCfg, path); err != nil {
			return nil, err
		}
		builder := shaking.NewRootSetBuilder(factory, classes, ruleCfg, logr.Discard())
		rs, err := builder.Run()
		if err != nil {
			return nil, fmt.Errorf("applying -main-dex-rules %s: %w", path, err)
		}
		for item := range rs.NoShrinking {
			if item.Kind == shaking.ItemClass {
				out[item.Class.Type] = true
			}
		}
	}
	return out, nil
}

func newCompileLogger(verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(nil)
}
