package keepconfig

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/mabhi256/r8shrink/internal/compileerr"
	"github.com/mabhi256/r8shrink/internal/graph"
)

// Unknown-option classification: each Proguard flag this parser does not
// implement falls into a fixed bucket — silently ignored, warned-and-
// ignored, or rejected outright.
var (
	ignoredSingleArg = map[string]bool{
		"-injars": true, "-outjars": true, "-libraryjars": true,
		"-obfuscationdictionary": true, "-classobfuscationdictionary": true,
		"-packageobfuscationdictionary": true, "-printmapping": true,
		"-printusage": true, "-printconfiguration": true,
	}
	ignoredFlag = map[string]bool{
		"-verbose": true, "-dontnote": true, "-dontpreverify": true,
		"-forceprocessing": true, "-dontusemixedcaseclassnames": true,
		"-useuniqueclassmembernames": true, "-adaptclassstrings": true,
	}
	warnedSingleArg = map[string]bool{
		"-target": true, "-optimizations": true, "-optimizationpasses": true,
	}
	unsupportedFlag = map[string]bool{
		"-microedition": true, "-android": true,
	}
)

// Parser is a line/column-tracking reader over Proguard-syntax text: an
// explicit struct wrapping the source lines plus position bookkeeping,
// rather than a free function, so error locations can be recovered at any
// point during parsing.
type Parser struct {
	file   string
	lines  []string
	lineNo int // 0-based index into lines
	col    int
	warnf  func(string, ...any)
}

// NewParser creates a Parser over src's contents, attributed to file for
// diagnostics.
func NewParser(file string, src string, warnf func(string, ...any)) *Parser {
	if warnf == nil {
		warnf = func(string, ...any) {}
	}
	return &Parser{file: file, lines: splitLines(src), warnf: warnf}
}

func splitLines(src string) []string {
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var out []string
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// Parse consumes the whole source, applying rules/flags into cfg.
func (p *Parser) Parse(cfg *Configuration) error {
	for p.lineNo < len(p.lines) {
		line := p.currentLogicalLine()
		if line == "" {
			continue
		}
		if err := p.parseDirective(line, cfg); err != nil {
			return err
		}
	}
	return nil
}

// currentLogicalLine joins continuation lines (a rule's member-rule block
// `{ ... }` may span multiple physical lines) and strips comments.
func (p *Parser) currentLogicalLine() string {
	start := p.lineNo
	raw := stripComment(p.lines[start])
	depth := strings.Count(raw, "{") - strings.Count(raw, "}")
	joined := raw
	for depth > 0 && p.lineNo+1 < len(p.lines) {
		p.lineNo++
		next := stripComment(p.lines[p.lineNo])
		joined += " " + next
		depth += strings.Count(next, "{") - strings.Count(next, "}")
	}
	p.lineNo++
	return strings.TrimSpace(joined)
}

func stripComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	return s
}

func (p *Parser) errf(format string, args ...any) *compileerr.Error {
	return compileerr.Configuration(p.file, p.lineNo, p.col, "", fmt.Sprintf(format, args...))
}

func (p *Parser) parseDirective(line string, cfg *Configuration) error {
	fields := tokenize(line)
	if len(fields) == 0 {
		return nil
	}
	opt := fields[0]
	rest := fields[1:]

	switch opt {
	case "-dontshrink":
		cfg.Shrink = false
		return nil
	case "-dontoptimize":
		cfg.Optimize = false
		return nil
	case "-dontobfuscate":
		cfg.Obfuscate = false
		return nil
	case "-repackageclasses":
		cfg.PackageObfuscationMode = PackageObfuscationRepackage
		if len(rest) > 0 {
			cfg.PackagePrefix = rest[0]
		}
		return nil
	case "-flattenpackagehierarchy":
		cfg.PackageObfuscationMode = PackageObfuscationFlatten
		if len(rest) > 0 {
			cfg.PackagePrefix = rest[0]
		}
		return nil
	case "-keeppackagenames":
		cfg.KeepInnerClasses = true
		return nil
	case "-ignorewarnings", "-ignoremissingclasses":
		cfg.IgnoreMissingClasses = true
		return nil
	case "-dontwarn":
		for _, a := range rest {
			cfg.DontWarnPatterns = append(cfg.DontWarnPatterns, NamePattern(a))
		}
		if len(rest) == 0 {
			cfg.DontWarnPatterns = append(cfg.DontWarnPatterns, NamePattern("**"))
		}
		return nil
	case "-printseeds":
		if len(rest) > 0 {
			cfg.PrintSeedsPath = rest[0]
		}
		return nil
	case "-keep", "-keepclassmembers", "-keepclasseswithmembers",
		"-whyareyoukeeping", "-checkdiscard", "-assumenosideeffects",
		"-assumevalues", "-alwaysinline":
		rule, err := p.parseClassRule(opt, line)
		if err != nil {
			return err
		}
		cfg.Rules = append(cfg.Rules, *rule)
		return nil
	default:
		return p.classifyUnknown(opt, rest)
	}
}

func (p *Parser) classifyUnknown(opt string, rest []string) error {
	switch {
	case ignoredSingleArg[opt], ignoredFlag[opt]:
		return nil
	case warnedSingleArg[opt]:
		p.warnf("ignoring unsupported option %s", opt)
		return nil
	case unsupportedFlag[opt]:
		return p.errf("unsupported option %s", opt)
	default:
		return p.errf("unknown option %s", opt)
	}
}

func ruleKindFor(opt string) RuleKind {
	switch opt {
	case "-keep":
		return RuleKeep
	case "-keepclassmembers":
		return RuleKeepClassMembers
	case "-keepclasseswithmembers":
		return RuleKeepClassesWithMembers
	case "-whyareyoukeeping":
		return RuleWhyAreYouKeeping
	case "-checkdiscard":
		return RuleCheckDiscard
	case "-assumenosideeffects":
		return RuleAssumeNoSideEffect
	case "-assumevalues":
		return RuleAssumeValues
	case "-alwaysinline":
		return RuleAlwaysInline
	default:
		return RuleKeep
	}
}

// parseClassRule parses one `-keep[...] [modifiers] [annotation] classtype
// pattern[,pattern]* [extends|implements pattern] [{ member-rules }]`
// directive.
func (p *Parser) parseClassRule(opt, line string) (*Rule, error) {
	rule := &Rule{Kind: ruleKindFor(opt), File: p.file, Line: p.lineNo}
	body := strings.TrimSpace(strings.TrimPrefix(line, opt))

	if idx := strings.Index(body, ",includedescriptorclasses"); idx >= 0 {
		rule.IncludeDescriptorClasses = true
		body = body[:idx] + body[idx+len(",includedescriptorclasses"):]
	}
	if idx := strings.Index(body, ",allowshrinking"); idx >= 0 {
		rule.AllowShrinking = true
		body = body[:idx] + body[idx+len(",allowshrinking"):]
	}
	if idx := strings.Index(body, ",allowoptimization"); idx >= 0 {
		rule.AllowOptimization = true
		body = body[:idx] + body[idx+len(",allowoptimization"):]
	}
	if idx := strings.Index(body, ",allowobfuscation"); idx >= 0 {
		rule.AllowObfuscation = true
		body = body[:idx] + body[idx+len(",allowobfuscation"):]
	}

	memberBody := ""
	if i := strings.Index(body, "{"); i >= 0 {
		j := strings.LastIndex(body, "}")
		if j < i {
			return nil, p.errf("unterminated member-rule block")
		}
		memberBody = strings.TrimSpace(body[i+1 : j])
		body = strings.TrimSpace(body[:i])
	}

	if err := p.parseClassSpec(body, rule); err != nil {
		return nil, err
	}
	if memberBody != "" {
		members, err := p.parseMemberRules(memberBody)
		if err != nil {
			return nil, err
		}
		rule.Members = members
	}
	return rule, nil
}

func (p *Parser) parseClassSpec(body string, rule *Rule) error {
	tokens := tokenize(body)
	i := 0
	for i < len(tokens) && strings.HasPrefix(tokens[i], "@") {
		rule.Annotation = NamePattern(strings.TrimPrefix(tokens[i], "@"))
		i++
	}
	for i < len(tokens) {
		if flag, neg, ok := accessFlagToken(tokens[i]); ok {
			if neg {
				rule.NegatedFlags |= flag
			} else {
				rule.AccessFlags |= flag
			}
			i++
			continue
		}
		break
	}
	if i < len(tokens) {
		switch tokens[i] {
		case "class":
			rule.ClassType = ClassTypeClass
			i++
		case "interface":
			rule.ClassType = ClassTypeInterface
			i++
		case "@interface":
			rule.ClassType = ClassTypeAnnotation
			i++
		case "enum":
			rule.ClassType = ClassTypeEnum
			i++
		}
	}
	if i >= len(tokens) {
		return p.errf("missing class-name pattern")
	}
	for _, part := range strings.Split(tokens[i], ",") {
		rule.ClassNames = append(rule.ClassNames, NamePattern(part))
	}
	i++
	if i < len(tokens) && (tokens[i] == "extends" || tokens[i] == "implements") {
		isImpl := tokens[i] == "implements"
		i++
		if i >= len(tokens) {
			return p.errf("missing pattern after %s", tokens[i-1])
		}
		name := tokens[i]
		ann := ""
		if strings.HasPrefix(name, "@") {
			ann = strings.TrimPrefix(name, "@")
			i++
			if i >= len(tokens) {
				return p.errf("missing pattern after annotation in inheritance clause")
			}
			name = tokens[i]
		}
		rule.Inheritance = &InheritanceClause{IsImplements: isImpl, Annotation: NamePattern(ann), Name: NamePattern(name)}
		i++
	}
	return nil
}

func accessFlagToken(tok string) (graph.AccessFlags, bool, bool) {
	neg := strings.HasPrefix(tok, "!")
	t := strings.TrimPrefix(tok, "!")
	switch t {
	case "public":
		return graph.AccPublic, neg, true
	case "private":
		return graph.AccPrivate, neg, true
	case "protected":
		return graph.AccProtected, neg, true
	case "static":
		return graph.AccStatic, neg, true
	case "final":
		return graph.AccFinal, neg, true
	case "abstract":
		return graph.AccAbstract, neg, true
	case "synthetic":
		return graph.AccSynthetic, neg, true
	default:
		return 0, false, false
	}
}

// parseMemberRules splits a member block (already brace-stripped) into
// individual `;`-terminated member rules.
func (p *Parser) parseMemberRules(body string) ([]MemberRule, error) {
	var out []MemberRule
	for _, stmt := range splitStatements(body) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		mr, err := p.parseOneMemberRule(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	return out, nil
}

func splitStatements(body string) []string {
	return strings.Split(body, ";")
}

func (p *Parser) parseOneMemberRule(stmt string) (MemberRule, error) {
	var mr MemberRule
	tokens := tokenize(stmt)
	i := 0
	for i < len(tokens) && strings.HasPrefix(tokens[i], "@") {
		mr.Annotation = NamePattern(strings.TrimPrefix(tokens[i], "@"))
		i++
	}
	for i < len(tokens) {
		if flag, neg, ok := accessFlagToken(tokens[i]); ok {
			if neg {
				mr.NegatedFlags |= flag
			} else {
				mr.AccessFlags |= flag
			}
			i++
			continue
		}
		break
	}
	rest := strings.Join(tokens[i:], " ")
	switch {
	case rest == "*;" || rest == "*":
		mr.Kind = MemberAll
		return mr, nil
	case rest == "<methods>;" || rest == "<methods>":
		mr.Kind = MemberAllMethods
		return mr, nil
	case rest == "<fields>;" || rest == "<fields>":
		mr.Kind = MemberAllFields
		return mr, nil
	case rest == "<init>(...)" || strings.HasPrefix(rest, "<init>("):
		mr.Kind = MemberInit
		return mr, nil
	}
	return p.parseMethodOrFieldRule(rest, &mr)
}

// parseMethodOrFieldRule parses `[returnType] name(params)` (method) or
// `type name` (field), with an optional trailing `return lo..hi` clause
// for -assumevalues/-assumenosideeffects.
func (p *Parser) parseMethodOrFieldRule(rest string, mr *MemberRule) (MemberRule, error) {
	low, high, rest := extractReturnInterval(rest)
	mr.ReturnValueLow, mr.ReturnValueHigh = low, high

	if paren := strings.Index(rest, "("); paren >= 0 {
		closeParen := strings.Index(rest, ")")
		if closeParen < paren {
			return *mr, p.errf("unterminated parameter list in member rule")
		}
		head := strings.TrimSpace(rest[:paren])
		params := strings.TrimSpace(rest[paren+1 : closeParen])
		parts := strings.Fields(head)
		if len(parts) == 0 {
			return *mr, p.errf("missing method name in member rule")
		}
		mr.Name = NamePattern(parts[len(parts)-1])
		if len(parts) > 1 {
			mr.ReturnType = NamePattern(strings.Join(parts[:len(parts)-1], " "))
		}
		if mr.Name == "<init>" {
			mr.Kind = MemberConstructor
		} else {
			mr.Kind = MemberMethod
		}
		if params != "" && params != "..." {
			for _, pt := range strings.Split(params, ",") {
				mr.ParamTypes = append(mr.ParamTypes, NamePattern(strings.TrimSpace(pt)))
			}
		}
		return *mr, nil
	}

	parts := strings.Fields(rest)
	if len(parts) < 2 {
		return *mr, p.errf("malformed field member rule %q", rest)
	}
	mr.Kind = MemberField
	mr.Name = NamePattern(parts[len(parts)-1])
	mr.FieldType = NamePattern(strings.Join(parts[:len(parts)-1], " "))
	return *mr, nil
}

func extractReturnInterval(s string) (*int64, *int64, string) {
	idx := strings.Index(s, " return ")
	if idx < 0 {
		return nil, nil, s
	}
	head := s[:idx]
	clause := strings.TrimSpace(s[idx+len(" return "):])
	clause = strings.TrimSuffix(clause, ";")
	if dots := strings.Index(clause, ".."); dots >= 0 {
		lo, err1 := strconv.ParseInt(strings.TrimSpace(clause[:dots]), 10, 64)
		hi, err2 := strconv.ParseInt(strings.TrimSpace(clause[dots+2:]), 10, 64)
		if err1 == nil && err2 == nil {
			return &lo, &hi, head
		}
	} else if v, err := strconv.ParseInt(clause, 10, 64); err == nil {
		return &v, &v, head
	}
	return nil, nil, head
}

func tokenize(s string) []string {
	return strings.Fields(s)
}
