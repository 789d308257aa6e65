package keepconfig

import "testing"

func TestParseKeepRule(t *testing.T) {
	cfg := &Configuration{Shrink: true, Obfuscate: true, Optimize: true}
	p := NewParser("test.pro", "-keep class foo.Bar {\n  *;\n}\n", nil)
	if err := p.Parse(cfg); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cfg.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(cfg.Rules))
	}
	r := cfg.Rules[0]
	if r.Kind != RuleKeep {
		t.Fatalf("expected RuleKeep, got %v", r.Kind)
	}
	if len(r.ClassNames) != 1 || r.ClassNames[0] != "foo.Bar" {
		t.Fatalf("expected class name foo.Bar, got %v", r.ClassNames)
	}
	if len(r.Members) != 1 || r.Members[0].Kind != MemberAll {
		t.Fatalf("expected single all-members rule, got %v", r.Members)
	}
}

func TestParseAssumeValuesInterval(t *testing.T) {
	cfg := &Configuration{}
	src := "-assumevalues class Foo {\n  int value() return 1..5;\n}\n"
	p := NewParser("test.pro", src, nil)
	if err := p.Parse(cfg); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mr := cfg.Rules[0].Members[0]
	if mr.ReturnValueLow == nil || mr.ReturnValueHigh == nil {
		t.Fatalf("expected return-value interval to be recorded")
	}
	if *mr.ReturnValueLow != 1 || *mr.ReturnValueHigh != 5 {
		t.Fatalf("expected [1,5], got [%d,%d]", *mr.ReturnValueLow, *mr.ReturnValueHigh)
	}
}

func TestDontWarnDefaultsToWildcard(t *testing.T) {
	cfg := &Configuration{}
	p := NewParser("test.pro", "-dontwarn\n", nil)
	if err := p.Parse(cfg); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cfg.DontWarnPatterns) != 1 || cfg.DontWarnPatterns[0] != "**" {
		t.Fatalf("expected bare -dontwarn to default to **, got %v", cfg.DontWarnPatterns)
	}
}

func TestUnknownOptionClassification(t *testing.T) {
	cfg := &Configuration{}
	p := NewParser("test.pro", "-verbose\n", nil)
	if err := p.Parse(cfg); err != nil {
		t.Fatalf("expected -verbose to be silently ignored, got %v", err)
	}

	p2 := NewParser("test.pro", "-microedition\n", nil)
	if err := p2.Parse(cfg); err == nil {
		t.Fatalf("expected -microedition to be rejected as unsupported")
	}
}

func TestGlobMatchDoubleStarCrossesPackages(t *testing.T) {
	if !globMatch("foo.**", "foo.bar.Baz") {
		t.Fatalf("expected foo.** to match foo.bar.Baz")
	}
	if globMatch("foo.*", "foo.bar.Baz") {
		t.Fatalf("expected foo.* to NOT cross a package boundary")
	}
}
