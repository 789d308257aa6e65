package compileerr

import (
	"errors"
	"strings"
	"testing"
)

func TestInputWrapsUnderlyingError(t *testing.T) {
	cause := errors.New("disk full")
	err := Input("Foo.class", "reading program classes", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Input error to unwrap to cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected message to mention cause, got %q", err.Error())
	}
}

func TestConfigurationCarriesLineAndColumn(t *testing.T) {
	err := Configuration("rules.pro", 4, 12, "-keep clas Foo", "unexpected token")
	if err.Kind != KindConfiguration {
		t.Fatalf("expected KindConfiguration, got %v", err.Kind)
	}
	if !strings.HasPrefix(err.Error(), "rules.pro:4:12: ") {
		t.Fatalf("expected location prefix, got %q", err.Error())
	}
}

func TestCapacityNamesOffendingDex(t *testing.T) {
	err := Capacity(2, "65537 method references exceeds 65536")
	if err.Item != "dex#2" {
		t.Fatalf("expected item dex#2, got %q", err.Item)
	}
	if err.Kind.String() != "capacity" {
		t.Fatalf("expected capacity kind string, got %q", err.Kind.String())
	}
}
