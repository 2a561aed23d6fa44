package registry

import (
	"slices"
	"testing"
)

type dummyBuilder struct{}

func (dummyBuilder) Build(in BuildInput) (BuildOutput, error) {
	return BuildOutput{BusID: in.BusRefID}, nil
}

func TestRegisterAndLookup(t *testing.T) {
	const typ = "test_dummy_builder"
	if _, ok := Lookup(typ); !ok {
		RegisterBuilder(typ, dummyBuilder{})
	}
	b, ok := Lookup(typ)
	if !ok {
		t.Fatalf("lookup failed for %q", typ)
	}
	out, err := b.Build(BuildInput{DeviceID: "d", BusRefType: "i2c", BusRefID: "i2c0"})
	if err != nil || out.BusID != "i2c0" {
		t.Fatalf("unexpected build result %+v, %v", out, err)
	}
	if !slices.Contains(Types(), typ) {
		t.Fatalf("Types() = %v, missing %q", Types(), typ)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("no_such_device"); ok {
		t.Fatal("unexpected builder for unknown type")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	const typ = "test_duplicate_builder"
	if _, ok := Lookup(typ); !ok {
		RegisterBuilder(typ, dummyBuilder{})
	}
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterBuilder(typ, dummyBuilder{})
}
