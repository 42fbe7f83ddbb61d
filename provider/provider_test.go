package provider

import (
	"context"
	"strings"
	"testing"
)

type testProvider struct {
	name      string
	available bool
}

func (p *testProvider) Name() string                        { return p.name }
func (p *testProvider) IsAvailable(ctx context.Context) bool { return p.available }

type testConfig struct {
	Model string
}

func newTestRegistry(names ...string) *Registry[*testProvider, testConfig] {
	reg := NewRegistry[*testProvider, testConfig]()
	for _, n := range names {
		reg.Add(n, func(cfg testConfig) (*testProvider, error) {
			return &testProvider{name: n + ":" + cfg.Model, available: true}, nil
		})
	}
	return reg
}

func TestRegistry_Create(t *testing.T) {
	reg := newTestRegistry("test")
	p, err := reg.Create("test", testConfig{Model: "base"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "test:base" {
		t.Errorf("got %q", p.Name())
	}

	again, _ := reg.Create("test", testConfig{Model: "base"})
	if again == p {
		t.Error("expected a fresh adapter per call")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	_, err := newTestRegistry().Create("missing", testConfig{})
	if err == nil || !strings.Contains(err.Error(), `no factory registered for "missing"`) {
		t.Fatalf("got %v", err)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	names := newTestRegistry("openai", "local", "gemini").Names()
	want := []string{"gemini", "local", "openai"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("got %v", names)
	}
}

func TestRegistry_AddReplaces(t *testing.T) {
	reg := newTestRegistry("a")
	reg.Add("a", func(testConfig) (*testProvider, error) { return &testProvider{name: "a2"}, nil })
	p, err := reg.Create("a", testConfig{})
	if err != nil || p.Name() != "a2" {
		t.Fatalf("got %v %v", p, err)
	}
	if len(reg.Names()) != 1 {
		t.Errorf("got %v", reg.Names())
	}
}

func TestRegistry_Remove(t *testing.T) {
	reg := newTestRegistry("a", "b")
	reg.Remove("a")
	if _, err := reg.Create("a", testConfig{}); err == nil {
		t.Error("expected factory removed")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "b" {
		t.Errorf("got %v", names)
	}
}

func TestSplitName(t *testing.T) {
	name, op := splitName("openai.transcribe")
	if name != "openai" || op != "transcribe" {
		t.Errorf("got %q %q", name, op)
	}
	name, op = splitName("local")
	if name != "local" || op != "execute" {
		t.Errorf("got %q %q", name, op)
	}
}
