package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/provider"
	"go.opentelemetry.io/otel/metric/noop"
)

type echoProvider struct {
	name string
}

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, in string) (string, error) {
	return "echo:" + in, nil
}

type failingEcho struct{}

func (p *failingEcho) Name() string                       { return "fail.execute" }
func (p *failingEcho) IsAvailable(_ context.Context) bool { return true }
func (p *failingEcho) Execute(_ context.Context, _ string) (string, error) {
	return "", errors.New("intentional failure")
}

func testMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

func TestChain_Empty(t *testing.T) {
	p := &echoProvider{name: "test"}
	wrapped := provider.Chain[string, string]()(p)
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return provider.Func("t", tag, func(ctx context.Context, in string) (string, error) {
				order = append(order, tag+":before")
				out, err := inner.Execute(ctx, in)
				order = append(order, tag+":after")
				return out, err
			})
		}
	}

	wrapped := provider.Chain(mw("A"), nil, mw("B"), mw("C"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "C:before", "C:after", "B:after", "A:after"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestFunc_NameAndExecute(t *testing.T) {
	f := provider.Func("openai", "chat", func(_ context.Context, in int) (int, error) {
		return in * 2, nil
	})
	if f.Name() != "openai.chat" {
		t.Errorf("expected openai.chat, got %q", f.Name())
	}
	if !f.IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	out, err := f.Execute(context.Background(), 21)
	if err != nil || out != 42 {
		t.Errorf("got %d, %v", out, err)
	}
}

func TestWithLogging(t *testing.T) {
	log := logger.Nop()

	ok := provider.WithLogging[string, string](log)(&echoProvider{name: "log-test"})
	if result, err := ok.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
	if ok.Name() != "log-test" {
		t.Errorf("expected name 'log-test', got %q", ok.Name())
	}

	failing := provider.WithLogging[string, string](log)(&failingEcho{})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestWithMetrics(t *testing.T) {
	metrics := testMetrics(t)

	wrapped := provider.WithMetrics[string, string](metrics)(&echoProvider{name: "openai.transcribe"})
	if result, err := wrapped.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
	if !wrapped.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to delegate")
	}

	failing := provider.WithMetrics[string, string](metrics)(&failingEcho{})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestWithMetrics_NilIsPassthrough(t *testing.T) {
	if provider.WithMetrics[string, string](nil) != nil {
		t.Fatal("expected no middleware for nil metrics")
	}
	p := &echoProvider{name: "p"}
	wrapped := provider.Chain(provider.WithMetrics[string, string](nil))(p)
	if wrapped != provider.RequestResponse[string, string](p) {
		t.Error("expected the inner provider back")
	}
}

func TestWithTracing(t *testing.T) {
	wrapped := provider.WithTracing[string, string]("samuelizer")(&echoProvider{name: "local.transcribe"})
	if result, err := wrapped.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}

	failing := provider.WithTracing[string, string]("samuelizer")(&failingEcho{})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestChain_AllMiddlewares(t *testing.T) {
	wrapped := provider.Chain(
		provider.WithLogging[string, string](logger.Nop()),
		provider.WithMetrics[string, string](testMetrics(t)),
		provider.WithTracing[string, string]("samuelizer"),
	)(&echoProvider{name: "full"})

	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}
