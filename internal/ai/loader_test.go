package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubEncoder struct {
	vec []float32
	err error
}

func (s *stubEncoder) Encode(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEncoder) Provider() string { return "stub" }
func (s *stubEncoder) Model() string    { return "stub-v1" }

func TestLoaderLoadsOnce(t *testing.T) {
	var builds atomic.Int64
	factory := func(context.Context) (Encoder, error) {
		builds.Add(1)
		return &stubEncoder{vec: []float32{1}}, nil
	}

	core, observed := observer.New(zapcore.InfoLevel)
	l := NewLoader(factory, LoaderConfig{}, zap.New(core))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Fatalf("expected a single build, got %d", builds.Load())
	}
	if !l.Available() {
		t.Fatal("expected encoder to be available")
	}

	entries := observed.FilterMessage("semantic encoder loaded").All()
	if len(entries) != 1 || entries[0].ContextMap()["encoder_provider"] != "stub" {
		t.Fatalf("expected one load log with provider field, got %+v", entries)
	}
}

func TestLoaderRetriesThenDegrades(t *testing.T) {
	var builds atomic.Int64
	factory := func(context.Context) (Encoder, error) {
		builds.Add(1)
		return &stubEncoder{err: errors.New("model not ready")}, nil
	}

	l := NewLoader(factory, LoaderConfig{Attempts: 3, RetryDelay: time.Millisecond}, nil)

	enc, err := l.Load(context.Background())
	if enc != nil || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v / %v", enc, err)
	}
	if builds.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", builds.Load())
	}

	// failure is permanent
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected cached failure, got %v", err)
	}
	if builds.Load() != 3 {
		t.Fatalf("expected no further attempts, got %d", builds.Load())
	}
	if l.Available() {
		t.Fatal("encoder must stay unavailable")
	}
}

func TestLoaderDisabledByConfiguration(t *testing.T) {
	var builds atomic.Int64
	factory := func(context.Context) (Encoder, error) {
		builds.Add(1)
		return nil, nil
	}

	l := NewLoader(factory, LoaderConfig{Attempts: 5}, nil)
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if builds.Load() != 1 {
		t.Fatalf("disabled encoder must not be retried, got %d builds", builds.Load())
	}

	var nilLoader *Loader
	if nilLoader.Available() {
		t.Fatal("nil loader must report unavailable")
	}
}

func TestLoaderHonoursTimeout(t *testing.T) {
	factory := func(context.Context) (Encoder, error) {
		return EncoderFunc(func(ctx context.Context, _ string) ([]float32, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), nil
	}

	l := NewLoader(factory, LoaderConfig{Timeout: 10 * time.Millisecond}, nil)

	start := time.Now()
	if _, err := l.Load(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("startup probe was not bounded by the timeout")
	}
}

func TestNewLoaderDefaults(t *testing.T) {
	tests := []struct {
		name   string
		cfg    LoaderConfig
		expect LoaderConfig
	}{
		{
			name:   "zero values",
			cfg:    LoaderConfig{},
			expect: LoaderConfig{Timeout: defaultStartupTimeout, Attempts: defaultStartupAttempts, RetryDelay: defaultRetryDelay},
		},
		{
			name:   "negative delay",
			cfg:    LoaderConfig{Attempts: 3, RetryDelay: -time.Second},
			expect: LoaderConfig{Timeout: defaultStartupTimeout, Attempts: 3, RetryDelay: defaultRetryDelay},
		},
		{
			name:   "explicit values",
			cfg:    LoaderConfig{Timeout: time.Second, Attempts: 2, RetryDelay: 10 * time.Millisecond},
			expect: LoaderConfig{Timeout: time.Second, Attempts: 2, RetryDelay: 10 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(func(context.Context) (Encoder, error) { return nil, nil }, tt.cfg, nil)
			if l.cfg != tt.expect {
				t.Fatalf("unexpected config: %+v", l.cfg)
			}
		})
	}
}
