package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/logger"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/utils"
)

const (
	defaultStartupTimeout  = 30 * time.Second
	defaultStartupAttempts = 1
	defaultRetryDelay      = 2 * time.Second
	probeText              = "python"
)

// Factory builds an encoder. A nil encoder with a nil error means the encoder
// is disabled by configuration.
type Factory func(ctx context.Context) (Encoder, error)

// LoaderConfig bounds the startup of the encoder.
type LoaderConfig struct {
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// Loader initializes the process-wide encoder at most once. A failed
// initialization leaves the encoder unavailable for the lifetime of the loader.
type Loader struct {
	factory Factory
	cfg     LoaderConfig
	logger  *zap.Logger

	once    sync.Once
	mu      sync.RWMutex
	encoder Encoder
	err     error
}

func NewLoader(factory Factory, cfg LoaderConfig, log *zap.Logger) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultStartupTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultStartupAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	return &Loader{
		factory: factory,
		cfg:     cfg,
		logger:  logger.WithFields(log),
	}
}

// Load returns the encoder, initializing it on first call. Later calls return
// the outcome of the first one.
func (l *Loader) Load(ctx context.Context) (Encoder, error) {
	l.once.Do(func() {
		enc, err := l.initialize(ctx)

		l.mu.Lock()
		l.encoder, l.err = enc, err
		l.mu.Unlock()

		if err != nil {
			l.logger.Warn("semantic encoder unavailable, running in degraded mode", zap.Error(err))
			return
		}

		provider, model := Describe(enc)
		logger.WithCommonFields(l.logger, provider, model).Info("semantic encoder loaded")
	})

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.encoder, l.err
}

// Encoder returns the loaded encoder or nil when it is unavailable or not loaded yet.
func (l *Loader) Encoder() Encoder {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.encoder
}

// Available reports whether the semantic estimator is live.
func (l *Loader) Available() bool {
	return l.Encoder() != nil
}

func (l *Loader) initialize(ctx context.Context) (Encoder, error) {
	if l.factory == nil {
		return nil, fmt.Errorf("%w: no encoder configured", ErrUnavailable)
	}

	var lastErr error
	for attempt := 1; attempt <= l.cfg.Attempts; attempt++ {
		enc, err := l.try(ctx)
		if err == nil {
			return enc, nil
		}
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}

		lastErr = err
		l.logger.Debug("semantic encoder startup attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", l.cfg.Attempts),
			zap.Error(err),
		)

		if attempt == l.cfg.Attempts {
			break
		}
		if err := utils.WaitFor(ctx, l.cfg.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (l *Loader) try(ctx context.Context) (Encoder, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	enc, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("building encoder: %w", err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: disabled by configuration", ErrUnavailable)
	}

	vec, err := enc.Encode(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("probing encoder: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("probing encoder: empty embedding")
	}

	return enc, nil
}
