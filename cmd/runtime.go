package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai/cache"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai/gemini"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai/tei"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/filtering"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/logger"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/scoring"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/secrets"
)

const (
	providerNone   = "none"
	providerGemini = gemini.Provider
	providerTEI    = tei.Provider
)

// runtime holds everything a scoring command needs.
type runtime struct {
	config  *Config
	logger  *zap.Logger
	loader  *ai.Loader
	engine  *scoring.Engine
	ranker  *ranking.Ranker
	closers []func() error
}

// setup builds the logger, reads the config and loads the encoder once.
// Configuration errors are fatal.
func setup(ctx context.Context, withBreakdown bool) *runtime {
	logger, err := logger.Build(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-file"),
		Name:   app,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the competency-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	factory, err := newEncoderFactory(config.Encoder, logger)
	if err != nil {
		logger.Fatal("configuring the semantic encoder", zap.Error(err))
	}

	rt := &runtime{config: config, logger: logger}

	rt.loader = ai.NewLoader(factory, loaderConfig(config.Encoder), logger)

	// failure is logged by the loader and leaves the engine in degraded mode
	encoder, _ := rt.loader.Load(ctx)
	if encoder != nil && config.Encoder.Cache.Enabled {
		cached := cache.New(ctx, encoder, cache.Config{
			TTL:        config.Encoder.Cache.TTL,
			MaxEntries: config.Encoder.Cache.MaxEntries,
			RedisURL:   config.Encoder.Cache.RedisURL,
		}, logger)
		rt.closers = append(rt.closers, func() error {
			hits, misses := cached.Stats()
			logger.Debug("embedding cache stats", zap.Int64("hits", hits), zap.Int64("misses", misses))
			return cached.Close()
		})
		encoder = cached
	}

	opts := []scoring.Option{
		scoring.WithExtractor(competency.NewExtractor(config.Extraction.JobFields, config.Extraction.CandidateFields)),
		scoring.WithLogger(logger),
	}
	if encoder != nil {
		opts = append(opts, scoring.WithEncoder(encoder))
	}
	rt.engine = scoring.NewEngine(opts...)

	rt.ranker = ranking.New(rt.engine, ranking.Options{
		Workers:       config.Ranking.Workers,
		WithBreakdown: withBreakdown,
	}, logger)

	return rt
}

func (rt *runtime) Close() {
	for _, closer := range rt.closers {
		if err := closer(); err != nil {
			rt.logger.Warn("closing resources", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

func loaderConfig(cfg *EncoderConfig) ai.LoaderConfig {
	return ai.LoaderConfig{
		Timeout:    cfg.StartupTimeout,
		Attempts:   cfg.StartupAttempts,
		RetryDelay: cfg.StartupRetryDelay,
	}
}

// filters returns the post-ranking pipeline. The best match cut is only
// enabled on request.
func (rt *runtime) filters(bestOnly bool) *filtering.Filtering {
	f := filtering.New([]filtering.Filter{
		filtering.NewExcludeFile(rt.config.Ranking.ExcludeFile, rt.logger),
		filtering.NewExcludedDepartments(rt.config.Ranking.ExcludeDepartments, rt.logger),
		filtering.NewBestMatch(rt.bestMatchScore(), rt.logger),
		filtering.NewLimit(rt.config.Ranking.Limit),
	}, rt.logger)

	if !bestOnly {
		f.DisableByName("best_match", "best matches not requested")
	}
	return f
}

func (rt *runtime) bestMatchScore() float64 {
	if rt.config.Ranking.BestMatchScore <= 0 {
		return filtering.DefaultBestMatchScore
	}
	return rt.config.Ranking.BestMatchScore
}

// newEncoderFactory returns the factory used by the loader. A nil factory
// result means the semantic estimator is disabled.
func newEncoderFactory(cfg *EncoderConfig, baseLogger *zap.Logger) (ai.Factory, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", providerNone:
		return func(context.Context) (ai.Encoder, error) { return nil, nil }, nil
	case providerGemini:
		return func(ctx context.Context) (ai.Encoder, error) {
			apiKey, err := secrets.Load(secrets.Source{
				Name:  "gemini api key",
				File:  cfg.Gemini.APIKeyFile,
				Value: cfg.Gemini.APIKey,
				Env:   "GEMINI_API_KEY",
			})
			if err != nil {
				return nil, fmt.Errorf("%w (set encoder.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
			}

			encLogger := logger.WithFields(baseLogger, logger.CommonFields(providerGemini, cfg.Model)...)
			embedder, err := gemini.NewEmbedder(ctx, apiKey, cfg.Model, cfg.MaxRetries, encLogger)
			if err != nil {
				return nil, err
			}
			return embedder, nil
		}, nil
	case providerTEI:
		return func(context.Context) (ai.Encoder, error) {
			var token string
			if cfg.TEI.TokenFile != "" {
				var err error
				token, err = secrets.Load(secrets.Source{Name: "embedding server token", File: cfg.TEI.TokenFile})
				if err != nil {
					return nil, err
				}
			}

			client, err := tei.New(cfg.TEI.URL, cfg.Model, token, logger.WithFields(baseLogger, logger.CommonFields(providerTEI, cfg.Model)...))
			if err != nil {
				return nil, err
			}
			if cfg.TEI.UserAgent != "" {
				client.UserAgent = cfg.TEI.UserAgent
			}
			return client, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported encoder provider: %s", cfg.Provider)
	}
}

// redacted returns a copy of the config that is safe to log.
func redacted(config *Config) *Config {
	if config == nil || config.Encoder == nil || config.Encoder.Gemini == nil || config.Encoder.Gemini.APIKey == "" {
		return config
	}

	c := *config
	encoder := *config.Encoder
	geminiCfg := *config.Encoder.Gemini
	geminiCfg.APIKey = "***"
	encoder.Gemini = &geminiCfg
	c.Encoder = &encoder
	return &c
}
