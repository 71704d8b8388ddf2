package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "competency-matcher"
)

type Config struct {
	Encoder    *EncoderConfig    `mapstructure:"encoder"`
	Extraction *ExtractionConfig `mapstructure:"extraction"`
	Ranking    *RankingConfig    `mapstructure:"ranking"`
}

type EncoderConfig struct {
	// Provider is one of none, gemini or tei.
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	MaxRetries        int           `mapstructure:"max-retries"`
	StartupTimeout    time.Duration `mapstructure:"startup-timeout"`
	StartupAttempts   int           `mapstructure:"startup-attempts"`
	StartupRetryDelay time.Duration `mapstructure:"startup-retry-delay"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
	TEI               *TEIConfig    `mapstructure:"tei"`
	Cache             *CacheConfig  `mapstructure:"cache"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type TEIConfig struct {
	URL       string `mapstructure:"url"`
	UserAgent string `mapstructure:"user-agent"`
	TokenFile string `mapstructure:"token-file"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	MaxEntries int           `mapstructure:"max-entries"`
	TTL        time.Duration `mapstructure:"ttl"`
	RedisURL   string        `mapstructure:"redis-url"`
}

type ExtractionConfig struct {
	JobFields       []string `mapstructure:"job-fields"`
	CandidateFields []string `mapstructure:"candidate-fields"`
}

type RankingConfig struct {
	Workers            int      `mapstructure:"workers"`
	BestMatchScore     float64  `mapstructure:"best-match-score"`
	Limit              int      `mapstructure:"limit"`
	ExcludeFile        string   `mapstructure:"exclude-file"`
	ExcludeDepartments []string `mapstructure:"exclude-departments"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "competency-matcher ranks job offers and candidate profiles by competency compatibility",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"encoder.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"encoder.cache.redis-url":     "COMPETENCY_REDIS_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("encoder.provider", "none")
	viper.SetDefault("encoder.startup-timeout", "30s")
	viper.SetDefault("encoder.startup-attempts", 1)
	viper.SetDefault("encoder.startup-retry-delay", "2s")
	viper.SetDefault("encoder.max-retries", 3)
	viper.SetDefault("encoder.cache.enabled", true)
	viper.SetDefault("ranking.best-match-score", 70.0)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is competency-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without a config file the defaults apply. An explicit but broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Encoder == nil {
		config.Encoder = &EncoderConfig{}
	}
	if config.Encoder.Gemini == nil {
		config.Encoder.Gemini = &GeminiConfig{}
	}
	if config.Encoder.TEI == nil {
		config.Encoder.TEI = &TEIConfig{}
	}
	if config.Encoder.Cache == nil {
		config.Encoder.Cache = &CacheConfig{}
	}
	if config.Extraction == nil {
		config.Extraction = &ExtractionConfig{}
	}
	if config.Ranking == nil {
		config.Ranking = &RankingConfig{}
	}

	return config, nil
}
