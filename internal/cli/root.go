package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apihttp "github.com/rohmanhakim/ghibli-proxy/internal/api/http"
	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/controllers/films"
	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/controllers/people"
	"github.com/rohmanhakim/ghibli-proxy/internal/api/http/controllers/system"
	"github.com/rohmanhakim/ghibli-proxy/internal/build"
	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/internal/catalog"
	"github.com/rohmanhakim/ghibli-proxy/internal/config"
	"github.com/rohmanhakim/ghibli-proxy/internal/metrics"
	"github.com/rohmanhakim/ghibli-proxy/internal/upstream"
	"github.com/rohmanhakim/ghibli-proxy/pkg/limiter"
	"github.com/rohmanhakim/ghibli-proxy/pkg/retry"
	"github.com/rohmanhakim/ghibli-proxy/pkg/timeutil"
)

var (
	cfgFile    string
	listenHost string
	listenPort int
	baseURL    string
	userAgent  string
	timeout    time.Duration
	maxAttempt int
	baseDelay  time.Duration
	jitter     time.Duration
	randomSeed int64
	cacheTTL   time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ghibli-proxy",
	Short:   "A caching proxy for the Studio Ghibli API.",
	Version: build.FullVersion(),
	Long: `ghibli-proxy sits in front of the Studio Ghibli REST API and serves
films and people from a TTL-driven in-memory cache. When the partner is
slow or down, previously fetched results keep being served, so readers
of the proxy see stale data rather than errors.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := InitConfig()
		if err := run(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&listenHost, "listen-host", "", "interface the HTTP server binds to")
	rootCmd.PersistentFlags().IntVar(&listenPort, "listen-port", 0, "port the HTTP server binds to")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "base URL of the Studio Ghibli API")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for upstream requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for upstream requests")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "maximum attempts per upstream request")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between upstream requests")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", 0, "how long a completed refresh stays fresh")
}

// run wires the whole proxy together and blocks until the process is
// told to stop.
func run(cfg config.Config) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Info().
		Str("version", build.FullVersion()).
		Str("base_url", cfg.BaseURL()).
		Dur("cache_ttl", cfg.CacheTTL()).
		Msg("Starting ghibli-proxy.")

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	backoffParam := timeutil.NewBackoffParam(
		cfg.BackoffInitialDuration(),
		cfg.BackoffMultiplier(),
		cfg.BackoffMaxDuration(),
	)
	pacer := limiter.NewPacer(cfg.BaseDelay(), cfg.Jitter(), backoffParam)
	pacer.SetRandomSeed(cfg.RandomSeed())

	client := upstream.NewClient(
		upstream.ClientParam{
			BaseURL:    cfg.BaseURL(),
			UserAgent:  cfg.UserAgent(),
			Timeout:    cfg.Timeout(),
			RetryParam: retry.NewRetryParam(cfg.Jitter(), cfg.RandomSeed(), cfg.MaxAttempt(), backoffParam),
		},
		pacer,
		recorder,
		logger,
	)

	registry := cache.NewRegistry(logger)
	registry.SetRefreshObserver(recorder.ObserveRefresh)

	service, err := catalog.NewService(registry, client, cfg.CacheTTL(), logger)
	if err != nil {
		return err
	}

	server := apihttp.NewServer(cfg.ListenAddr(), logger)
	server.AddController(
		films.New(service, logger),
		people.New(service, logger),
		system.New(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

// InitConfig reads in config file and CLI flags if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and CLI flags if set, returning any
// errors. This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		fmt.Printf("Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config and apply overrides using method chaining
	configBuilder := config.WithDefault()

	// Override with CLI flag values where provided
	if listenHost != "" {
		configBuilder = configBuilder.WithListenHost(listenHost)
	}

	if listenPort > 0 {
		configBuilder = configBuilder.WithListenPort(listenPort)
	}

	if baseURL != "" {
		configBuilder = configBuilder.WithBaseURL(baseURL)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if cacheTTL > 0 {
		configBuilder = configBuilder.WithCacheTTL(cacheTTL)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	listenHost = ""
	listenPort = 0
	baseURL = ""
	userAgent = ""
	timeout = 0
	maxAttempt = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	cacheTTL = 0
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetListenHostForTest(host string) {
	listenHost = host
}

func SetListenPortForTest(port int) {
	listenPort = port
}

func SetBaseURLForTest(url string) {
	baseURL = url
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetCacheTTLForTest(ttl time.Duration) {
	cacheTTL = ttl
}
