package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/edgarflat/internal/cache"
	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/pipeline"
	"github.com/ppiankov/edgarflat/internal/ratelimit"
	"github.com/ppiankov/edgarflat/internal/store"
)

const version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "edgarflat",
	Short: "edgarflat - flatten SEC company facts into per-user tables",
	Long: `edgarflat downloads a company's XBRL "companyfacts" document from SEC EDGAR
and flattens it into two relational tables per user:

  RawFinancials_<user>      one row per filed observation
  AccountAttributes_<user>  label and description per concept

The joined view is exported to csv_files/user_<user>_export.csv.

Requests carry the user's name and email as User-Agent, as SEC requires.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("edgarflat " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.edgarflat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.edgarflat")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv reads EDGARFLAT_* variables; store.dsn is EDGARFLAT_STORE_DSN
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("EDGARFLAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig layers file and environment values over DefaultConfig.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := registerDefaults(v, cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// registerDefaults makes every config key known to viper so that
// AutomaticEnv can override keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// newLogger builds the zap logger described by cfg
func newLogger(cfg model.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("log format %q: want console or json", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// app holds the components every command shares
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	store    *store.Store
	fetcher  *pipeline.Fetcher
	pipeline *pipeline.Pipeline
}

// openApp loads config and wires the fetcher, store and pipeline
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	limiter := ratelimit.FromConfig(cfg.RateLimiting, cfg.SEC.PostFetchDelay)
	fetcher := pipeline.NewFetcher(cfg, limiter, cache.FromConfig(cfg.Cache), logger)

	p, err := pipeline.New(cfg, fetcher, st, logger)
	if err != nil {
		_ = st.Close()
		_ = logger.Sync()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: st, fetcher: fetcher, pipeline: p}, nil
}

// Close releases the store and flushes the logger
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// lookupUser resolves --user against the users table
func (a *app) lookupUser(ctx context.Context, id string) (model.User, error) {
	if id == "" {
		return model.User{}, fmt.Errorf("%w: --user is required", model.ErrInvalidUser)
	}
	return a.store.User(ctx, id)
}
