package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eringen/spacetraveling"
)

var (
	cfgFile   string
	appConfig spacetraveling.SiteConfig
	logger    *zap.Logger
)

// configDefaults registers every SiteConfig key, so environment variables
// are seen by Unmarshal even when no file or flag sets them. Zero values are
// filled in by SiteConfig's own defaults.
var configDefaults = map[string]any{
	"name":                "",
	"url":                 "",
	"lang":                "",
	"addr":                "",
	"locale":              "",
	"prismic_endpoint":    "",
	"prismic_token":       "",
	"content_dir":         "",
	"document_type":       "",
	"store":               "",
	"database_path":       "",
	"redis_url":           "",
	"revalidate_interval": 0,
	"revalidate_secret":   "",
	"build_concurrency":   0,
	"build_timeout":       0,
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"content-dir":      "content_dir",
	"prismic-endpoint": "prismic_endpoint",
	"locale":           "locale",
	"store":            "store",
	"database-path":    "database_path",
	"url":              "url",
}

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "Blog post pages rendered from a headless CMS",
	Long: `spacetraveling renders blog posts stored in Prismic (or in a directory of
Markdown files) into HTML pages. It serves them with stale-while-revalidate
caching, or exports the whole site as static files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeLogger(cmd); err != nil {
			return err
		}
		return initializeConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./spacetraveling.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("dev", false, "human-readable development logging")
	pf.String("content-dir", "", "read posts from Markdown files in this directory")
	pf.String("prismic-endpoint", "", "Prismic API endpoint, e.g. https://repo.cdn.prismic.io/api/v2")
	pf.String("locale", "", "locale for month names (default en_US)")
	pf.String("store", "", "page store: sqlite, redis or none (default sqlite)")
	pf.String("database-path", "", "SQLite page store path (default data/pages.db)")
	pf.String("url", "", "canonical site URL")

	rootCmd.AddCommand(serveCmd, buildCmd, pathsCmd, versionCmd)
}

func initializeLogger(cmd *cobra.Command) error {
	level, _ := cmd.Flags().GetString("log-level")
	dev, _ := cmd.Flags().GetBool("dev")
	l, err := spacetraveling.NewLogger(level, dev)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()
	for key, val := range configDefaults {
		v.SetDefault(key, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("spacetraveling")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFile == "":
			logger.Debug("no config file found, using flags and environment")
		case errors.As(err, &notFound):
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		default:
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Info("using config file", zap.String("path", v.ConfigFileUsed()))
	}

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	appConfig = spacetraveling.SiteConfig{}
	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

func newApp(opts ...spacetraveling.Option) *spacetraveling.App {
	opts = append([]spacetraveling.Option{spacetraveling.WithLogger(logger)}, opts...)
	return spacetraveling.New(appConfig, opts...)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spacetraveling %s\n", version)
	},
}
