package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scipunch/articleviewer/cache"
	"github.com/scipunch/articleviewer/config"
	"github.com/scipunch/articleviewer/fetcher"
	"github.com/scipunch/articleviewer/filter"
	"github.com/scipunch/articleviewer/loader"
	"github.com/scipunch/articleviewer/parser"
	"github.com/scipunch/articleviewer/parser/factory"
	"github.com/scipunch/articleviewer/photo"
)

var (
	flagConfig  string
	flagRefresh bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "articleviewer",
	Short: "Browse a published list of photo articles",
	Long: `articleviewer shows a remotely published list of articles with their photos.

The list and every photo are kept in a local cache and only downloaded again
on an explicit refresh.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return browse(cmd.Context(), a, os.Stdin, os.Stdout)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the article list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			list, err := a.loadList(cmd.Context(), flagRefresh)
			if err != nil {
				return err
			}
			for _, article := range list.Articles() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", article.ID, article.Title, article.ImageURL)
			}
			return nil
		})
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if err := a.store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			slog.Info("cache cleared successfully")
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			stats, err := a.store.Stats()
			if err != nil {
				return fmt.Errorf("failed to read cache stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", a.conf.Store)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Size: %s\n", formatBytes(stats.Bytes))
			if !stats.OldestEntry.IsZero() {
				fmt.Fprintf(out, "Oldest: %s\n", stats.OldestEntry.Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath(), "path to a TOML config")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	listCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "download the list even if it is cached")

	rootCmd.AddCommand(listCmd, cleanCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the loaders shared by all commands
type app struct {
	conf    config.Config
	store   cache.Store
	lists   *loader.ListLoader
	images  *loader.ImageLoader
	filters *filter.FilterPipeline
}

func withApp(run func(a *app) error) error {
	setupLogging()

	conf, err := readConfig(flagConfig)
	if err != nil {
		return err
	}

	a, err := newApp(conf)
	if err != nil {
		return err
	}
	defer a.store.Close()

	return run(a)
}

func setupLogging() {
	if flagDebug || os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// readConfig reads the config and creates it if the default is missing
func readConfig(cfgPath string) (config.Config, error) {
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			return conf, fmt.Errorf("failed to write default config with %w", err)
		}
		return conf, nil
	}
	if err != nil {
		return conf, fmt.Errorf("failed to read config with %w", err)
	}
	return conf, nil
}

func newApp(conf config.Config) (*app, error) {
	store, err := cache.Open(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	decoder, err := factory.Init(conf.ListFormat)
	if err != nil {
		store.Close()
		return nil, err
	}

	filters, err := filter.NewFilterPipeline(conf.Filters)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize filters: %w", err)
	}

	listFetcher := fetcher.NewHTTPFetcher(conf.Network, fetcher.WithContentType(factory.ContentType(conf.ListFormat)))
	imageFetcher := fetcher.NewHTTPFetcher(conf.Network)

	return &app{
		conf:    conf,
		store:   store,
		lists:   loader.NewListLoader(loader.NewOrchestrator(store, listFetcher), conf.ListURL, decoder),
		images:  loader.NewImageLoader(loader.NewOrchestrator(store, imageFetcher), photo.NewDecoder(conf.MaxImageDimension, conf.MaxSourcePixels)),
		filters: filters,
	}, nil
}

// loadList loads the list and applies the configured view filters
func (a *app) loadList(ctx context.Context, force bool) (parser.List, error) {
	list, err := a.lists.Load(ctx, force)
	if err != nil {
		return list, err
	}
	return a.filters.Apply(list, a.conf.ViewFilters), nil
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
