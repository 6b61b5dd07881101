// Package cli holds the httpbrowser command line: opening a page or
// crawling a site through a browser session, and serving the test application.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raysh454/httpbrowser/internal/browser"
	"github.com/raysh454/httpbrowser/internal/crawl"
	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/testapp"
)

// EnvPrefix is the prefix of environment variables overriding the session
// file.
const EnvPrefix = "HTTPBROWSER"

type rootOptions struct {
	logLevel string
	devLog   bool
}

// NewRootCommand builds the command tree. out receives command output.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "httpbrowser",
		Short:         "Drive a web application the way a browser without JavaScript would",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&opts.devLog, "dev-log", false, "Human readable log output")

	root.AddCommand(newOpenCommand(opts), newCrawlCommand(opts), newTestAppCommand(opts))
	return root
}

func (o *rootOptions) logger() (logging.Logger, error) {
	cfg := logging.DefaultZapConfig()
	cfg.Level = o.logLevel
	cfg.Development = o.devLog
	cfg.OutputPaths = []string{"stderr"}
	return logging.NewZapLogger(cfg)
}

type openOptions struct {
	configPath string
	url        string
	method     string
	selector   string
	noFollow   bool
	middleware []string
}

func newOpenCommand(root *rootOptions) *cobra.Command {
	opts := &openOptions{}
	cmd := &cobra.Command{
		Use:   "open <page>",
		Short: "Open a page and print the status, final URL and selected text",
		Example: `  httpbrowser open / --url http://localhost:8000
  httpbrowser open /redirect --config session.yml --select h1
  httpbrowser open /info --url http://localhost:8000 --middleware logging,decompress
  HTTPBROWSER_URL=http://localhost:8000 httpbrowser open /info`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			return runOpen(cmd.Context(), cmd.OutOrStdout(), logger, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML session file")
	f.StringVar(&opts.url, "url", "", "Base URL, overrides the session file and environment")
	f.StringVarP(&opts.method, "method", "X", "GET", "Request method")
	f.StringVarP(&opts.selector, "select", "s", "title", "CSS selector printed from the final page")
	f.BoolVar(&opts.noFollow, "no-follow", false, "Do not follow redirects")
	addMiddlewareFlag(f, &opts.middleware)
	return cmd
}

func addMiddlewareFlag(f *pflag.FlagSet, names *[]string) {
	f.StringSliceVar(names, "middleware", nil,
		"Transport middleware, replaces the session file list: http_errors|rate_limit[:rps]|logging|decompress|metrics")
}

// applyMiddleware replaces the configured middleware list when the flag was
// given.
func applyMiddleware(cfg *browser.Config, names []string) {
	if names != nil {
		cfg.MiddlewareNames = names
	}
}

// LoadSessionConfig layers defaults, the optional session file, the
// environment and an explicit base URL, in that order.
func LoadSessionConfig(path, baseURL string) (browser.Config, error) {
	cfg := browser.DefaultConfig()
	if path != "" {
		loaded, err := browser.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg, err := browser.ConfigFromEnv(EnvPrefix, cfg)
	if err != nil {
		return cfg, err
	}
	if baseURL != "" {
		cfg.URL = baseURL
	}
	return cfg, nil
}

func runOpen(ctx context.Context, out io.Writer, logger logging.Logger, opts *openOptions, page string) error {
	cfg, err := LoadSessionConfig(opts.configPath, opts.url)
	if err != nil {
		return err
	}
	cfg.FollowRedirects = !opts.noFollow
	applyMiddleware(&cfg, opts.middleware)

	s, err := browser.New(cfg, logger)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := s.Request(ctx, opts.method, page)
	if err != nil && resp == nil {
		return err
	}

	current, _ := s.CurrentURL()
	fmt.Fprintf(out, "%d %s\n", resp.Status, current)
	if loc := resp.Location(); loc != "" {
		fmt.Fprintf(out, "Location: %s\n", loc)
	}
	if opts.selector != "" {
		if text, terr := s.Text(opts.selector); terr == nil {
			fmt.Fprintln(out, text)
		}
	}
	return err
}

type crawlOptions struct {
	configPath string
	url        string
	depth      int
	maxPages   int
	middleware []string
}

func newCrawlCommand(root *rootOptions) *cobra.Command {
	opts := &crawlOptions{}
	cmd := &cobra.Command{
		Use:   "crawl [start]",
		Short: "Follow same-host links from a page and list what was found",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			cfg, err := LoadSessionConfig(opts.configPath, opts.url)
			if err != nil {
				return err
			}
			applyMiddleware(&cfg, opts.middleware)
			s, err := browser.New(cfg, logger)
			if err != nil {
				return err
			}

			start := "/"
			if len(args) == 1 {
				start = args[0]
			}
			spider := crawl.NewSpider(s, opts.depth, logger)
			spider.MaxPages = opts.maxPages

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pages, err := spider.Enumerate(ctx, start)
			for _, p := range pages {
				if p.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "ERR %d %s: %v\n", p.Depth, p.URI, p.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %d %s\n", p.Status, p.Depth, p.URI)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML session file")
	f.StringVar(&opts.url, "url", "", "Base URL, overrides the session file and environment")
	f.IntVarP(&opts.depth, "depth", "d", 2, "Maximum link depth")
	f.IntVar(&opts.maxPages, "max-pages", 100, "Maximum number of pages fetched, 0 for no limit")
	addMiddlewareFlag(f, &opts.middleware)
	return cmd
}

func newTestAppCommand(root *rootOptions) *cobra.Command {
	cfg := testapp.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "testapp",
		Short: "Serve the test application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			srv := testapp.NewServer(cfg, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			fmt.Fprintf(cmd.OutOrStdout(), "test app listening on http://%s\n", cfg.Addr)
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return srv.Shutdown(context.Background())
			}
		},
	}
	f := cmd.Flags()
	f.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "Listen address")
	f.StringVar(&cfg.AuthUser, "auth-user", cfg.AuthUser, "User accepted by /auth")
	f.StringVar(&cfg.AuthPassword, "auth-password", cfg.AuthPassword, "Password accepted by /auth")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown limit")
	return cmd
}
