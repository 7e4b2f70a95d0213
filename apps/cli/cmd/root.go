package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apidriver/packages/core/config"
	"github.com/abdul-hamid-achik/apidriver/packages/output"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	envFile      string
	baseURL      string
	headers      []string
	transport    string
	rate         float64
	timeout      time.Duration
	insecure     bool
	proxy        string
	logLevel     string
	noColor      bool
	output       string
	fixtureStore string
	fixturePath  string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "apidriver",
		Short: "Call an HTTP API with a fixed base URL and shared headers.",
		Long: `apidriver sends one request at a time to the API configured in
apidriver.yaml (or APIDRIVER_* environment variables), merging the
configured headers into every call and failing on any non-2xx response.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to config file")
	flags.StringVar(&g.envFile, "env-file", "", "Path to .env file loaded before the environment")
	flags.StringVar(&g.baseURL, "base-url", "", "Base URL every path is resolved against")
	flags.StringArrayVarP(&g.headers, "header", "H", nil, `Extra header for every request ("Name: value")`)
	flags.StringVar(&g.transport, "transport", "", "HTTP transport: net, resty")
	flags.Float64Var(&g.rate, "rate", 0, "Maximum requests per second (0 = unlimited)")
	flags.DurationVar(&g.timeout, "timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flags.BoolVarP(&g.insecure, "insecure", "k", false, "Disable SSL certificate validation")
	flags.StringVar(&g.proxy, "proxy", "", "Proxy URL for HTTP requests")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&g.output, "output", "o", "console", "Output format: console, json")
	flags.StringVar(&g.fixtureStore, "fixture-store", "", "Fixture store: none, sqlite, bbolt")
	flags.StringVar(&g.fixturePath, "fixture-path", "", "Path of the fixture store database")

	rootCmd.AddCommand(newRequestCmd(g, "GET"))
	rootCmd.AddCommand(newRequestCmd(g, "POST"))
	rootCmd.AddCommand(newRequestCmd(g, "PUT"))
	rootCmd.AddCommand(newRequestCmd(g, "DELETE"))
	rootCmd.AddCommand(newFixturesCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)

	if ee, ok := err.(*exitError); ok && ee.reported {
		return code
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if code == ExitUsageError {
			fmt.Fprintf(stderr, "Run 'apidriver --help' for usage.\n")
		}
	}
	return code
}

// loadConfig reads the config file and environment, then applies the flags
// the user set on top.
func (g *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: g.configPath, EnvFile: g.envFile})
	if err != nil {
		return nil, configError(err)
	}
	return cfg.Merge(g.overrides(cmd)), nil
}

func (g *globalOptions) overrides(cmd *cobra.Command) *config.Config {
	o := &config.Config{
		BaseURL:      g.baseURL,
		Headers:      g.headers,
		Transport:    g.transport,
		RateLimit:    g.rate,
		Proxy:        g.proxy,
		LogLevel:     g.logLevel,
		FixtureStore: g.fixtureStore,
		FixturePath:  g.fixturePath,
	}
	if g.timeout > 0 {
		o.Timeout = int(g.timeout.Milliseconds())
	}
	flags := cmd.Flags()
	if flags.Changed("insecure") {
		o.ValidateSSL = config.BoolPtr(!g.insecure)
	}
	if flags.Changed("no-color") {
		o.NoColor = config.BoolPtr(g.noColor)
	}
	return o
}

func (g *globalOptions) formatter(cmd *cobra.Command, cfg *config.Config) (output.Formatter, error) {
	f, err := output.New(g.output, cmd.OutOrStdout(), cfg.GetNoColor())
	if err != nil {
		return nil, usageError(err)
	}
	return f, nil
}
