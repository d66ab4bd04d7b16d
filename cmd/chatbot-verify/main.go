package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/integrail/chatbot-verify/internal/build"
	"github.com/integrail/chatbot-verify/pkg/browser/drivers"
	"github.com/integrail/chatbot-verify/pkg/browser/pwdriver"
	"github.com/integrail/chatbot-verify/pkg/client/dto"
	"github.com/integrail/chatbot-verify/pkg/logging"
	"github.com/integrail/chatbot-verify/pkg/tui"
	"github.com/integrail/chatbot-verify/pkg/util"
	"github.com/integrail/chatbot-verify/pkg/verify"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli holds the values bound to flags. Only flags set on the command line
// are copied over the file and environment configuration.
type cli struct {
	configFile   string
	headful      bool
	cookies      []string
	cookieDomain string
	flags        verify.Config
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := c.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
	}
	return verify.ExitCode(err)
}

func (c *cli) rootCmd() *cobra.Command {
	defaults := verify.DefaultConfig()
	rootCmd := &cobra.Command{
		Use:           "chatbot-verify",
		Version:       build.Version,
		Short:         "Verifies the smart chatbot widget in a real browser",
		Long:          "Opens the site, asks the chatbot a question and checks the answer it renders, then saves a screenshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolve(cmd)
			if err != nil {
				return err
			}
			return c.run(cmd.Context(), cfg)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&c.configFile, "config", "c", "", "YAML config file")
	f.StringVarP(&c.flags.URL, "url", "u", defaults.URL, "Page that hosts the chatbot widget (env "+verify.EnvURL+")")
	f.StringVarP(&c.flags.Driver, "driver", "d", defaults.Driver, "Browser driver: playwright, rod, chromedp or baas")
	f.StringVar(&c.flags.Browser.Browser, "browser", defaults.Browser.Browser, "Browser engine for the playwright driver: chromium, firefox or webkit")
	f.StringVar(&c.flags.Browser.ExecPath, "exec-path", "", "Browser executable to launch instead of the bundled one")
	f.BoolVar(&c.headful, "headful", false, "Show the browser window")
	f.StringVarP(&c.flags.Screenshot, "screenshot", "o", defaults.Screenshot, "Where to save the full page screenshot")
	f.StringVar(&c.flags.Query, "query", defaults.Query, "Question typed into the chatbot")
	f.IntVar(&c.flags.ResponseIndex, "response-index", defaults.ResponseIndex, "Zero-based index of the bot message holding the answer")
	f.DurationVar(&c.flags.Timeout, "timeout", defaults.Timeout, "Default timeout of each expectation")
	f.DurationVar(&c.flags.WidgetTimeout, "widget-timeout", defaults.WidgetTimeout, "Max time for the chat window to open")
	f.DurationVar(&c.flags.ResponseTimeout, "response-timeout", defaults.ResponseTimeout, "Max time for the answer to appear")
	f.DurationVar(&c.flags.Browser.NavigationTimeout, "navigation-timeout", defaults.Browser.NavigationTimeout, "Max time to load the page")
	f.StringVar(&c.flags.FailureScreenshot, "failure-screenshot", "", "Save a screenshot here when a step fails")
	f.StringVar(&c.flags.Report, "report", "", "Write a JSON run report to this file")
	f.BoolVar(&c.flags.TUI, "tui", false, "Show interactive progress instead of log lines")
	f.StringVar(&c.flags.Trace, "trace", "", "Write OpenTelemetry spans to this file")
	f.StringVar(&c.flags.Pushgateway, "pushgateway", "", "Push run metrics to this Prometheus Pushgateway URL")
	f.IntVar(&c.flags.WaitServer, "wait-server", 0, "Probe the URL up to N times before launching the browser")
	f.StringVar(&c.flags.LogLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	f.StringVar(&c.flags.Baas.Url, "baas-url", "", "BaaS backend URL (env "+verify.EnvBaasURL+")")
	f.StringVar(&c.flags.Baas.ApiKey, "baas-key", "", "BaaS API Key (env "+verify.EnvBaasAPIKey+")")
	f.BoolVar(&c.flags.Baas.UseProxy, "baas-proxy", false, "Use a random proxy of the BaaS pool")
	f.StringSliceVarP(&c.cookies, "cookie", "C", []string{}, "Cookies (name=value) set before navigating, baas driver only")
	f.StringVar(&c.cookieDomain, "cookie-domain", "", "Domain of the cookies passed with --cookie")

	rootCmd.AddCommand(c.installCmd(), c.configCmd())
	return rootCmd
}

func (c *cli) installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [chromium|firefox|webkit...]",
		Short: "Installs the Playwright driver and browsers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pwdriver.Install(args...); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(c.stdout, "Playwright browsers are installed")
			return nil
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Baas.ApiKey != "" {
				cfg.Baas.ApiKey = "***"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal config")
			}
			_, err = c.stdout.Write(out)
			return err
		},
	}
}

// flagSetters copy a changed flag from the flag-bound config onto the
// resolved one.
var flagSetters = map[string]func(dst, src *verify.Config){
	"url":                func(dst, src *verify.Config) { dst.URL = src.URL },
	"driver":             func(dst, src *verify.Config) { dst.Driver = src.Driver },
	"browser":            func(dst, src *verify.Config) { dst.Browser.Browser = src.Browser.Browser },
	"exec-path":          func(dst, src *verify.Config) { dst.Browser.ExecPath = src.Browser.ExecPath },
	"screenshot":         func(dst, src *verify.Config) { dst.Screenshot = src.Screenshot },
	"query":              func(dst, src *verify.Config) { dst.Query = src.Query },
	"response-index":     func(dst, src *verify.Config) { dst.ResponseIndex = src.ResponseIndex },
	"timeout":            func(dst, src *verify.Config) { dst.Timeout = src.Timeout },
	"widget-timeout":     func(dst, src *verify.Config) { dst.WidgetTimeout = src.WidgetTimeout },
	"response-timeout":   func(dst, src *verify.Config) { dst.ResponseTimeout = src.ResponseTimeout },
	"navigation-timeout": func(dst, src *verify.Config) { dst.Browser.NavigationTimeout = src.Browser.NavigationTimeout },
	"failure-screenshot": func(dst, src *verify.Config) { dst.FailureScreenshot = src.FailureScreenshot },
	"report":             func(dst, src *verify.Config) { dst.Report = src.Report },
	"tui":                func(dst, src *verify.Config) { dst.TUI = src.TUI },
	"trace":              func(dst, src *verify.Config) { dst.Trace = src.Trace },
	"pushgateway":        func(dst, src *verify.Config) { dst.Pushgateway = src.Pushgateway },
	"wait-server":        func(dst, src *verify.Config) { dst.WaitServer = src.WaitServer },
	"log-level":          func(dst, src *verify.Config) { dst.LogLevel = src.LogLevel },
	"baas-url":           func(dst, src *verify.Config) { dst.Baas.Url = src.Baas.Url },
	"baas-key":           func(dst, src *verify.Config) { dst.Baas.ApiKey = src.Baas.ApiKey },
	"baas-proxy":         func(dst, src *verify.Config) { dst.Baas.UseProxy = src.Baas.UseProxy },
}

// resolve layers defaults, the config file, the environment and changed flags.
func (c *cli) resolve(cmd *cobra.Command) (verify.Config, error) {
	cfg := verify.DefaultConfig()
	if c.configFile != "" {
		if err := verify.LoadFile(c.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)

	for name, set := range flagSetters {
		if cmd.Flags().Changed(name) {
			set(&cfg, &c.flags)
		}
	}
	if cmd.Flags().Changed("headful") {
		cfg.Browser.Headless = !c.headful
	}

	cookies, err := util.SliceToMap(c.cookies)
	if err != nil {
		return cfg, errors.Wrapf(err, "invalid --cookie")
	}
	names := lo.Keys(cookies)
	slices.Sort(names)
	for _, name := range names {
		cfg.Baas.Cookies = append(cfg.Baas.Cookies, dto.BrowserCookie{
			Name:   name,
			Value:  cookies[name],
			Domain: c.cookieDomain,
			Path:   "/",
		})
	}

	return cfg, cfg.Validate()
}

func (c *cli) run(ctx context.Context, cfg verify.Config) error {
	log := logging.NewWithWriter(c.stderr, logging.ParseLevel(cfg.LogLevel))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WaitServer > 0 {
		if err := verify.WaitForServer(ctx, cfg.URL, cfg.WaitServer, log); err != nil {
			return err
		}
	}

	driver, err := drivers.New(cfg.Driver, cfg.Browser, cfg.Baas, log)
	if err != nil {
		return err
	}

	opts := []verify.Option{verify.WithLogger(log)}
	if cfg.Trace != "" {
		tp, err := verify.NewFileTracerProvider(cfg.Trace)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to write traces", "err", err)
			}
		}()
		opts = append(opts, verify.WithTracer(tp.Tracer()))
	}

	var progress *tui.Reporter
	if cfg.TUI {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		progress = tui.Start(ctx, cancel, c.stdin, c.stderr)
		opts = append(opts, verify.WithReporter(progress))
	}

	report, runErr := verify.NewRunner(driver, cfg, opts...).Run(ctx)
	if progress != nil {
		if _, err := progress.Wait(); err != nil {
			log.Warn("progress view failed", "err", err)
		}
	}

	c.publish(ctx, cfg, report, log)
	printSummary(c.stderr, report)
	if runErr != nil {
		return runErr
	}
	_, _ = fmt.Fprintln(c.stdout, verify.SuccessMessage)
	return nil
}

// publish writes the optional report and metrics. Failures only warn.
func (c *cli) publish(ctx context.Context, cfg verify.Config, report *verify.Report, log *slog.Logger) {
	if cfg.Report != "" {
		if err := report.WriteJSON(cfg.Report); err != nil {
			log.Warn("failed to write report", "path", cfg.Report, "err", err)
		}
	}
	if cfg.Pushgateway != "" {
		metrics := verify.NewMetrics()
		metrics.Observe(report)
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.Pushgateway, report.Driver); err != nil {
			log.Warn("failed to push metrics", "err", err)
		}
	}
}
