package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/urlpad/internal/config"
	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/mode/editor"
	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/tracing"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

var (
	cfgFile     string
	initialFile string
)

var rootCmd = &cobra.Command{
	Use:   "urlpad",
	Short: "Submit a list of project URLs as you type",
	Long: `urlpad edits a list of project URLs, one per line. Once typing stops for
the configured delay the whole list is POSTed as {"text": ...} to the
projects endpoint and the field turns green (accepted), red (rejected
with 422) or yellow (any other status).

Network failures leave the colour alone and are recorded in the
diagnostics overlay (ctrl+x).`,
	Example: `  urlpad                                   # edit against http://127.0.0.1:8000/projects
  urlpad --endpoint https://api.example.com --delay 500ms
  urlpad -f projects.txt                   # start from a file
  URLPAD_DEBUG=1 urlpad                    # write debug.log`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runEditor,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/urlpad/config.yaml)")
	pf.String("endpoint", config.DefaultEndpoint, "server base URL")
	pf.String("path", config.DefaultPath, "path submissions are posted to")
	pf.Duration("delay", config.DefaultDelay, "quiet period before the text is submitted")
	pf.Duration("timeout", 0, "request timeout, 0 for none")
	pf.Bool("debug", false, "write debug logs to --log-file")
	pf.String("log-file", config.Defaults().LogFile, "debug log path")
	pf.String("trace", config.TraceNone, "trace exporter: none, stdout or otlp")
	pf.String("trace-endpoint", "", "OTLP gRPC collector address")
	pf.String("trace-file", "", "file the stdout trace exporter writes to")

	rootCmd.Flags().StringVarP(&initialFile, "file", "f", "", "load the initial text from a file")
}

// loadConfig resolves the effective configuration for cmd and applies the
// configured theme.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if err := styles.ApplyTheme(styles.ThemeConfig{
		Preset: cfg.Theme.Preset,
		Colors: cfg.Theme.Colors,
	}); err != nil {
		return config.Config{}, fmt.Errorf("applying theme: %w", err)
	}
	return cfg, nil
}

// initLogging installs the process logger. The TUI keeps entries in memory
// for the overlay; line-oriented commands print errors to stderr. With
// debug on, everything goes to the log file as well.
func initLogging(cmd *cobra.Command, cfg config.Config, tui bool) (func(), error) {
	switch {
	case cfg.Debug && tui:
		return log.InitWithTeaLog(cfg.LogFile, "urlpad", log.DefaultBufferSize)
	case cfg.Debug:
		return log.Init(cfg.LogFile, log.DefaultBufferSize)
	case tui:
		return log.Init("", log.DefaultBufferSize)
	default:
		log.InitWriter(cmd.ErrOrStderr(), log.DefaultBufferSize, log.LevelError)
		return func() {}, nil
	}
}

func newSubmitter(cfg config.Config) *submit.Submitter {
	transport := submit.NewRestyTransport(cfg.Endpoint, cfg.Timeout, getVersion())
	return submit.New(transport, submit.WithPath(cfg.Path))
}

// withRuntime loads configuration, logging and tracing for cmd, then calls fn.
func withRuntime(cmd *cobra.Command, tui bool, fn func(ctx context.Context, cfg config.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cleanup, err := initLogging(cmd, cfg, tui)
	if err != nil {
		return err
	}
	defer cleanup()
	log.Debug(log.CatConfig, "loaded", "endpoint", cfg.Endpoint, "path", cfg.Path, "delay", cfg.Delay)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := tracing.Setup(ctx, cfg.Trace, getVersion())
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.ErrorErr(log.CatTrace, "shutdown failed", err)
		}
	}()

	return fn(ctx, cfg)
}

func runEditor(cmd *cobra.Command, _ []string) error {
	var initial string
	if initialFile != "" {
		data, err := os.ReadFile(initialFile) //nolint:gosec // G304: user-chosen input file
		if err != nil {
			return fmt.Errorf("reading %s: %w", initialFile, err)
		}
		initial = string(data)
	}

	return withRuntime(cmd, true, func(ctx context.Context, cfg config.Config) error {
		model := editor.New(editor.Config{
			Submitter: newSubmitter(cfg),
			Delay:     cfg.Delay,
			Target:    cfg.URL(),
			Initial:   initial,
			Context:   ctx,
		})

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running editor: %w", err)
		}
		return nil
	})
}
