package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	rerrors "github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬─┐
  ├┬┘├┤ ├─┤│   │ │ │├┬┘
  ┴└─└─┘┴ ┴└─┘ ┴ └─┘┴└─
`

// cli holds the state shared by every command. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	configDir string
	logLevel  string
	logFile   string
	noColor   bool

	cfg    *config.Config
	closer io.Closer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		rerrors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "Reactive state and keyed view reconciliation",
		Long: `Reactor keeps a rendered view tree in sync with observed state.

Mutations to observed records and lists schedule the computations that
read them. Re-rendered views are diffed against the previous tree and
the minimal set of operations is applied to a backend: an in-memory
tree, or a binary frame stream served to websocket clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.closer != nil {
				c.closer.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configDir, "config", "c", ".", "Directory containing reactor.json")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from reactor.json)")
	flags.StringVar(&c.logFile, "log-file", "", "Also write logs to this rotated file")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		demoCmd(c),
		serveCmd(c),
		replayCmd(c),
		tailCmd(c),
		archiveCmd(c),
		configCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if c.noColor {
		rerrors.DisableColors()
	}

	cfg, err := config.LoadOrDefault(c.configDir)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		if level, err = logging.ParseLevel(c.logLevel); err != nil {
			return rerrors.New("X001").
				WithSubject("--log-level").
				WithDetail(fmt.Sprintf("unknown level %q", c.logLevel)).
				Wrap(err)
		}
	}

	closer, err := logging.Setup(logging.Options{
		Level:     level,
		Console:   cmd.ErrOrStderr(),
		NoColor:   c.noColor,
		File:      c.logFile,
		FileLevel: slog.LevelDebug,
	})
	if err != nil {
		return err
	}
	c.closer = closer
	return nil
}

// printBanner prints the Reactor ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
