package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/thiagokokada/tigo/internal/config"
	"github.com/thiagokokada/tigo/internal/git/backend"
	"github.com/thiagokokada/tigo/internal/graph"
	"github.com/thiagokokada/tigo/internal/logging"
	"github.com/thiagokokada/tigo/internal/style"
	"github.com/thiagokokada/tigo/internal/tui"
	"github.com/thiagokokada/tigo/internal/view"
	"github.com/thiagokokada/tigo/internal/views"
	"github.com/thiagokokada/tigo/internal/watch"
)

// flagKeys maps the flags that mirror a config key.
var flagKeys = map[string]string{
	"backend":          "backend",
	"refresh":          "refresh.mode",
	"refresh-interval": "refresh.interval",
	"limit":            "log.limit",
	"mode":             "ui.theme",
	"ascii":            "graph.ascii",
	"log-file":         "logging.file",
	"log-level":        "logging.level",
}

type options struct {
	configFile string
	view       string
	noWatch    bool
	noSyntax   bool
	noGraph    bool
	verbose    bool
	stdinRevs  bool
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var opts options
	loader := config.NewLoader()
	def := config.DefaultConfig()

	root := &cobra.Command{
		Use:           "tigo [flags] [path]",
		Short:         "Browse a git repository in the terminal",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := "."
			if len(args) > 0 {
				repoPath = args[0]
			}
			if opts.configFile != "" {
				loader.SetConfigFile(opts.configFile)
			}
			for name, key := range flagKeys {
				if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			opts.apply(cfg)
			return run(cmd.Context(), cfg, loader.ConfigFileUsed(), opts, repoPath)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/tigo/config.yaml)")
	flags.StringVar(&opts.view, "view", "", "initial view: "+strings.Join(views.Names(), ", "))
	flags.String("backend", def.Backend, "repository backend: cli or native")
	flags.String("refresh", def.Refresh.Mode, "refresh mode: manual, periodic, after-command or auto")
	flags.Duration("refresh-interval", def.Refresh.Interval, "interval between periodic refreshes")
	flags.Int("limit", def.Log.Limit, "maximum number of commits in the log view (0 loads all)")
	flags.String("mode", def.UI.Theme, "color mode: auto, light, or dark")
	flags.Bool("ascii", def.Graph.ASCII, "draw the commit graph with ASCII characters")
	flags.String("log-file", def.Logging.File, "write logs to this file")
	flags.String("log-level", def.Logging.Level, "log level: trace, debug, info, warn or error")
	flags.BoolVar(&opts.noWatch, "nowatch", false, "disable filesystem notifications")
	flags.BoolVar(&opts.noSyntax, "nosyntax", false, "disable syntax highlighting in the diff viewer")
	flags.BoolVar(&opts.noGraph, "nograph", false, "hide the commit graph")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&opts.stdinRevs, "stdin", false, "read the revisions of the log view from stdin")
	root.AddCommand(newVersionCmd())
	return root
}

// apply lets the negative flags switch features off.
func (o options) apply(cfg *config.Config) {
	if o.noWatch {
		cfg.Watch.FSNotify = false
	}
	if o.noSyntax {
		cfg.UI.Syntax = false
	}
	if o.noGraph {
		cfg.Graph.Enabled = false
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
}

func run(ctx context.Context, cfg *config.Config, configFile string, opts options, repoPath string) (err error) {
	closer, err := logging.Init(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closer.Close()) }()
	log := logging.Component("cmd")

	if err := backend.EnsureGitVersion(); err != nil {
		return err
	}
	repo, err := backend.Open(cfg.BackendKind(), repoPath)
	if err != nil {
		return err
	}
	gitDir := repo.GitDir()
	log.Info().
		Str("repo", repo.RepoPath()).
		Str("config", configFile).
		Stringer("backend", repo.Kind()).
		Stringer("refresh", cfg.RefreshMode()).
		Msg("starting")

	registry := watch.NewRegistry(cfg.RefreshMode(), logging.Component("watch"),
		watch.NewHeadProber(gitDir),
		watch.NewStashProber(gitDir),
		watch.NewIndexProber(gitDir, cfg.Watch.ProbeInterval, repo.LocalChangesStatus),
		watch.NewRefsProber(cfg.Watch.ProbeInterval, repo.ListRefs),
	)
	registry.Prime()

	sched := view.NewScheduler(ctx, registry, logging.Component("scheduler"))
	if registry.Mode().Allows(watch.Periodic) {
		sched.SetPeriodic(cfg.Refresh.Interval)
	}

	glyphs := graph.UTF8
	if cfg.Graph.ASCII {
		glyphs = graph.ASCII
	}
	env := &views.Env{
		Repo:     repo,
		Registry: registry,
		Theme:    style.NewTheme(cfg.ThemePreference(), cfg.UI.Syntax, logging.Component("style")),
		Glyphs:   glyphs,
		Graph:    cfg.Graph.Enabled,
		Limit:    cfg.Log.Limit,
		Log:      logging.Component("views"),
	}

	initial := opts.view
	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	switch {
	case opts.stdinRevs:
		sched.SetStdin(os.Stdin)
		env.StdinRevisions = true
		programOpts = append(programOpts, tea.WithInputTTY())
		if initial == "" {
			initial = views.Log
		}
	case !term.IsTerminal(int(os.Stdin.Fd())):
		// Piped input is paged; keys come from the terminal instead.
		env.Stdin = os.Stdin
		programOpts = append(programOpts, tea.WithInputTTY())
		if initial == "" {
			initial = views.Pager
		}
	}
	if initial != "" && !slices.Contains(views.Names(), initial) {
		return fmt.Errorf("%w %q (want one of %s)", views.ErrUnknownView, initial, strings.Join(views.Names(), ", "))
	}

	model := tui.New(ctx, tui.Options{
		Env:       env,
		Scheduler: sched,
		Initial:   initial,
		Log:       logging.Component("tui"),
	})
	p := tea.NewProgram(model, programOpts...)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Watch.FSNotify && registry.Mode().Allows(watch.Filesystem) {
		notifier, err := watch.NewNotifier(gitDir, cfg.Watch.Delay, logging.Component("notify"))
		if err != nil {
			log.Warn().Err(err).Msg("filesystem notifications disabled")
		} else {
			defer notifier.Close()
			g.Go(func() error {
				forwardChanges(gctx, notifier.Changes(), p)
				return nil
			})
		}
	}
	g.Go(func() error {
		_, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run ui: %w", err)
		}
		return errUIDone
	})
	if err := g.Wait(); !errors.Is(err, errUIDone) {
		return err
	}
	sched.StopAll()
	return nil
}

// errUIDone ends the group, and with it the forwarder, once the UI exits.
var errUIDone = errors.New("ui done")

type sender interface {
	Send(msg tea.Msg)
}

func forwardChanges(ctx context.Context, changes <-chan struct{}, p sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			p.Send(tui.FilesystemChanged{})
		}
	}
}
