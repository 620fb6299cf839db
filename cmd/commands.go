package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/Akashdeep-Patra/gitsync/internal/config"
	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
	"github.com/Akashdeep-Patra/gitsync/internal/repo"
	"github.com/Akashdeep-Patra/gitsync/internal/transport/ws"
	"github.com/Akashdeep-Patra/gitsync/internal/ui"
	"github.com/Akashdeep-Patra/gitsync/internal/watcher"
)

// session is an opened repository plus what it needs to be torn down.
type session struct {
	cfg  *config.Config
	repo *repo.Repository
	dir  string

	closers []func() error
}

func (s *session) Close() {
	s.repo.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Verbose("close:", err)
		}
	}
}

// open loads configuration and builds the repository for gf.path. The
// returned session has not run any git command yet.
func open(ctx context.Context, gf globalFlags) (*session, error) {
	cfg, err := config.Load(gf.config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	dir, err := filepath.Abs(gf.path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	s := &session{cfg: cfg, dir: dir}

	remote := gf.remote
	if remote == "" {
		remote = cfg.RemoteURL
	}
	var runner git.Runner
	if remote != "" {
		client, err := ws.Dial(ctx, remote, nil, cfg.CommandTimeout)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		runner = client
		logger.Verbose("running git through", remote)
	} else {
		runner = git.NewExecRunner(cfg.CommandTimeout)
	}
	runner = git.NewCachedRunner(runner, cfg.CacheTTL)

	s.repo = repo.New(repo.Options{
		Dir:                dir,
		Runner:             runner,
		MaxReconcilePasses: cfg.ReconcileMaxPasses,
		Formatter:          diff.Formatter{MaxLines: cfg.DiffMaxLines, TabWidth: cfg.TabWidth},
		AuthorName:         cfg.AuthorName,
		AuthorEmail:        cfg.AuthorEmail,
	})
	return s, nil
}

func runApp(ctx context.Context, gf globalFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := open(ctx, gf)
	if err != nil {
		return err
	}
	defer s.Close()

	styles := ui.NewStyles(ui.ThemeByName(s.cfg.Theme))
	model := ui.NewModel(s.repo, ui.Options{
		Styles:  styles,
		Keys:    ui.NewKeyMap(s.cfg.Keys),
		Verbose: s.cfg.DiffVerbose,
		Timeout: s.cfg.CommandTimeout,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := ui.Subscribe(s.repo, p.Send)
	defer unsubscribe()

	// Only local repositories can be watched; remote ones refresh on demand.
	if gf.remote == "" && s.cfg.RemoteURL == "" {
		if w, err := startWatcher(ctx, s); err != nil {
			logger.Verbose("watcher disabled:", err)
		} else {
			defer w.Close()
		}
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func startWatcher(ctx context.Context, s *session) (*watcher.Watcher, error) {
	gitDir, err := watcher.ResolveGitDir(s.dir)
	if err != nil {
		return nil, err
	}
	w, err := watcher.New(gitDir, s.cfg.WatchDebounce, func() {
		if err := s.repo.Status(ctx, false); err != nil {
			logger.Verbose("refresh:", err)
		}
	})
	if err != nil {
		return nil, err
	}
	go w.Run(ctx)
	return w, nil
}

func buildStatusCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the changed files as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, *gf)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.repo.Status(ctx, true); err != nil {
				return err
			}
			styles := ui.NewStyles(ui.ThemeByName(s.cfg.Theme))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "On branch %s\n", s.repo.CurrentBranch())
			nodes := s.repo.Tree().Snapshots()
			if len(nodes) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}
			fmt.Fprint(out, ui.RenderTree(styles, nodes, 0))
			return nil
		},
	}
}

func buildDiffCmd(gf *globalFlags) *cobra.Command {
	var staged, verbose, html bool

	cmd := &cobra.Command{
		Use:   "diff <path>",
		Short: "Render the diff of one path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, *gf)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.repo.Status(ctx, true); err != nil {
				return err
			}
			verbose = verbose || s.cfg.DiffVerbose
			var files []diff.File
			if staged {
				files, err = s.repo.DiffStaged(ctx, args[0], verbose)
			} else {
				files, err = s.repo.Diff(ctx, args[0], verbose)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if html {
				fmt.Fprintln(out, diff.RenderHTML(files))
				return nil
			}
			fmt.Fprintln(out, ui.RenderDiff(ui.NewStyles(ui.ThemeByName(s.cfg.Theme)), files))
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "Diff the index against HEAD")
	cmd.Flags().BoolVar(&verbose, "diff-verbose", false, "Keep extended header lines")
	cmd.Flags().BoolVar(&html, "html", false, "Emit an HTML table instead of terminal output")

	return cmd
}

func buildServeCmd(gf *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose local git to gitsync --remote clients over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(gf.config)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              listen,
				Handler:           ws.NewServer(git.NewExecRunner(cfg.CommandTimeout)),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("serving git on", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:7777", "Address to listen on")

	return cmd
}
