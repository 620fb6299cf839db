package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	// A TUI spends most of its time waiting on git subprocesses and the
	// terminal; two OS threads are plenty. An explicit GOMAXPROCS wins.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(min(2, runtime.NumCPU()))
	}
	debug.SetMemoryLimit(50 * 1024 * 1024) // 50 MiB
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	path    string
	config  string
	remote  string
	verbose bool
	trace   bool
}

func buildRootCmd() *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:   "gitsync",
		Short: "Live git working-tree status and diffs in the terminal",
		Long: `gitsync keeps a tree of changed files in step with git status and
renders their diffs. Run it without a subcommand for the interactive view.

Commands can run locally or, with --remote, through a "gitsync serve"
endpoint on another machine.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			switch {
			case gf.trace:
				logger.SetLogLevel(logger.LogLevelTrace)
			case gf.verbose:
				logger.SetLogLevel(logger.LogLevelVerbose)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), gf)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.SetVersionTemplate(currentBuild().String())

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&gf.path, "path", "p", ".", "Path to the git repository")
	pf.StringVar(&gf.config, "config", "", "Config file (default $XDG_CONFIG_HOME/gitsync/config.yaml)")
	pf.StringVar(&gf.remote, "remote", "", "Run git through a gitsync serve endpoint, e.g. ws://host:7777/")
	pf.BoolVarP(&gf.verbose, "verbose", "v", false, "Verbose logging")
	pf.BoolVar(&gf.trace, "trace", false, "Trace logging")

	rootCmd.AddCommand(buildStatusCmd(&gf))
	rootCmd.AddCommand(buildDiffCmd(&gf))
	rootCmd.AddCommand(buildServeCmd(&gf))
	rootCmd.AddCommand(buildVersionCmd())
	rootCmd.AddCommand(buildCompletionCmd())

	return rootCmd
}

// buildInfo describes the running binary.
type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func currentBuild() buildInfo {
	return buildInfo{version, commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH}
}

func (b buildInfo) String() string {
	return fmt.Sprintf("gitsync %s\n  commit:  %s\n  built:   %s\n  go:      %s\n  os/arch: %s/%s\n",
		b.Version, b.Commit, b.Date, b.Go, b.OS, b.Arch)
}

func buildVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := currentBuild()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), info)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output version info as JSON")
	return cmd
}

// completionShells maps each supported shell to its script generator.
var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

func buildCompletionCmd() *cobra.Command {
	shells := make([]string, 0, len(completionShells))
	for name := range completionShells {
		shells = append(shells, name)
	}
	sort.Strings(shells)

	return &cobra.Command{
		Use:                   "completion [" + strings.Join(shells, "|") + "]",
		Short:                 "Generate a shell completion script",
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
