// Package main is the entry point for the deckmux terminal multiplexer.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deckmux/internal/appconfig"
	"deckmux/internal/engine"
	"deckmux/internal/inputfsm"
	"deckmux/internal/notifier"
	"deckmux/internal/ptyengine"
	"deckmux/internal/switcher"
	"deckmux/internal/tui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deckmux",
		Short:   "A terminal multiplexer with a sidebar of PTY-backed sessions",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start()
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

// acquireInstanceLock takes a single flock on deckmux.lock in the config
// directory, so at most one deckmux process runs per config directory,
// whichever terminal it was started from. The lock is released by the
// caller's Unlock or on process exit.
func acquireInstanceLock() (*flock.Flock, error) {
	lockDir := appconfig.Dir()
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, "deckmux.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another deckmux instance is already running (lock held at %s)", lock.Path())
	}
	return lock, nil
}

func start() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("tui backend: stdout is not a terminal")
	}

	lock, err := acquireInstanceLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	cfg, err := appconfig.Load()
	if err != nil {
		log.Printf("config: %v, falling back to defaults", err)
		cfg = appconfig.Defaults()
	}

	notify := notifier.New(time.Now)
	eng := engine.New(cfg, notify, time.Now)
	fuzzy := switcher.New()
	machine := inputfsm.NewMachine(eng, fuzzy, time.Now, cfg)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rows, cols := initialSize()
	shell, shellArgs := ptyengine.ResolveShellDefault(cfg.DefaultShell)
	if _, err := eng.Create(shell, shellArgs, cwd, rows, cols); err != nil {
		return fmt.Errorf("spawn initial session: %w", err)
	}

	model := tui.New(cfg, eng, machine)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui backend: %w", err)
	}
	return nil
}

// initialSize seeds the first session's grid from the controlling
// terminal's current size, falling back to a conservative default until
// Bubble Tea's first WindowSizeMsg arrives and resizes everything properly.
func initialSize() (rows, cols int) {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || rows <= 0 || cols <= 0 {
		return 24, 80
	}
	return rows, cols
}
