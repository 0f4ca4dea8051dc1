package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/go-drift/viewtree/pkg/errors"
)

const watchDebounce = 100 * time.Millisecond

var (
	watchSets   []string
	watchEvents bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [fixture]",
	Short: "Re-render a fixture whenever it changes",
	Long: `Watch renders the fixture, then applies every saved change to the
mounted view tree and prints the new markup. Records are merged, so only
added, removed and changed records are reconciled.

Changes to tags and templates need a restart.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchSets, "set", nil, "patch a record attribute on every load (id:attr=value)")
	watchCmd.Flags().BoolVar(&watchEvents, "events", false, "print the lifecycle events of each reload")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	path, err := fixturePath(args)
	if err != nil {
		return err
	}
	if path, err = filepath.Abs(path); err != nil {
		return err
	}
	res, err := loadFixture(path, watchSets)
	if err != nil {
		return err
	}
	s, err := newSession(res, log)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.markup())
	s.drainEvents()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	files := map[string]bool{filepath.Clean(path): true}
	if res.RecordsPath != "" {
		records, err := filepath.Abs(res.RecordsPath)
		if err != nil {
			return err
		}
		files[filepath.Clean(records)] = true
	}
	// Watch the directories: editors often replace a file instead of
	// writing it.
	dirs := map[string]bool{}
	for f := range files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching fixture", "fixture", path)
	return watchLoop(ctx, watcher.Events, watcher.Errors, files, watchDebounce, log, func() {
		if err := s.reload(path, watchSets); err != nil {
			errors.ReportError("viewtree.watch", err)
			return
		}
		fmt.Fprintln(out, s.markup())
		events := s.drainEvents()
		if watchEvents {
			for _, line := range events {
				fmt.Fprintln(out, line)
			}
		}
	})
}

// watchLoop calls reload once per burst of writes to any of files, until
// ctx is done or the watcher closes. Everything runs on the caller's
// goroutine. A panicking reload is reported and the loop keeps going.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	files map[string]bool, debounce time.Duration, log *slog.Logger, reload func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			log.Debug("fixture changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			runReload(reload)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

func runReload(reload func()) {
	defer errors.Recover("viewtree.watch")
	reload()
}
