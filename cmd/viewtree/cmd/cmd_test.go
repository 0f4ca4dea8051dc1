package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/go-drift/viewtree/pkg/errors"
	vtest "github.com/go-drift/viewtree/pkg/testing"
)

const fixture = `
collection:
  childTemplate: "{{.title}}"
records:
  - {id: 1, title: a}
  - {id: 2, title: b}
  - {id: 3, title: c}
`

func writeFixture(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "viewtree.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func mustSession(t *testing.T, path string) *session {
	t.Helper()
	res, err := loadFixture(path, nil)
	if err != nil {
		t.Fatalf("loadFixture: %v", err)
	}
	s, err := newSession(res, discardLogger())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(s.close)
	return s
}

func TestSession_Render(t *testing.T) {
	s := mustSession(t, writeFixture(t, t.TempDir(), fixture))

	if got := s.markup(); got != "<ul><li>a</li><li>b</li><li>c</li></ul>" {
		t.Errorf("unexpected markup %s", got)
	}
	events := s.drainEvents()
	if len(events) == 0 || events[0] != "before:render v1" {
		t.Fatalf("expected the list to render first, got %v", events)
	}
	var added []string
	for _, line := range events {
		if strings.HasPrefix(line, "add:child ") {
			added = append(added, line)
		}
	}
	want := []string{"add:child v2 (1)", "add:child v3 (2)", "add:child v4 (3)"}
	if strings.Join(added, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, added)
	}
	if len(s.drainEvents()) != 0 {
		t.Error("expected drainEvents to clear the log")
	}
}

func TestSession_ReloadMergesChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, fixture)
	s := mustSession(t, path)
	s.drainEvents()

	writeFixture(t, dir, `
collection:
  childTemplate: "{{.title}}"
records:
  - {id: 2, title: B}
  - {id: 3, title: c}
  - {id: 4, title: d}
`)
	if err := s.reload(path, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s.markup(); got != "<ul><li>B</li><li>c</li><li>d</li></ul>" {
		t.Errorf("unexpected markup %s", got)
	}

	var destroyed []string
	for _, line := range s.drainEvents() {
		if strings.HasPrefix(line, "childview:destroy ") {
			destroyed = append(destroyed, line[strings.LastIndex(line, " ")+1:])
		}
	}
	if strings.Join(destroyed, ",") != "(2),(1)" {
		t.Errorf("expected only records 2 and 1 rebuilt, got %v", destroyed)
	}
}

func TestSession_Snapshots(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, fixture)
	s := mustSession(t, path)
	vtest.Capture(s.list, nil).MatchesFile(t, filepath.Join("testdata", "render.json"))

	writeFixture(t, dir, strings.Replace(fixture, "  - {id: 1, title: a}\n  - {id: 2, title: b}\n",
		"  - {id: 2, title: B}\n", 1)+"  - {id: 4, title: d}\n")
	if err := s.reload(path, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	vtest.Capture(s.list, nil).MatchesFile(t, filepath.Join("testdata", "reload.json"))
}

func TestSession_ReloadAppliesComparatorAndFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, fixture)
	s := mustSession(t, path)

	writeFixture(t, dir, strings.Replace(fixture, "collection:\n",
		"collection:\n  comparator: false\n  filter: {title: b}\n", 1))
	if err := s.reload(path, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s.markup(); got != "<ul><li>b</li></ul>" {
		t.Errorf("unexpected markup %s", got)
	}
	if got := s.list.CurrentComparator().String(); got != "none" {
		t.Errorf("expected comparator none, got %s", got)
	}
}

func TestSession_ReloadErrorKeepsTree(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, fixture)
	s := mustSession(t, path)

	writeFixture(t, dir, "records: [")
	err := s.reload(path, nil)
	if !errors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := s.markup(); got != "<ul><li>a</li><li>b</li><li>c</li></ul>" {
		t.Errorf("expected tree unchanged, got %s", got)
	}
}

func TestLoadFixture_Patches(t *testing.T) {
	path := writeFixture(t, t.TempDir(), fixture)
	res, err := loadFixture(path, []string{"2:title=patched"})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Records[1].Get("title"); got != "patched" {
		t.Errorf("expected patched title, got %v", got)
	}
	if _, err := loadFixture(path, []string{"9:title=x"}); err == nil {
		t.Error("expected error for unknown record")
	}
}

func TestWatchLoop_Debounces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "viewtree.yaml")
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	reloaded := make(chan struct{}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, map[string]bool{target: true}, 20*time.Millisecond,
			discardLogger(), func() { reloaded <- struct{}{} })
	}()

	events <- fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}
	events <- fsnotify.Event{Name: target, Op: fsnotify.Chmod}
	for range 3 {
		events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload")
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if n := len(reloaded); n != 0 {
		t.Errorf("expected a single reload, got %d more", n)
	}
}

type panicRecorder struct {
	panics chan *errors.PanicError
}

func (r *panicRecorder) HandleError(*errors.ViewError) {}

func (r *panicRecorder) HandlePanic(err *errors.PanicError) { r.panics <- err }

func TestWatchLoop_SurvivesPanickingReload(t *testing.T) {
	rec := &panicRecorder{panics: make(chan *errors.PanicError, 1)}
	errors.SetHandler(rec)
	t.Cleanup(func() { errors.SetHandler(nil) })

	target := filepath.Join(t.TempDir(), "viewtree.yaml")
	events := make(chan fsnotify.Event)
	reloaded := make(chan struct{}, 1)
	calls := 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, make(chan error), map[string]bool{target: true}, time.Millisecond,
			discardLogger(), func() {
				calls++
				if calls == 1 {
					panic("reload exploded")
				}
				reloaded <- struct{}{}
			})
	}()

	events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	select {
	case p := <-rec.panics:
		if p.Op != "viewtree.watch" || p.Value != "reload exploded" {
			t.Errorf("unexpected panic report %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the panic to be reported")
	}

	events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the loop to keep reloading after a panic")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestWatchLoop_StopsWhenWatcherCloses(t *testing.T) {
	events := make(chan fsnotify.Event)
	close(events)
	err := watchLoop(context.Background(), events, make(chan error), nil, time.Millisecond, discardLogger(), func() {})
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	t.Cleanup(func() {
		errors.SetHandler(nil)
		renderSets, renderEvents = nil, false
	})
	path := writeFixture(t, t.TempDir(), fixture)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"render", path, "--set", "3:title=z", "--events"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil); rootCmd.SetErr(nil) })

	if err := Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "<ul><li>a</li><li>b</li><li>z</li></ul>" {
		t.Errorf("unexpected markup %s", lines[0])
	}
	if len(lines) < 2 || !strings.Contains(out.String(), "childview:attach v4 (3)") {
		t.Errorf("expected event lines, got:\n%s", out.String())
	}
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() {
		errors.SetHandler(nil)
		logLevel, logFormat = "info", "text"
	})

	logLevel, logFormat = "debug", "json"
	var buf bytes.Buffer
	log, err := newLogger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected a JSON debug record, got %s", buf.String())
	}

	logLevel = "loud"
	if _, err := newLogger(&buf); err == nil {
		t.Error("expected error for invalid level")
	}
	logLevel, logFormat = "info", "xml"
	if _, err := newLogger(&buf); err == nil {
		t.Error("expected error for invalid format")
	}
}
