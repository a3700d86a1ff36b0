package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kite/internal/shared/util"
)

func collect(t *testing.T, opts Options) (*Watcher, chan []string) {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(opts, func(paths []string) { changed <- paths })
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return w, changed
}

func waitFor(t *testing.T, changed chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(Options{ExcludeFiles: []string{"[a"}}, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, changed := collect(t, Options{
		Debounce:     50 * time.Millisecond,
		ExcludeDirs:  []string{"build"},
		ExcludeFiles: []string{"*.gen.kite"},
	})
	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	main := filepath.Join(dir, "main.kite")
	if err := os.WriteFile(main, []byte("var a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, main)

	for _, name := range []string{"notes.txt", "out.gen.kite"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changed:
		t.Errorf("excluded files triggered a change: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	sub := filepath.Join(dir, "modules")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(sub, "net.kite")
	if err := os.WriteFile(nested, []byte("var b = 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested)
}

func TestWatcher_UnchangedContentIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.kite")
	if err := os.WriteFile(path, []byte("var a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, changed := collect(t, Options{Debounce: 30 * time.Millisecond})
	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("var a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("identical rewrite reported: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("var a = 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, path)
}

func TestWatcher_RemoveTriggersChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.kite")
	if err := os.WriteFile(path, []byte("var a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, changed := collect(t, Options{Debounce: 30 * time.Millisecond, Limiter: util.NewLimiter(100, 1)})
	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, path)
}

func TestWatcher_Filters(t *testing.T) {
	w, _ := collect(t, Options{ExcludeDirs: []string{".git"}, ExcludeFiles: []string{"*_test.kite"}})

	if !w.shouldExcludeFile("main.go") {
		t.Error("expected non-kite files to be excluded")
	}
	if w.shouldExcludeFile("/p/Main.KITE") {
		t.Error("expected .kite extension to match case-insensitively")
	}
	if !w.shouldExcludeFile("/p/net_test.kite") {
		t.Error("expected exclude_files pattern to apply")
	}
	if !w.shouldExcludeDir("/p/.git") {
		t.Error("expected .git to be excluded")
	}
}
